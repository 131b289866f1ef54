package mysql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageBounds(t *testing.T) {
	tests := []struct {
		page, size            int
		wantLimit, wantOffset int
	}{
		{1, 10, 10, 0},
		{3, 10, 10, 20},
		{0, 0, 20, 0},
		{-2, 5, 5, 0},
	}
	for _, tt := range tests {
		limit, offset := pageBounds(tt.page, tt.size)
		require.Equal(t, tt.wantLimit, limit)
		require.Equal(t, tt.wantOffset, offset)
	}
}

func TestStringOrDash(t *testing.T) {
	require.Equal(t, "-", stringOrDash("  "))
	require.Equal(t, "pdf", stringOrDash("pdf"))
}
