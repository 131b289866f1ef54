package analysis

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strings.Repeat("x", i%3)
	}
	return strings.Join(w, " \n\t")
}

func TestChunks_Partition(t *testing.T) {
	req := require.New(t)
	text := words(1234)

	chunks := slices.Collect(Chunks(text, 500))
	req.Len(chunks, 3)
	for i, c := range chunks {
		req.Equal(i, c.Index)
	}
	req.Len(strings.Fields(chunks[0].Text), 500)
	req.Len(strings.Fields(chunks[2].Text), 234)

	var rejoined []string
	for _, c := range chunks {
		rejoined = append(rejoined, c.Text)
	}
	req.Equal(strings.Fields(text), strings.Fields(strings.Join(rejoined, " ")))
}

func TestChunks_RestartableAndDeterministic(t *testing.T) {
	seq := Chunks(words(42), 10)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	require.Equal(t, first, second)
	require.Equal(t, first, slices.Collect(Chunks(words(42), 10)))
}

func TestChunks_EarlyStop(t *testing.T) {
	n := 0
	for range Chunks(words(100), 10) {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
}

func TestChunks_Empty(t *testing.T) {
	require.Empty(t, slices.Collect(Chunks("", 10)))
	require.Empty(t, slices.Collect(Chunks(" \n\t ", 10)))
	require.Equal(t, []domain.Chunk{{Text: "a b", Index: 0}}, slices.Collect(Chunks("a   b", 0)))
}

func TestEntryID_RoundTrip(t *testing.T) {
	req := require.New(t)
	url := "https://sa.blob.core.windows.net/uploads/a|b.pdf"
	id := EntryID(url, 7)
	req.NotContains(id, "/")
	req.NotContains(id, "+")

	gotURL, idx, err := DecodeEntryID(id)
	req.NoError(err)
	req.Equal(url, gotURL)
	req.Equal(7, idx)

	req.NotEqual(EntryID(url, 1), EntryID(url, 10))
	req.NotEqual(EntryID("https://x/a", 1), EntryID("https://x/b", 1))
	req.Equal(EntryID(url, 3), EntryID(url, 3))

	_, _, err = DecodeEntryID("%%%")
	req.Error(err)
}
