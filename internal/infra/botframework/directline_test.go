package botframework

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken_PassesThrough(t *testing.T) {
	req := require.New(t)
	var user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer dl-secret", r.Header.Get("Authorization"))
		var body struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		user = body.User.ID
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"token":"abc","expires_in":3600}`))
	}))
	defer srv.Close()

	d := NewDirectLine("dl-secret")
	d.TokenURL = srv.URL

	out, err := d.GenerateToken(context.Background(), "u-42")
	req.NoError(err)
	req.Equal("u-42", user)
	req.Equal(http.StatusOK, out.Status)
	req.JSONEq(`{"token":"abc","expires_in":3600}`, string(out.Body))

	_, err = d.GenerateToken(context.Background(), "")
	req.NoError(err)
	req.Regexp(regexp.MustCompile(`^web_[0-9a-f]{16}$`), user)
}

func TestGenerateToken_MissingSecret(t *testing.T) {
	_, err := NewDirectLine("").GenerateToken(context.Background(), "u")
	require.ErrorIs(t, err, ErrMissingSecret)
}
