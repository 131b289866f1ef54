package botframework

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

const DefaultDirectLineTokenURL = "https://directline.botframework.com/v3/directline/tokens/generate"

var ErrMissingSecret = errors.New("direct line secret is not configured")

// DirectLine exchanges the Direct Line secret for a client-side conversation token.
type DirectLine struct {
	Secret   string
	TokenURL string
	HTTP     *http.Client
}

func NewDirectLine(secret string) *DirectLine {
	return &DirectLine{
		Secret:   secret,
		TokenURL: DefaultDirectLineTokenURL,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// TokenResponse is the upstream reply, passed through untouched.
type TokenResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// GenerateToken requests a token bound to userID. An empty userID gets a
// random web_ identifier.
func (d *DirectLine) GenerateToken(ctx context.Context, userID string) (*TokenResponse, error) {
	if d.Secret == "" {
		return nil, ErrMissingSecret
	}
	if userID == "" {
		userID = RandomUserID()
	}
	body, err := json.Marshal(map[string]any{"user": map[string]string{"id": userID}})
	if err != nil {
		return nil, err
	}
	u := d.TokenURL
	if u == "" {
		u = DefaultDirectLineTokenURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.Secret)
	req.Header.Set("Content-Type", "application/json")

	c := d.HTTP
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: raw}, nil
}

func RandomUserID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "web_" + hex.EncodeToString(b)
}
