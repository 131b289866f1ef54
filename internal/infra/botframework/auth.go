// Package botframework talks to the Bot Framework channel service: inbound
// token validation, outbound replies and Direct Line token issuance.
package botframework

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bryanwahyu/docbridge/internal/domain/channel"
)

const (
	DefaultOpenIDMetadataURL = "https://login.botframework.com/v1/.well-known/openidconfiguration"
	Issuer                   = "https://api.botframework.com"
	keyCacheTTL              = 24 * time.Hour
)

// TokenValidator checks the JWT that the channel service attaches to every
// inbound activity. With an empty AppID only the presence of a bearer token is
// checked, which is what the emulator sends.
type TokenValidator struct {
	AppID       string
	MetadataURL string
	HTTP        *http.Client
	Now         func() time.Time

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func NewTokenValidator(appID string) *TokenValidator {
	return &TokenValidator{
		AppID:       appID,
		MetadataURL: DefaultOpenIDMetadataURL,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

var _ channel.Authenticator = (*TokenValidator)(nil)

func (v *TokenValidator) Authenticate(ctx context.Context, authHeader string, a channel.Activity) error {
	raw, ok := strings.CutPrefix(strings.TrimSpace(authHeader), "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return channel.ErrMissingAuth
	}
	if v.AppID == "" {
		return nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(v.AppID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Minute),
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrUnauthorized, err)
	}

	if su, ok := claims["serviceurl"].(string); ok && a.ServiceURL != "" && su != a.ServiceURL {
		return fmt.Errorf("%w: serviceurl claim mismatch", channel.ErrUnauthorized)
	}
	return nil
}

func (v *TokenValidator) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if k, ok := v.keys[kid]; ok && v.now().Sub(v.fetched) < keyCacheTTL {
		return k, nil
	}
	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}
	v.keys, v.fetched = keys, v.now()
	k, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return k, nil
}

type openIDMetadata struct {
	JWKSURI string `json:"jwks_uri"`
}

type jwkSet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *TokenValidator) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	var meta openIDMetadata
	if err := v.getJSON(ctx, v.MetadataURL, &meta); err != nil {
		return nil, fmt.Errorf("openid metadata: %w", err)
	}
	if meta.JWKSURI == "" {
		return nil, errors.New("openid metadata: missing jwks_uri")
	}
	var set jwkSet
	if err := v.getJSON(ctx, meta.JWKSURI, &set); err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	return keys, nil
}

func (v *TokenValidator) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c := v.HTTP
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (v *TokenValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
