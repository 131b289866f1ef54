package botframework

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/bryanwahyu/docbridge/internal/domain/channel"
	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

const (
	DefaultTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	connectorScope  = "https://api.botframework.com/.default"
)

// Connector posts reply activities to the conversation's service URL.
type Connector struct {
	HTTP  *http.Client
	Retry retry.Policy
}

// NewConnector authenticates outbound calls with the bot's app credentials.
// Without credentials replies are sent unauthenticated, as the emulator accepts.
func NewConnector(appID, appPassword, tokenURL string) *Connector {
	base := &http.Client{Timeout: 15 * time.Second}
	if appID == "" || appPassword == "" {
		return &Connector{HTTP: base, Retry: retry.Default}
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	cfg := clientcredentials.Config{
		ClientID:     appID,
		ClientSecret: appPassword,
		TokenURL:     tokenURL,
		Scopes:       []string{connectorScope},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c := cfg.Client(ctx)
	c.Timeout = base.Timeout
	return &Connector{HTTP: c, Retry: retry.Default}
}

var _ channel.Sender = (*Connector)(nil)

func (c *Connector) Send(ctx context.Context, out channel.Activity) error {
	if out.ServiceURL == "" || out.Conversation.ID == "" {
		return errors.New("connector: reply has no service url or conversation")
	}
	u := strings.TrimRight(out.ServiceURL, "/") + "/v3/conversations/" + url.PathEscape(out.Conversation.ID) + "/activities"
	if out.ReplyToID != "" {
		u += "/" + url.PathEscape(out.ReplyToID)
	}
	body, err := json.Marshal(out)
	if err != nil {
		return err
	}

	return retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err = fmt.Errorf("connector: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if retry.RetryableStatus(resp.StatusCode) {
			return err
		}
		return retry.Permanent(err)
	})
}

func (c *Connector) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}
