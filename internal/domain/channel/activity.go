package channel

import (
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// Activity types handled by the bot
const (
	TypeMessage = "message"
	TypeEvent   = "event"
	TypeInvoke  = "invoke"
)

// EventFilesUploaded is sent by the web front-end after a direct-to-storage upload.
const EventFilesUploaded = "files_uploaded"

// RequiredFields must be present on every inbound activity.
var RequiredFields = []string{"type", "serviceUrl", "channelId", "recipient", "conversation", "from"}

type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Conversation struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

// Activity is the subset of the Bot Framework activity schema used here.
type Activity struct {
	Type         string          `json:"type"`
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name,omitempty"`
	Text         string          `json:"text,omitempty"`
	ServiceURL   string          `json:"serviceUrl,omitempty"`
	ChannelID    string          `json:"channelId,omitempty"`
	From         Account         `json:"from"`
	Recipient    Account         `json:"recipient"`
	Conversation Conversation    `json:"conversation"`
	ReplyToID    string          `json:"replyToId,omitempty"`
	Locale       string          `json:"locale,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
}

// MissingFields lists required keys absent from a decoded JSON object, sorted.
func MissingFields(obj map[string]any) []string {
	missing := lo.Filter(RequiredFields, func(f string, _ int) bool {
		_, ok := obj[f]
		return !ok
	})
	sort.Strings(missing)
	return missing
}

// Reply builds an outbound message answering a.
func (a Activity) Reply(text string) Activity {
	return Activity{
		Type:         TypeMessage,
		Text:         text,
		ServiceURL:   a.ServiceURL,
		ChannelID:    a.ChannelID,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		ReplyToID:    a.ID,
		Locale:       a.Locale,
	}
}
