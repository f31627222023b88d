// Package push wraps the FCM delivery boundary behind a narrow interface so
// the dispatch services can be exercised without the vendor SDK.
package push

import "context"

// Channel identifiers understood by the mobile client.
const (
	ChannelReminders      = "reminders"
	ChannelSpaceReminders = "space_reminders"
	ChannelNudges         = "nudges"
)

// Message is one logical notification delivered to a set of tokens.
type Message struct {
	Title     string
	Body      string
	Data      map[string]string
	ChannelID string
}

// Result is the per-token outcome of a batched send.
type Result struct {
	OK bool
	// Invalid marks tokens the provider reports as permanently dead
	// (unregistered or malformed). These are the only failures worth pruning.
	Invalid bool
	Err     error
}

// Sender delivers one message to many tokens in a single batched call.
type Sender interface {
	Send(ctx context.Context, tokens []string, msg Message) ([]Result, error)
}
