package event

import (
	"context"
	"time"
)

type Type string

const (
	TypePromptCreated         Type = "prompt_created"
	TypePromptUpdated         Type = "prompt_updated"
	TypePromptMetadataUpdated Type = "prompt_metadata_updated"
	TypePromptDeleted         Type = "prompt_deleted"
)

// Channel is a domain-scoped Postgres NOTIFY channel.
// All event types within a domain share one LISTEN connection.
type Channel string

const ChannelPrompt Channel = "prompt"

var typeToChannel = map[Type]Channel{
	TypePromptCreated:         ChannelPrompt,
	TypePromptUpdated:         ChannelPrompt,
	TypePromptMetadataUpdated: ChannelPrompt,
	TypePromptDeleted:         ChannelPrompt,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers fetch fresh state from the prompt repository.
type Event struct {
	Type     Type   `json:"type"`
	PromptID string `json:"prompt_id"`
	// Instance identifies the process that made the change.
	Instance string `json:"instance"`
	// Session is the editing session that made the change, empty for
	// REST, MCP and filesystem changes.
	Session   string    `json:"session,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, promptID string) Event {
	return Event{
		Type:      eventType,
		PromptID:  promptID,
		Timestamp: time.Now().UTC(),
	}
}

type sessionKey struct{}

// WithSession tags ctx with the editing session performing a mutation.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}
