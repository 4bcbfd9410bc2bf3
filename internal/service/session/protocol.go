package session

import (
	"time"

	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
)

// Client → server actions.
const (
	ActionUpdate         = "update"
	ActionUpdateMetadata = "update_metadata"
	ActionExpand         = "expand"
)

// Server → client actions. Broadcasts reuse ActionUpdate and ActionUpdateMetadata.
const (
	ActionInitial      = "initial"
	ActionUpdateStatus = "update_status"
	ActionExpanded     = "expanded"
	ActionError        = "error"
	ActionDeleted      = "deleted"
)

// ClientMessage is any frame a client sends. Pointer fields distinguish
// "absent" from "empty".
type ClientMessage struct {
	Action      string    `json:"action"`
	Content     *string   `json:"content,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Initial is the first frame of every session and reflects the latest
// committed state at the moment of join.
type Initial struct {
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	Session     string    `json:"session"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	IsComposite bool      `json:"is_composite"`
	UpdatedAt   time.Time `json:"updated_at"`
	Seq         uint64    `json:"seq"`
}

func newInitial(p domainprompt.Prompt, sessionID string, seq uint64) Initial {
	return Initial{
		Action:      ActionInitial,
		ID:          p.ID,
		Session:     sessionID,
		Content:     p.Content,
		Description: p.Description,
		Tags:        p.Tags,
		IsComposite: p.IsComposite(),
		UpdatedAt:   p.UpdatedAt,
		Seq:         seq,
	}
}

// UpdateStatus acknowledges an update or update_metadata to its sender.
type UpdateStatus struct {
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// UpdateBroadcast carries new content to every other session in the room.
type UpdateBroadcast struct {
	Action    string    `json:"action"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq"`
}

// MetadataBroadcast carries new description and tags to every other session.
type MetadataBroadcast struct {
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Timestamp   time.Time `json:"timestamp"`
	Seq         uint64    `json:"seq"`
}

// Expanded answers an expand request, to the sender only.
type Expanded struct {
	Action       string   `json:"action"`
	Content      string   `json:"content"`
	Expanded     string   `json:"expanded"`
	Dependencies []string `json:"dependencies"`
	Warnings     []string `json:"warnings"`
}

func newExpanded(content string, res inclusion.Result) Expanded {
	deps := res.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return Expanded{
		Action:       ActionExpanded,
		Content:      content,
		Expanded:     res.Expanded,
		Dependencies: deps,
		Warnings:     res.WarningMessages(),
	}
}

// ErrorMessage reports a problem with one client frame. The session stays open.
type ErrorMessage struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Deleted tells every session the prompt is gone; the server closes the
// channel right after.
type Deleted struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Seq    uint64 `json:"seq"`
}

// ProtocolError is a malformed frame or an unknown action.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }
