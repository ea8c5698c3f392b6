package domain

import "time"

// MessageRole tags a chat bubble.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one chat bubble.
type Message struct {
	ID   string
	Role MessageRole
	Text string
	At   time.Time
}

// ChatView is the view-model every surface renders from.
type ChatView struct {
	Messages       []Message
	Summary        string
	TableHTML      string
	Rows           []Row
	Loading        bool
	ResultsVisible bool
}

// Clone returns a copy that shares no slices with v.
func (v ChatView) Clone() ChatView {
	out := v
	out.Messages = append([]Message(nil), v.Messages...)
	out.Rows = append([]Row(nil), v.Rows...)
	return out
}
