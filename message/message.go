package message

import "time"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a completion exchange. The engine
// only issues stateless, single-shot calls, so a message is role plus text.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a new message with the given role and content
func NewMessage(role Role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Text returns the message content.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.Content
}
