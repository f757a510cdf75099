package calendar

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in an assistant conversation.
type ChatMessage struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Pending bool      `json:"pending,omitempty"`
	Created time.Time `json:"created"`
}

// NewChatMessage stamps a message with a fresh id.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Created: time.Now(),
	}
}
