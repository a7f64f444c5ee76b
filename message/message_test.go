package message

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "Hello, world!")

	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestText(t *testing.T) {
	msg := NewMessage(RoleAssistant, "answer")
	if msg.Text() != "answer" {
		t.Errorf("Expected 'answer', got '%s'", msg.Text())
	}

	var nilMsg *Message
	if nilMsg.Text() != "" {
		t.Error("Expected empty text for nil message")
	}
}
