package models

import (
	"strings"

	"proof/internal/apperrors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one entry of a transcript. Timestamp is unix seconds.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ChatSession is a saved transcript. Messages are stored as a JSON column and
// only ever replaced whole.
type ChatSession struct {
	ID        string        `gorm:"primaryKey;size:64" json:"id"`
	Title     string        `gorm:"size:255;not null" json:"title"`
	CreatedAt int64         `gorm:"index;autoCreateTime:false" json:"created_at"`
	Messages  []ChatMessage `gorm:"type:text;serializer:json" json:"messages"`
}

func (s ChatSession) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return apperrors.Validation("session id is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		return apperrors.Validation("session title is required")
	}
	for i, m := range s.Messages {
		if !m.Role.Valid() {
			return apperrors.Validation("message %d has invalid role %q", i, m.Role)
		}
	}
	return nil
}

// Summary drops the transcript for list views.
func (s ChatSession) Summary() ChatSession {
	return ChatSession{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt}
}

// FirstUserMessage returns the first message sent by the user, if any.
func (s ChatSession) FirstUserMessage() (ChatMessage, bool) {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// LastAssistantReply returns the final message when it came from the assistant.
func (s ChatSession) LastAssistantReply() (ChatMessage, bool) {
	if len(s.Messages) == 0 {
		return ChatMessage{}, false
	}
	last := s.Messages[len(s.Messages)-1]
	if last.Role != RoleAssistant {
		return ChatMessage{}, false
	}
	return last, true
}
