package events

import (
	"time"

	"github.com/google/uuid"
)

// Backend stream channels. One outstanding stream owns both.
const (
	LLMToken = "llm-token"
	LLMDone  = "llm-done"
)

// Channels pushed to the web frontend.
const (
	UIState  = "event:ui:state"
	UINotice = "event:ui:notice"
)

// Token is the payload of LLMToken. LLMDone carries none.
type Token struct {
	Token string `json:"token"`
}

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// Notice is a status message for the user.
type Notice struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func CreateNotice(eventType EventType, message string) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewInfo creates an info Notice.
func NewInfo(message string) Notice {
	return CreateNotice(EventInfo, message)
}

// NewWarn creates a warn Notice.
func NewWarn(message string) Notice {
	return CreateNotice(EventWarn, message)
}

// NewError creates an error Notice.
func NewError(message string) Notice {
	return CreateNotice(EventError, message)
}

// NewSuccess creates a success Notice.
func NewSuccess(message string) Notice {
	return CreateNotice(EventSuccess, message)
}

// With returns a copy of n carrying key=value in its metadata.
func (n Notice) With(key, value string) Notice {
	md := make(map[string]string, len(n.Metadata)+1)
	for k, v := range n.Metadata {
		md[k] = v
	}
	md[key] = value
	n.Metadata = md
	return n
}
