package stores

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"proof/internal/apperrors"
	"proof/internal/commands"
	"proof/internal/models"
	"proof/internal/transport"
)

const (
	titleLength  = 32
	defaultTitle = "Session"
)

type SessionStore struct {
	t transport.Transport
}

func NewSessionStore(t transport.Transport) *SessionStore {
	return &SessionStore{t: t}
}

// List returns sessions in the order the backend reports them (newest first).
func (s *SessionStore) List(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.t.Invoke(ctx, commands.ListSessions, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionStore) Save(ctx context.Context, session models.ChatSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	return s.t.Invoke(ctx, commands.SaveSession, models.SessionPayload{Session: session}, nil)
}

// Load fails with apperrors.ErrNotFound for unknown ids.
func (s *SessionStore) Load(ctx context.Context, id string) (models.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return models.ChatSession{}, apperrors.Validation("session id is required")
	}
	var session models.ChatSession
	if err := s.t.Invoke(ctx, commands.LoadSession, models.SessionIDArgs{ID: id}, &session); err != nil {
		return models.ChatSession{}, err
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.t.Invoke(ctx, commands.DeleteSession, models.SessionIDArgs{ID: id}, nil)
}

// NewSession builds a transcript of one exchange. The title is the given one,
// else the first 32 characters of the prompt, else "Session".
func NewSession(title, prompt, answer string, now time.Time) (models.ChatSession, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return models.ChatSession{}, err
	}
	ts := now.Unix()
	session := models.ChatSession{
		ID:        id.String(),
		Title:     sessionTitle(title, prompt),
		CreatedAt: ts,
		Messages:  []models.ChatMessage{},
	}
	if prompt != "" {
		session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleUser, Content: prompt, Timestamp: ts})
	}
	if answer != "" {
		session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleAssistant, Content: answer, Timestamp: ts})
	}
	return session, nil
}

func sessionTitle(title, prompt string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if prompt != "" {
		runes := []rune(prompt)
		if len(runes) > titleLength {
			runes = runes[:titleLength]
		}
		if t := strings.TrimSpace(string(runes)); t != "" {
			return t
		}
	}
	return defaultTitle
}
