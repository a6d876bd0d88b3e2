package services

import (
	"context"
	"strings"

	"proof/internal/apperrors"
	"proof/internal/models"
	"proof/internal/repositories"
)

type ChatSessionService interface {
	Startup(ctx context.Context)
	List(ctx context.Context) ([]models.ChatSession, error)
	Save(ctx context.Context, session models.ChatSession) error
	Load(ctx context.Context, id string) (*models.ChatSession, error)
	Delete(ctx context.Context, id string) error
}

type chatSessionService struct {
	repo repositories.ChatSessionRepository
	ctx  context.Context
}

func NewChatSessionService(repo repositories.ChatSessionRepository) ChatSessionService {
	return &chatSessionService{repo: repo}
}

func (s *chatSessionService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// List returns summaries without transcripts; Load fetches the messages.
func (s *chatSessionService) List(ctx context.Context) ([]models.ChatSession, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Summary())
	}
	return out, nil
}

// Save upserts by id, replacing the whole transcript.
func (s *chatSessionService) Save(ctx context.Context, session models.ChatSession) error {
	session.ID = strings.TrimSpace(session.ID)
	if err := session.Validate(); err != nil {
		return err
	}
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}
	return s.repo.Upsert(ctx, &session)
}

func (s *chatSessionService) Load(ctx context.Context, id string) (*models.ChatSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.Validation("session id is required")
	}
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("session %q not found", id)
	}
	return session, nil
}

func (s *chatSessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Load(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteByID(ctx, strings.TrimSpace(id))
}
