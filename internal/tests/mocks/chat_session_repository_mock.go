package mocks

import (
	"context"

	"proof/internal/models"
)

type ChatSessionRepositoryMock struct {
	ListFunc       func(ctx context.Context) ([]models.ChatSession, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.ChatSession, error)
	UpsertFunc     func(ctx context.Context, session *models.ChatSession) error
	DeleteByIDFunc func(ctx context.Context, id string) error
}

func (m *ChatSessionRepositoryMock) List(ctx context.Context) ([]models.ChatSession, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *ChatSessionRepositoryMock) GetByID(ctx context.Context, id string) (*models.ChatSession, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *ChatSessionRepositoryMock) Upsert(ctx context.Context, session *models.ChatSession) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, session)
	}
	return nil
}

func (m *ChatSessionRepositoryMock) DeleteByID(ctx context.Context, id string) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return nil
}
