package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adchat-ai/backend/internal/events"
	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/repositories"
	"go.uber.org/zap"
)

var (
	ErrEmptyHistory = errors.New("chat history cannot be empty")
	ErrInvalidMode  = errors.New("invalid chat mode")
)

// SessionStore is implemented by repositories.ChatSessionRepo.
type SessionStore interface {
	Save(ctx context.Context, s *models.ChatSession) error
	GetByID(ctx context.Context, id int) (*models.ChatSession, error)
	List(ctx context.Context, f repositories.ChatSessionFilter) ([]models.ChatSession, error)
}

// SaveChatService persists immutable conversation snapshots. Validation
// happens before any state mutation.
type SaveChatService struct {
	sessions  SessionStore
	publisher events.Publisher
	log       *zap.Logger
}

func NewSaveChatService(sessions SessionStore, publisher events.Publisher, log *zap.Logger) *SaveChatService {
	return &SaveChatService{sessions: sessions, publisher: publisher, log: log}
}

func (s *SaveChatService) SaveSession(ctx context.Context, mode string, history []models.SessionMessage, version *float64, helpful bool) (*models.ChatSession, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if !models.IsValidChatMode(mode) {
		return nil, fmt.Errorf("%w: %q, must be one of: basic, rag, mcp, agent", ErrInvalidMode, mode)
	}

	session := &models.ChatSession{
		Mode:    mode,
		History: history,
		Version: version,
		Helpful: helpful,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("chat session saved",
		zap.Int("session_id", session.ID),
		zap.String("mode", mode),
		zap.Int("messages", len(history)))

	_ = s.publisher.Publish(ctx, events.StreamChat, events.Event{
		Type: events.EventChatSaved,
		Payload: map[string]any{
			"session_id": session.ID,
			"mode":       mode,
			"messages":   len(history),
		},
	})

	return session, nil
}

func (s *SaveChatService) GetSession(ctx context.Context, id int) (*models.ChatSession, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *SaveChatService) ListSessions(ctx context.Context, f repositories.ChatSessionFilter) ([]models.ChatSession, error) {
	return s.sessions.List(ctx, f)
}
