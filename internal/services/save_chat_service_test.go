package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/adchat-ai/backend/internal/events"
	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/repositories"
	"go.uber.org/zap"
)

type recordingStore struct {
	saved   []*models.ChatSession
	saveErr error
}

func (r *recordingStore) Save(ctx context.Context, s *models.ChatSession) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	s.ID = len(r.saved) + 1
	r.saved = append(r.saved, s)
	return nil
}

func (r *recordingStore) GetByID(ctx context.Context, id int) (*models.ChatSession, error) {
	for _, s := range r.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repositories.ErrSessionNotFound
}

func (r *recordingStore) List(ctx context.Context, f repositories.ChatSessionFilter) ([]models.ChatSession, error) {
	out := make([]models.ChatSession, 0, len(r.saved))
	for _, s := range r.saved {
		out = append(out, *s)
	}
	return out, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	streams []string
	events  []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streams = append(p.streams, stream)
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() ([]string, []events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.streams...), append([]events.Event(nil), p.events...)
}

func sessionHistory() []models.SessionMessage {
	return []models.SessionMessage{
		{Role: "user", Parts: []string{"hello"}},
		{Role: "assistant", Parts: []string{"hi there"}, GenerationTime: 0.8, UsedTokens: 12},
	}
}

func TestSaveSessionValidatesBeforeStore(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		history []models.SessionMessage
		wantErr error
	}{
		{"empty history", "basic", nil, ErrEmptyHistory},
		{"unknown mode", "turbo", sessionHistory(), ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			svc := NewSaveChatService(store, &recordingPublisher{}, zap.NewNop())

			_, err := svc.SaveSession(context.Background(), tt.mode, tt.history, nil, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveSession error = %v, want %v", err, tt.wantErr)
			}
			if len(store.saved) != 0 {
				t.Error("store must not be touched on validation failure")
			}
		})
	}
}

func TestSaveSessionPersistsAndPublishes(t *testing.T) {
	store := &recordingStore{}
	pub := &recordingPublisher{}
	svc := NewSaveChatService(store, pub, zap.NewNop())

	version := 1.2
	session, err := svc.SaveSession(context.Background(), models.ChatModeRAG, sessionHistory(), &version, true)
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if session.ID == 0 {
		t.Error("session ID not assigned by store")
	}
	if session.Mode != models.ChatModeRAG || !session.Helpful {
		t.Errorf("session fields wrong: %+v", session)
	}
	streams, published := pub.published()
	if len(published) != 1 || published[0].Type != events.EventChatSaved {
		t.Errorf("published events = %+v, want one %s", published, events.EventChatSaved)
	}
	if streams[0] != events.StreamChat {
		t.Errorf("published to stream %q, want %q", streams[0], events.StreamChat)
	}
}

func TestSaveSessionStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("insert failed")
	store := &recordingStore{saveErr: storeErr}
	pub := &recordingPublisher{}
	svc := NewSaveChatService(store, pub, zap.NewNop())

	if _, err := svc.SaveSession(context.Background(), models.ChatModeBasic, sessionHistory(), nil, false); !errors.Is(err, storeErr) {
		t.Errorf("SaveSession error = %v, want %v", err, storeErr)
	}
	if _, published := pub.published(); len(published) != 0 {
		t.Error("no event must be published when the store fails")
	}
}
