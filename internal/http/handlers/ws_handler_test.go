package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/services"
	"go.uber.org/zap"
)

type fakeStreamer struct {
	chunks []string
	result services.ChatResult
	err    error
}

func (f *fakeStreamer) GenerateChatStream(ctx context.Context, message string, history []models.ChatMessage, onChunk func(string) error) (services.ChatResult, error) {
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return services.ChatResult{}, err
		}
	}
	return f.result, f.err
}

type recordingWriter struct {
	frames  []wsChatFrame
	failAt  int // fail the N-th write (1-based); 0 never fails
	writes  int
	wireErr error
}

func (w *recordingWriter) WriteMessage(messageType int, data []byte) error {
	w.writes++
	if w.failAt > 0 && w.writes >= w.failAt {
		if w.wireErr == nil {
			w.wireErr = errors.New("broken pipe")
		}
		return w.wireErr
	}
	var frame wsChatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	w.frames = append(w.frames, frame)
	return nil
}

func TestHandleMessageStreamsChunksThenDone(t *testing.T) {
	h := NewWSChatHandler(&fakeStreamer{
		chunks: []string{"Hel", "lo"},
		result: services.ChatResult{Text: "Hello", GenerationTime: 0.7, UsedTokens: 9},
	}, zap.NewNop())
	w := &recordingWriter{}

	data, _ := json.Marshal(wsChatRequest{Message: "hi"})
	if err := h.handleMessage(context.Background(), data, w); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	if len(w.frames) != 3 {
		t.Fatalf("got %d frames, want 2 chunks + done", len(w.frames))
	}
	if w.frames[0].Type != "chunk" || w.frames[0].Text != "Hel" {
		t.Errorf("frame 0 = %+v", w.frames[0])
	}
	if w.frames[1].Type != "chunk" || w.frames[1].Text != "lo" {
		t.Errorf("frame 1 = %+v", w.frames[1])
	}
	done := w.frames[2]
	if done.Type != "done" || done.GenerationTime != 0.7 || done.UsedTokens != 9 {
		t.Errorf("done frame = %+v", done)
	}
}

func TestHandleMessageInvalidRequestIsInBandError(t *testing.T) {
	h := NewWSChatHandler(&fakeStreamer{}, zap.NewNop())
	w := &recordingWriter{}

	if err := h.handleMessage(context.Background(), []byte(`{"message":""}`), w); err != nil {
		t.Fatalf("in-band error must not close the connection: %v", err)
	}
	if len(w.frames) != 1 || w.frames[0].Type != "error" {
		t.Fatalf("frames = %+v, want one error frame", w.frames)
	}
}

func TestHandleMessageGenerationFailureIsInBandError(t *testing.T) {
	h := NewWSChatHandler(&fakeStreamer{err: errors.New("model down")}, zap.NewNop())
	w := &recordingWriter{}

	data, _ := json.Marshal(wsChatRequest{Message: "hi"})
	if err := h.handleMessage(context.Background(), data, w); err != nil {
		t.Fatalf("generation failure must not close the connection: %v", err)
	}
	if len(w.frames) != 1 || w.frames[0].Type != "error" || w.frames[0].Error != "generation failed" {
		t.Fatalf("frames = %+v, want one generation error frame", w.frames)
	}
}

func TestHandleMessageDeadConnectionSurfacesWriteError(t *testing.T) {
	h := NewWSChatHandler(&fakeStreamer{
		chunks: []string{"Hel", "lo"},
		result: services.ChatResult{Text: "Hello"},
	}, zap.NewNop())
	// First chunk write fails: the error must reach the caller so the read
	// loop stops instead of waiting for another prompt.
	w := &recordingWriter{failAt: 1}

	data, _ := json.Marshal(wsChatRequest{Message: "hi"})
	err := h.handleMessage(context.Background(), data, w)
	if err == nil {
		t.Fatal("expected write error to propagate")
	}
}
