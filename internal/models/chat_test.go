package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestIsValidChatMode(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{ChatModeBasic, true},
		{ChatModeRAG, true},
		{ChatModeMCP, true},
		{ChatModeAgent, true},
		{"", false},
		{"BASIC", false},
		{"agentic", false},
	}
	for _, tt := range tests {
		if got := IsValidChatMode(tt.mode); got != tt.want {
			t.Errorf("IsValidChatMode(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestSessionHistoryJSONRoundTrip(t *testing.T) {
	version := 1.2
	session := ChatSession{
		ID:        42,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Mode:      ChatModeAgent,
		History: []SessionMessage{
			{Role: "user", Parts: []string{"hi"}, GenerationTime: 0, UsedTokens: 0},
			{Role: "model", Parts: []string{"hello", "there"}, GenerationTime: 1.25, UsedTokens: 37},
		},
		Version: &version,
		Helpful: true,
	}

	data, err := json.Marshal(session.History)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got []SessionMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, session.History) {
		t.Errorf("history changed through JSONB round trip:\n got %+v\nwant %+v", got, session.History)
	}
}
