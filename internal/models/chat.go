package models

import "time"

// Chat modes persisted with a session snapshot.
const (
	ChatModeBasic = "basic"
	ChatModeRAG   = "rag"
	ChatModeMCP   = "mcp"
	ChatModeAgent = "agent"
)

func IsValidChatMode(mode string) bool {
	switch mode {
	case ChatModeBasic, ChatModeRAG, ChatModeMCP, ChatModeAgent:
		return true
	}
	return false
}

// ChatMessage is a single turn of request history as sent by clients.
// Role is "user" or "model" ("assistant" is accepted and mapped to "model").
type ChatMessage struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// SessionMessage extends ChatMessage with per-turn generation metrics for
// persisted snapshots.
type SessionMessage struct {
	Role           string   `json:"role"`
	Parts          []string `json:"parts"`
	GenerationTime float64  `json:"generation_time"`
	UsedTokens     int      `json:"used_tokens"`
}

// ChatSession is an immutable snapshot of a completed conversation.
// Rows are inserted once and never updated.
type ChatSession struct {
	ID        int              `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Mode      string           `json:"mode"`
	History   []SessionMessage `json:"history"`
	Version   *float64         `json:"version,omitempty"`
	Helpful   bool             `json:"helpful"`
}
