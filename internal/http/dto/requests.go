package dto

import "github.com/adchat-ai/backend/internal/models"

type ChatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

type RagChatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
	TopK    *int                 `json:"top_k,omitempty"` // 1..50, default 5
}

type SaveChatRequest struct {
	Mode    string                  `json:"mode"` // basic / rag / mcp / agent
	History []models.SessionMessage `json:"history"`
	Version *float64                `json:"version,omitempty"`
	Helpful bool                    `json:"helpful"`
}

type AdminLoginRequest struct {
	APIKey string `json:"api_key"`
}
