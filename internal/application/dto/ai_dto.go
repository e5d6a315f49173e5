package dto

import "time"

// AIConfigRequest configuración del agente IA. APIKey vacío conserva la anterior; ClearAPIKey la borra.
type AIConfigRequest struct {
	Provider     string  `json:"provider" validate:"required,oneof=anthropic gemini"`
	Model        string  `json:"model" validate:"max=100"`
	SystemPrompt string  `json:"system_prompt" validate:"max=8000"`
	APIKey       string  `json:"api_key"`
	ClearAPIKey  bool    `json:"clear_api_key"`
	Temperature  float64 `json:"temperature" validate:"min=0,max=2"`
	MaxTokens    int     `json:"max_tokens" validate:"omitempty,min=1,max=8192"`
	IsActive     bool    `json:"is_active"`
}

// AIConfigResponse configuración sin la clave.
type AIConfigResponse struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
	HasAPIKey    bool      `json:"has_api_key"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateConversationRequest nueva conversación. Sin título se toma del primer mensaje.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// ConversationResponse conversación con sus mensajes (si se piden).
type ConversationResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Messages  []AIMessageResponse `json:"messages,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SendMessageRequest mensaje del usuario al agente.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=16000"`
}

// AIMessageResponse mensaje de la conversación.
type AIMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageResponse par mensaje del usuario + respuesta del agente.
type SendMessageResponse struct {
	UserMessage      AIMessageResponse `json:"user_message"`
	AssistantMessage AIMessageResponse `json:"assistant_message"`
}
