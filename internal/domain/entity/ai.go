package entity

import "time"

// Proveedores LLM soportados.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// AIConfiguration configuración del agente IA de una empresa.
type AIConfiguration struct {
	ID           string
	CompanyID    string
	Provider     string
	Model        string
	SystemPrompt string
	APIKeyEnc    string // vacío = usar la clave del servidor
	Temperature  float64
	MaxTokens    int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AIConversation hilo de chat de un usuario con el agente.
type AIConversation struct {
	ID        string
	CompanyID string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Roles de mensaje.
const (
	MessageUser      = "user"
	MessageAssistant = "assistant"
)

// AIMessage mensaje dentro de una conversación.
type AIMessage struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}
