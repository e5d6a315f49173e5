package ports

import "context"

// ChatMessage turno de conversación enviado al modelo.
type ChatMessage struct {
	Role    string // "user" | "assistant"
	Content string
}

// ChatRequest petición de completado de chat.
type ChatRequest struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	Temperature  float64
	MaxTokens    int
}

// LLMService define el puerto de salida para los proveedores de IA.
// Cualquier adaptador (Anthropic, Gemini, mock) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type LLMService interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// LLMFactory construye el adaptador del proveedor con la API key indicada.
// apiKey vacío = usar la clave configurada en el servidor; si tampoco hay,
// devuelve domain.ErrNotConfigured.
type LLMFactory interface {
	For(provider, apiKey string) (LLMService, error)
}
