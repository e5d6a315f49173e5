package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que GeminiService implementa LLMService.
var _ ports.LLMService = (*GeminiService)(nil)

// GeminiService adaptador que implementa LLMService con el SDK google.golang.org/genai.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService construye el cliente. model es el modelo por defecto (p. ej. "gemini-1.5-flash").
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AI: crear cliente Gemini: %w", err)
	}
	return &GeminiService{client: client, model: model}, nil
}

// toGeminiContents traduce el historial; Gemini llama "model" al rol del asistente.
func toGeminiContents(msgs []ports.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == entity.MessageAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

// Chat envía el historial a Gemini y devuelve el texto de la respuesta.
func (s *GeminiService) Chat(ctx context.Context, in ports.ChatRequest) (string, error) {
	model := in.Model
	if model == "" {
		model = s.model
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(in.Temperature)),
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if in.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(in.SystemPrompt, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, model, toGeminiContents(in.Messages), cfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: Gemini: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("AI: Gemini devolvió respuesta vacía")
	}
	return text, nil
}
