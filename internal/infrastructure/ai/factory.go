package ai

import (
	"context"
	"fmt"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

var _ ports.LLMFactory = (*Factory)(nil)

// Factory elige el adaptador según el proveedor configurado por la empresa.
type Factory struct {
	cfg config.AIConfig
}

// NewFactory usa las claves y modelos de servidor como respaldo.
func NewFactory(cfg config.AIConfig) *Factory {
	return &Factory{cfg: cfg}
}

// For devuelve el adaptador del proveedor. apiKey vacío = clave del servidor.
func (f *Factory) For(provider, apiKey string) (ports.LLMService, error) {
	switch provider {
	case entity.ProviderAnthropic:
		if apiKey == "" {
			apiKey = f.cfg.AnthropicAPIKey
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic: %w", domain.ErrNotConfigured)
		}
		return NewAnthropicService(apiKey, f.cfg.AnthropicModel), nil
	case entity.ProviderGemini:
		if apiKey == "" {
			apiKey = f.cfg.GeminiAPIKey
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini: %w", domain.ErrNotConfigured)
		}
		return NewGeminiService(context.Background(), apiKey, f.cfg.GeminiModel)
	default:
		return nil, domain.Invalid("provider", fmt.Sprintf("proveedor desconocido %q", provider))
	}
}
