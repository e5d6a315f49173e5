package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

const (
	historyWindow   = 20
	titleRunes      = 60
	defaultMaxToken = 1024
)

// ErrAITimeout el proveedor no respondió dentro del plazo.
var ErrAITimeout = errors.New("el agente IA no respondió a tiempo")

// AIUseCase orquesta el agente IA de la empresa: configuración y conversaciones.
// Aplica un timeout en cada llamada al LLM para evitar que las latencias externas
// bloqueen los goroutines del servidor.
type AIUseCase struct {
	repo    repository.AIRepository
	llms    ports.LLMFactory
	box     ports.SecretBox
	timeout time.Duration
}

// NewAIUseCase construye el caso de uso inyectando la fábrica de LLMs.
func NewAIUseCase(repo repository.AIRepository, llms ports.LLMFactory, box ports.SecretBox, timeout time.Duration) *AIUseCase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIUseCase{repo: repo, llms: llms, box: box, timeout: timeout}
}

// GetConfig configuración de la empresa (sin la clave). Sin configuración guardada
// devuelve los valores por defecto, inactiva.
func (uc *AIUseCase) GetConfig(ctx context.Context, a Actor) (*dto.AIConfigResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	cfg, err := uc.repo.GetConfig(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = defaultAIConfig(a.CompanyID)
	}
	return toAIConfigResponse(cfg), nil
}

// SaveConfig guarda la configuración. APIKey vacío conserva la anterior.
func (uc *AIUseCase) SaveConfig(ctx context.Context, a Actor, in dto.AIConfigRequest) (*dto.AIConfigResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	cfg, err := uc.repo.GetConfig(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if cfg == nil {
		cfg = &entity.AIConfiguration{ID: uuid.New().String(), CompanyID: a.CompanyID, CreatedAt: now}
	}
	cfg.Provider = in.Provider
	cfg.Model = strings.TrimSpace(in.Model)
	cfg.SystemPrompt = in.SystemPrompt
	cfg.Temperature = in.Temperature
	cfg.MaxTokens = in.MaxTokens
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxToken
	}
	cfg.IsActive = in.IsActive
	switch {
	case in.ClearAPIKey:
		cfg.APIKeyEnc = ""
	case in.APIKey != "":
		if !uc.box.Enabled() {
			return nil, domain.ErrNotConfigured
		}
		enc, err := uc.box.Seal(strings.TrimSpace(in.APIKey))
		if err != nil {
			return nil, err
		}
		cfg.APIKeyEnc = enc
	}
	cfg.UpdatedAt = now
	if err := uc.repo.UpsertConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return toAIConfigResponse(cfg), nil
}

// CreateConversation abre una conversación vacía.
func (uc *AIUseCase) CreateConversation(ctx context.Context, a Actor, in dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	now := time.Now()
	c := &entity.AIConversation{
		ID:        uuid.New().String(),
		CompanyID: a.CompanyID,
		UserID:    a.UserID,
		Title:     strings.TrimSpace(in.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return toConversationResponse(c, nil), nil
}

// ListConversations conversaciones propias, más recientes primero.
func (uc *AIUseCase) ListConversations(ctx context.Context, a Actor, limit, offset int) ([]dto.ConversationResponse, error) {
	limit, offset = dto.NormalizePage(limit, offset)
	list, err := uc.repo.ListConversations(ctx, a.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConversationResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toConversationResponse(c, nil))
	}
	return out, nil
}

// GetConversation conversación propia con todos sus mensajes.
func (uc *AIUseCase) GetConversation(ctx context.Context, a Actor, id string) (*dto.ConversationResponse, error) {
	c, err := uc.loadConversation(ctx, a, id)
	if err != nil {
		return nil, err
	}
	msgs, err := uc.repo.ListMessages(ctx, c.ID, 0)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(c, msgs), nil
}

// DeleteConversation borra una conversación propia y sus mensajes.
func (uc *AIUseCase) DeleteConversation(ctx context.Context, a Actor, id string) error {
	ok, err := uc.repo.DeleteConversation(ctx, a.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// SendMessage guarda el mensaje del usuario, consulta al LLM con los últimos mensajes
// y guarda la respuesta. Si el LLM falla el mensaje del usuario queda guardado.
func (uc *AIUseCase) SendMessage(ctx context.Context, a Actor, conversationID string, in dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	conv, err := uc.loadConversation(ctx, a, conversationID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.Invalid("content", "mensaje vacío")
	}
	llm, cfg, err := uc.provider(ctx, a.CompanyID)
	if err != nil {
		return nil, err
	}

	userMsg := &entity.AIMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           entity.MessageUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.AddMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	if conv.Title == "" {
		conv.Title = truncateRunes(content, titleRunes)
		conv.UpdatedAt = userMsg.CreatedAt
		if err := uc.repo.TouchConversation(ctx, conv); err != nil {
			return nil, err
		}
	}

	history, err := uc.repo.ListMessages(ctx, conv.ID, historyWindow)
	if err != nil {
		return nil, err
	}
	history = trimToUserTurn(history)
	req := ports.ChatRequest{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		Messages:     make([]ports.ChatMessage, 0, len(history)),
	}
	for _, m := range history {
		req.Messages = append(req.Messages, ports.ChatMessage{Role: m.Role, Content: m.Content})
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	reply, err := llm.Chat(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrAITimeout
		}
		return nil, domain.Upstream("agente IA", err)
	}

	botMsg := &entity.AIMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           entity.MessageAssistant,
		Content:        reply,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.AddMessage(ctx, botMsg); err != nil {
		return nil, err
	}
	conv.UpdatedAt = botMsg.CreatedAt
	if err := uc.repo.TouchConversation(ctx, conv); err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{
		UserMessage:      toAIMessageResponse(userMsg),
		AssistantMessage: toAIMessageResponse(botMsg),
	}, nil
}

// provider resuelve el adaptador LLM con la clave de la empresa o, si no tiene, la del servidor.
// Una empresa sin configuración guardada usa Anthropic con la clave del servidor.
func (uc *AIUseCase) provider(ctx context.Context, companyID string) (ports.LLMService, *entity.AIConfiguration, error) {
	cfg, err := uc.repo.GetConfig(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		cfg = defaultAIConfig(companyID)
		cfg.IsActive = true
	}
	if !cfg.IsActive {
		return nil, nil, domain.ErrNotConfigured
	}
	apiKey := ""
	if cfg.APIKeyEnc != "" {
		if apiKey, err = uc.box.Open(cfg.APIKeyEnc); err != nil {
			return nil, nil, fmt.Errorf("descifrar API key: %w", err)
		}
	}
	llm, err := uc.llms.For(cfg.Provider, apiKey)
	if err != nil {
		return nil, nil, err
	}
	return llm, cfg, nil
}

func (uc *AIUseCase) loadConversation(ctx context.Context, a Actor, id string) (*entity.AIConversation, error) {
	c, err := uc.repo.GetConversation(ctx, a.UserID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func defaultAIConfig(companyID string) *entity.AIConfiguration {
	return &entity.AIConfiguration{CompanyID: companyID, Provider: entity.ProviderAnthropic, Temperature: 0.7, MaxTokens: defaultMaxToken}
}

// trimToUserTurn descarta los mensajes iniciales hasta el primer turno del usuario;
// los proveedores exigen que la conversación empiece por él.
func trimToUserTurn(msgs []*entity.AIMessage) []*entity.AIMessage {
	for i, m := range msgs {
		if m.Role == entity.MessageUser {
			return msgs[i:]
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

func toAIConfigResponse(c *entity.AIConfiguration) *dto.AIConfigResponse {
	return &dto.AIConfigResponse{
		Provider:     c.Provider,
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
		HasAPIKey:    c.APIKeyEnc != "",
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
		IsActive:     c.IsActive,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toConversationResponse(c *entity.AIConversation, msgs []*entity.AIMessage) *dto.ConversationResponse {
	out := &dto.ConversationResponse{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toAIMessageResponse(m))
	}
	return out
}

func toAIMessageResponse(m *entity.AIMessage) dto.AIMessageResponse {
	return dto.AIMessageResponse{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}
