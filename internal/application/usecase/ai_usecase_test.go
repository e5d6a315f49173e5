package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

type memAI struct {
	cfg   *entity.AIConfiguration
	convs map[string]*entity.AIConversation
	msgs  []*entity.AIMessage
}

func (r *memAI) GetConfig(context.Context, string) (*entity.AIConfiguration, error) {
	return r.cfg, nil
}
func (r *memAI) UpsertConfig(_ context.Context, c *entity.AIConfiguration) error {
	r.cfg = c
	return nil
}
func (r *memAI) CreateConversation(_ context.Context, c *entity.AIConversation) error {
	cp := *c
	r.convs[c.ID] = &cp
	return nil
}
func (r *memAI) GetConversation(_ context.Context, userID, id string) (*entity.AIConversation, error) {
	if c := r.convs[id]; c != nil && c.UserID == userID {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}
func (r *memAI) ListConversations(context.Context, string, int, int) ([]*entity.AIConversation, error) {
	return nil, nil
}
func (r *memAI) TouchConversation(_ context.Context, c *entity.AIConversation) error {
	cp := *c
	r.convs[c.ID] = &cp
	return nil
}
func (r *memAI) DeleteConversation(_ context.Context, userID, id string) (bool, error) {
	if c := r.convs[id]; c != nil && c.UserID == userID {
		delete(r.convs, id)
		return true, nil
	}
	return false, nil
}
func (r *memAI) AddMessage(_ context.Context, m *entity.AIMessage) error {
	r.msgs = append(r.msgs, m)
	return nil
}
func (r *memAI) ListMessages(_ context.Context, conversationID string, limit int) ([]*entity.AIMessage, error) {
	var out []*entity.AIMessage
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// fakeLLM responde con un texto fijo y guarda la última petición.
type fakeLLM struct {
	reply string
	err   error
	delay time.Duration
	last  ports.ChatRequest
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, req ports.ChatRequest) (string, error) {
	f.last = req
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

// fakeFactory imita a la fábrica real: sin clave propia ni de servidor no hay adaptador.
type fakeFactory struct {
	llm       *fakeLLM
	serverKey string
	provider  string
	apiKey    string
}

func (f *fakeFactory) For(provider, apiKey string) (ports.LLMService, error) {
	f.provider, f.apiKey = provider, apiKey
	if apiKey == "" && f.serverKey == "" {
		return nil, domain.ErrNotConfigured
	}
	return f.llm, nil
}

func newAIFixture(timeout time.Duration) (*AIUseCase, *memAI, *fakeFactory) {
	repo := &memAI{convs: map[string]*entity.AIConversation{}}
	factory := &fakeFactory{llm: &fakeLLM{reply: "Hola, ¿en qué ayudo?"}, serverKey: "srv"}
	return NewAIUseCase(repo, factory, plainBox{}, timeout), repo, factory
}

func TestAIConfig_PorDefectoYClave(t *testing.T) {
	uc, repo, _ := newAIFixture(time.Second)
	ctx := context.Background()

	def, err := uc.GetConfig(ctx, owner)
	require.NoError(t, err)
	assert.False(t, def.IsActive)
	assert.Equal(t, entity.ProviderAnthropic, def.Provider)

	saved, err := uc.SaveConfig(ctx, owner, dto.AIConfigRequest{Provider: entity.ProviderGemini, APIKey: "sk-123", IsActive: true})
	require.NoError(t, err)
	assert.True(t, saved.HasAPIKey)
	assert.Equal(t, "enc:sk-123", repo.cfg.APIKeyEnc)

	saved, err = uc.SaveConfig(ctx, owner, dto.AIConfigRequest{Provider: entity.ProviderGemini, IsActive: true})
	require.NoError(t, err)
	assert.True(t, saved.HasAPIKey, "api_key vacío conserva la clave")

	saved, err = uc.SaveConfig(ctx, owner, dto.AIConfigRequest{Provider: entity.ProviderGemini, ClearAPIKey: true})
	require.NoError(t, err)
	assert.False(t, saved.HasAPIKey)
}

func TestSendMessage_SinConfiguracion(t *testing.T) {
	uc, repo, factory := newAIFixture(time.Second)
	factory.serverKey = ""
	ctx := context.Background()
	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "hola"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	factory.serverKey = "srv"
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderGemini, IsActive: false}
	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "hola"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured, "desactivado por la empresa aunque el servidor tenga clave")
	assert.Zero(t, factory.llm.calls)
}

func TestSendMessage_SinFilaUsaClaveDelServidor(t *testing.T) {
	uc, _, factory := newAIFixture(time.Second)
	ctx := context.Background()
	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "hola"})
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderAnthropic, factory.provider)
	assert.Empty(t, factory.apiKey, "sin clave propia la fábrica usa la del servidor")
	assert.Equal(t, defaultMaxToken, factory.llm.last.MaxTokens)
}

func TestSendMessage_HistorialEmpiezaPorUsuario(t *testing.T) {
	uc, repo, factory := newAIFixture(time.Second)
	ctx := context.Background()
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderAnthropic, IsActive: true}
	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{Title: "larga"})
	require.NoError(t, err)

	// los mensajes se fechan en segundos distintos para que el orden sea estable.
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		repo.msgs = append(repo.msgs,
			&entity.AIMessage{ID: fmt.Sprintf("m%02d", 2*i), ConversationID: conv.ID, Role: entity.MessageUser, Content: "p", CreatedAt: base.Add(time.Duration(2*i) * time.Second)},
			&entity.AIMessage{ID: fmt.Sprintf("m%02d", 2*i+1), ConversationID: conv.ID, Role: entity.MessageAssistant, Content: "r", CreatedAt: base.Add(time.Duration(2*i+1) * time.Second)},
		)
	}

	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "undécima"})
	require.NoError(t, err)

	msgs := factory.llm.last.Messages
	require.NotEmpty(t, msgs)
	assert.LessOrEqual(t, len(msgs), historyWindow)
	assert.Equal(t, entity.MessageUser, msgs[0].Role)
	assert.Equal(t, "undécima", msgs[len(msgs)-1].Content)
	for i := 1; i < len(msgs); i++ {
		assert.NotEqual(t, msgs[i-1].Role, msgs[i].Role, "los turnos alternan")
	}
}

func TestTrimToUserTurn(t *testing.T) {
	a := &entity.AIMessage{Role: entity.MessageAssistant}
	u := &entity.AIMessage{Role: entity.MessageUser}

	assert.Equal(t, []*entity.AIMessage{u, a}, trimToUserTurn([]*entity.AIMessage{a, u, a}))
	assert.Equal(t, []*entity.AIMessage{u}, trimToUserTurn([]*entity.AIMessage{u}))
	assert.Empty(t, trimToUserTurn([]*entity.AIMessage{a}))
}

func TestSendMessage_FlujoCompleto(t *testing.T) {
	uc, repo, factory := newAIFixture(time.Second)
	ctx := context.Background()
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderAnthropic, SystemPrompt: "Eres contable.", APIKeyEnc: "enc:k", IsActive: true, MaxTokens: 512}

	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{})
	require.NoError(t, err)

	long := strings.Repeat("ż", 80)
	resp, err := uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: long})
	require.NoError(t, err)
	assert.Equal(t, entity.MessageUser, resp.UserMessage.Role)
	assert.Equal(t, "Hola, ¿en qué ayudo?", resp.AssistantMessage.Content)

	assert.Equal(t, "k", factory.apiKey)
	assert.Equal(t, "Eres contable.", factory.llm.last.SystemPrompt)
	require.Len(t, factory.llm.last.Messages, 1)
	assert.Equal(t, strings.Repeat("ż", 60), repo.convs[conv.ID].Title)

	full, err := uc.GetConversation(ctx, owner, conv.ID)
	require.NoError(t, err)
	assert.Len(t, full.Messages, 2)

	_, err = uc.GetConversation(ctx, employee, conv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "las conversaciones son privadas")
}

func TestSendMessage_Timeout(t *testing.T) {
	uc, repo, factory := newAIFixture(20 * time.Millisecond)
	ctx := context.Background()
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderAnthropic, IsActive: true}
	factory.llm.delay = time.Second

	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{Title: "t"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "hola"})
	assert.ErrorIs(t, err, ErrAITimeout)
	assert.Len(t, repo.msgs, 1, "el mensaje del usuario queda guardado")
}

func TestSendMessage_ErrorProveedor(t *testing.T) {
	uc, repo, factory := newAIFixture(time.Second)
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderAnthropic, IsActive: true}
	factory.llm.err = errors.New("503")

	conv, err := uc.CreateConversation(context.Background(), owner, dto.CreateConversationRequest{Title: "t"})
	require.NoError(t, err)
	_, err = uc.SendMessage(context.Background(), owner, conv.ID, dto.SendMessageRequest{Content: "hola"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAITimeout)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSendMessage_TituloSeGuardaAunqueFalleElProveedor(t *testing.T) {
	uc, repo, factory := newAIFixture(time.Second)
	ctx := context.Background()
	repo.cfg = &entity.AIConfiguration{CompanyID: companyA, Provider: entity.ProviderAnthropic, IsActive: true}
	factory.llm.err = errors.New("overloaded")

	conv, err := uc.CreateConversation(ctx, owner, dto.CreateConversationRequest{})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, owner, conv.ID, dto.SendMessageRequest{Content: "¿Plazo del VAT-7?"})
	require.Error(t, err)

	assert.Equal(t, "¿Plazo del VAT-7?", repo.convs[conv.ID].Title)
	assert.Len(t, repo.msgs, 1)
}
