package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var _ repository.AIRepository = (*AIRepo)(nil)

// AIRepo configuración del agente, conversaciones y mensajes.
type AIRepo struct {
	q Querier
}

func NewAIRepository(q Querier) *AIRepo {
	return &AIRepo{q: q}
}

func (r *AIRepo) GetConfig(ctx context.Context, companyID string) (*entity.AIConfiguration, error) {
	var c entity.AIConfiguration
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, provider, model, system_prompt, api_key_enc, temperature, max_tokens, is_active, created_at, updated_at
		FROM ai_configurations WHERE company_id = $1`, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Provider, &c.Model, &c.SystemPrompt, &c.APIKeyEnc, &c.Temperature,
		&c.MaxTokens, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ai config: %w", err)
	}
	return &c, nil
}

func (r *AIRepo) UpsertConfig(ctx context.Context, c *entity.AIConfiguration) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO ai_configurations (id, company_id, provider, model, system_prompt, api_key_enc, temperature,
		                               max_tokens, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (company_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			system_prompt = EXCLUDED.system_prompt,
			api_key_enc = EXCLUDED.api_key_enc,
			temperature = EXCLUDED.temperature,
			max_tokens = EXCLUDED.max_tokens,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		c.ID, c.CompanyID, c.Provider, c.Model, c.SystemPrompt, c.APIKeyEnc, c.Temperature,
		c.MaxTokens, c.IsActive, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	return wrap("upsert ai config", err)
}

func (r *AIRepo) CreateConversation(ctx context.Context, c *entity.AIConversation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ai_conversations (id, company_id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, c.ID, c.CompanyID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt)
	return wrap("insert conversation", err)
}

// GetConversation solo devuelve conversaciones del propio usuario.
func (r *AIRepo) GetConversation(ctx context.Context, userID, id string) (*entity.AIConversation, error) {
	var c entity.AIConversation
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, user_id, title, created_at, updated_at
		FROM ai_conversations WHERE user_id = $1 AND id = $2`, userID, id).Scan(
		&c.ID, &c.CompanyID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

func (r *AIRepo) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.AIConversation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, user_id, title, created_at, updated_at
		FROM ai_conversations WHERE user_id = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	var list []*entity.AIConversation
	for rows.Next() {
		var c entity.AIConversation
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// TouchConversation actualiza título y updated_at.
func (r *AIRepo) TouchConversation(ctx context.Context, c *entity.AIConversation) error {
	_, err := r.q.Exec(ctx, `UPDATE ai_conversations SET title = $2, updated_at = $3 WHERE id = $1`, c.ID, c.Title, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// DeleteConversation los mensajes caen por ON DELETE CASCADE.
func (r *AIRepo) DeleteConversation(ctx context.Context, userID, id string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM ai_conversations WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *AIRepo) AddMessage(ctx context.Context, m *entity.AIMessage) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ai_messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`, m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt)
	return wrap("insert message", err)
}

// ListMessages últimos limit mensajes en orden cronológico; limit <= 0 devuelve todos.
func (r *AIRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.AIMessage, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at FROM (
			SELECT id, conversation_id, role, content, created_at
			FROM ai_messages WHERE conversation_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT CASE WHEN $2::int > 0 THEN $2::int END
		) t ORDER BY created_at, id`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var list []*entity.AIMessage
	for rows.Next() {
		var m entity.AIMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
