package repository

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// AIRepository configuración, conversaciones y mensajes del agente IA.
type AIRepository interface {
	GetConfig(ctx context.Context, companyID string) (*entity.AIConfiguration, error)
	UpsertConfig(ctx context.Context, cfg *entity.AIConfiguration) error

	CreateConversation(ctx context.Context, c *entity.AIConversation) error
	GetConversation(ctx context.Context, userID, id string) (*entity.AIConversation, error)
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.AIConversation, error)
	TouchConversation(ctx context.Context, c *entity.AIConversation) error
	DeleteConversation(ctx context.Context, userID, id string) (bool, error)

	AddMessage(ctx context.Context, m *entity.AIMessage) error
	// ListMessages devuelve los últimos limit mensajes en orden cronológico (limit <= 0 = todos).
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.AIMessage, error)
}
