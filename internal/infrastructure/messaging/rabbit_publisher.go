// Package messaging publica eventos de dominio en RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

var _ ports.NotificationPublisher = (*RabbitPublisher)(nil)

// NotificationEvent mensaje publicado por cada notificación creada.
type NotificationEvent struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id,omitempty"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RabbitPublisher exchange direct durable + cola enlazada por routing key.
type RabbitPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitPublisher conecta y declara exchange, cola y binding.
func NewRabbitPublisher(cfg config.AMQPConfig) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp exchange %s: %w", cfg.Exchange, err)
	}
	if cfg.Queue != "" {
		if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("amqp queue %s: %w", cfg.Queue, err)
		}
		if err := ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("amqp bind: %w", err)
		}
	}
	return &RabbitPublisher{conn: conn, channel: ch, exchange: cfg.Exchange, routingKey: cfg.RoutingKey}, nil
}

func newEvent(n *entity.Notification) NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		CompanyID: n.CompanyID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

// PublishNotification publica la notificación como JSON persistente.
func (p *RabbitPublisher) PublishNotification(ctx context.Context, n *entity.Notification) error {
	body, err := json.Marshal(newEvent(n))
	if err != nil {
		return fmt.Errorf("amqp marshal: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Type:         n.Type,
	})
}

func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.channel.Close()
	_ = p.conn.Close()
}
