// Package cache guarda en Redis las decisiones de permisos por módulo.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

var _ ports.PermissionCache = (*PermissionCache)(nil)

const scanBatch = 200

// PermissionCache claves perm:<company>:<user>:<module>:<action> con TTL.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewPermissionCache construye la caché sobre un cliente ya conectado.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PermissionCache{client: client, ttl: ttl}
}

// Get devuelve found=false en un miss.
func (c *PermissionCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (c *PermissionCache) Set(ctx context.Context, key, decision string) error {
	return c.client.Set(ctx, key, decision, c.ttl).Err()
}

// InvalidateCompany borra todas las decisiones de la empresa.
func (c *PermissionCache) InvalidateCompany(ctx context.Context, companyID string) error {
	return c.deletePattern(ctx, companyPattern(companyID))
}

// InvalidateUser borra las decisiones de un usuario de la empresa.
func (c *PermissionCache) InvalidateUser(ctx context.Context, companyID, userID string) error {
	return c.deletePattern(ctx, userPattern(companyID, userID))
}

// InvalidateModule borra las decisiones de un módulo en todas las empresas.
func (c *PermissionCache) InvalidateModule(ctx context.Context, slug string) error {
	return c.deletePattern(ctx, modulePattern(slug))
}

// deletePattern usa SCAN en lotes; KEYS bloquearía Redis con muchas claves.
func (c *PermissionCache) deletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func companyPattern(companyID string) string {
	return fmt.Sprintf("perm:%s:*", companyID)
}

func userPattern(companyID, userID string) string {
	return fmt.Sprintf("perm:%s:%s:*", companyID, userID)
}

func modulePattern(slug string) string {
	return fmt.Sprintf("perm:*:*:%s:*", slug)
}
