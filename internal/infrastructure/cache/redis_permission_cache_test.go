package cache

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestPatterns_CubrenLasClavesCorrectas(t *testing.T) {
	key := "perm:c1:u1:clients:read"

	ok, _ := path.Match(companyPattern("c1"), key)
	assert.True(t, ok)
	ok, _ = path.Match(userPattern("c1", "u1"), key)
	assert.True(t, ok)

	ok, _ = path.Match(userPattern("c1", "u2"), key)
	assert.False(t, ok)
	ok, _ = path.Match(companyPattern("c2"), key)
	assert.False(t, ok)

	ok, _ = path.Match(modulePattern("clients"), key)
	assert.True(t, ok)
	ok, _ = path.Match(modulePattern("tasks"), key)
	assert.False(t, ok)
}

func TestNewPermissionCache_TTLPorDefecto(t *testing.T) {
	c := NewPermissionCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	assert.Equal(t, 5*time.Minute, c.ttl)
}

func TestGet_ErrorDeConexion(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	c := NewPermissionCache(client, time.Minute)

	_, found, err := c.Get(context.Background(), "perm:c1:u1:clients:read")
	assert.Error(t, err)
	assert.False(t, found)
}
