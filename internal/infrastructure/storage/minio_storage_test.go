package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

// La firma de URLs es local: no necesita servidor.
func TestPresignedURL_SinServidor(t *testing.T) {
	s, err := NewMinioStorage(config.MinIOConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "client-icons",
	})
	require.NoError(t, err)

	url, err := s.PresignedURL(context.Background(), "c1/icon.png", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/client-icons/c1/icon.png?"), url)
	assert.Contains(t, url, "X-Amz-Expires=600")
}

func TestNewMinioStorage_EndpointInvalido(t *testing.T) {
	_, err := NewMinioStorage(config.MinIOConfig{Endpoint: "http://localhost:9000"})
	assert.Error(t, err)
}
