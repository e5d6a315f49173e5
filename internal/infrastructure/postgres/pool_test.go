package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/pkg/config"
)

func TestPoolConfigFor_Defaults(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "oficina", SSLMode: "disable"}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, defaultMaxConns, pc.MaxConns)
	assert.EqualValues(t, 2, pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfigFor_DatabaseURLYMaxConns(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL: "postgres://u:p@remote:6543/oficina?sslmode=require&application_name=worker",
		MaxConns:    1,
		ForceIPv4:   true,
	}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, "remote", pc.ConnConfig.Host)
	assert.EqualValues(t, 6543, pc.ConnConfig.Port)
	assert.EqualValues(t, 1, pc.MaxConns)
	assert.EqualValues(t, 1, pc.MinConns)
	assert.Equal(t, "worker", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigFor_DSNInvalido(t *testing.T) {
	_, err := poolConfigFor(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
