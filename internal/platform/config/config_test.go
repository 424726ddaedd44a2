package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "inheritx/pkg/domain"
)

const owner = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inheritx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
registry:
  owner: "`+owner+`"
  store: postgres
postgres:
  url: postgres://file
`), 0o600))

	t.Setenv("INHERITX_DATABASE_URL", "postgres://env")
	t.Setenv("INHERITX_TX_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, StorePostgres, cfg.Registry.Store)
	assert.Equal(t, "postgres://env", cfg.Postgres.URL)
	assert.Equal(t, 2*time.Second, cfg.Registry.TxTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("INHERITX_JWT_TTL", "forever")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INHERITX_JWT_TTL")
}

func TestValidate(t *testing.T) {
	t.Run("missing owner", func(t *testing.T) {
		cfg := Default()
		require.Error(t, cfg.Validate())
	})

	t.Run("zero owner", func(t *testing.T) {
		cfg := Default()
		cfg.Registry.Owner = "0x0000000000000000000000000000000000000000"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zero address")
	})

	t.Run("unknown store", func(t *testing.T) {
		cfg := Default()
		cfg.Registry.Owner = owner
		cfg.Registry.Store = "etcd"
		require.ErrorContains(t, cfg.Validate(), "unknown store")
	})

	t.Run("redis without url", func(t *testing.T) {
		cfg := Default()
		cfg.Registry.Owner = owner
		cfg.Registry.Store = StoreRedis
		require.ErrorContains(t, cfg.Validate(), "redis.url")
	})

	t.Run("defaults with owner are valid", func(t *testing.T) {
		cfg := Default()
		cfg.Registry.Owner = owner
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.UsesDevSigningKey())
	})
}

func TestResolvedRegistryID(t *testing.T) {
	cfg := Default()
	cfg.Registry.Owner = owner

	derived, err := cfg.ResolvedRegistryID()
	require.NoError(t, err)
	assert.Equal(t, id.RegistryIDForOwner(id.MustParseAddress(owner)), derived)

	cfg.Registry.ID = "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b"
	explicit, err := cfg.ResolvedRegistryID()
	require.NoError(t, err)
	assert.Equal(t, cfg.Registry.ID, explicit.String())
}
