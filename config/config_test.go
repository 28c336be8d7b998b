package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "postgres")
	t.Setenv("PG_PASS", "postgres")
	t.Setenv("PG_DB_NAME", "ytchatbot")
	t.Setenv("GOOGLE_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3005", cfg.ServerAddr)
	assert.Equal(t, 5432, cfg.PGPort)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.ChatModel)
	assert.Equal(t, 1200, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
}

func TestLoadFailsFastNamingMissingVars(t *testing.T) {
	setRequired(t)
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("PG_PASS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.Contains(t, err.Error(), "PG_PASS")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("RETRIEVE_TOP_K", "3")
	t.Setenv("SERVER_ADDR", ":8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoadRejectsBadInteger(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_SIZE")
}

func TestPostgresDSN(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=ytchatbot sslmode=disable", cfg.PostgresDSN())
}
