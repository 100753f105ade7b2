package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("CORS_ORIGIN", "")
	t.Setenv("UPSTREAM_TIMEOUT", "")
	t.Setenv("CHAT_PROVIDER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fitly", cfg.DBName)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, ChatOpenAI, cfg.ChatProvider)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("mongo needs a secret", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("UPSTREAM_TIMEOUT", "soon")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown chat provider", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("CHAT_PROVIDER", "llama")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
