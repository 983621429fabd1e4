package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x01}, 32))
}

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("CHATCRAFT_JWT_SECRET", "unit-secret")
	t.Setenv("CHATCRAFT_AES_KEY", validKey())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.PersistTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "unit-secret", cfg.JWTSecret)

	key, err := cfg.AESKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CHATCRAFT_JWT_SECRET", "")
	t.Setenv("CHATCRAFT_AES_KEY", validKey())

	_, err := Load()
	assert.Error(t, err)
}

func TestAESKeyValidation(t *testing.T) {
	c := &Config{AESKey: ""}
	_, err := c.AESKeyBytes()
	assert.Error(t, err)

	c.AESKey = "!!!not base64!!!"
	_, err = c.AESKeyBytes()
	assert.Error(t, err)

	c.AESKey = base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = c.AESKeyBytes()
	assert.Error(t, err)
}
