package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "API_BASE_URL", "API_WITH_CREDENTIALS", "BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("5000")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:5000/", cfg.APIBaseURL)
	assert.True(t, cfg.APIWithCredentials)
	assert.Equal(t, "", cfg.BaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("API_BASE_URL", "https://api.example.test/")
	t.Setenv("API_WITH_CREDENTIALS", "false")
	t.Setenv("BASE_URL", "/registry/")

	cfg, err := Load("8080")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://api.example.test/", cfg.APIBaseURL)
	assert.False(t, cfg.APIWithCredentials)
	assert.Equal(t, "/registry", cfg.BaseURL)
}

func TestLoadRejectsBadAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "ftp://localhost:5000/")

	_, err := Load("8080")
	assert.Error(t, err)
}

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"/", ""},
		{"  ", ""},
		{"app", "/app"},
		{"/app/", "/app"},
		{"/a/b/", "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBasePath(tt.input))
		})
	}
}
