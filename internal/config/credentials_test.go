package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a substitute for testing.T.Chdir (Go 1.24+) so the tests run on
// older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKeyPrimary, "")
	t.Setenv(EnvAPIKeySecondary, "")
	t.Setenv(EnvModel, "")
}

func TestResolveAPIKey_PrimaryWins(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvAPIKeyPrimary, "primary-key")
	t.Setenv(EnvAPIKeySecondary, "secondary-key")

	assert.Equal(t, "primary-key", ResolveAPIKey())
}

func TestResolveAPIKey_SecondaryFallback(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvAPIKeySecondary, "secondary-key")

	assert.Equal(t, "secondary-key", ResolveAPIKey())
}

func TestResolveAPIKey_WhitespaceIgnored(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(EnvAPIKeyPrimary, "   ")
	t.Setenv(EnvAPIKeySecondary, "real-key")

	assert.Equal(t, "real-key", ResolveAPIKey())
}

func TestResolveAPIKey_EnvFileFallback(t *testing.T) {
	clearKeyEnv(t)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env.local", []byte("GEMINI_API_KEY=file-key\n"), 0o644))

	assert.Equal(t, "file-key", ResolveAPIKey())
}

func TestResolveAPIKey_EnvBeatsFile(t *testing.T) {
	clearKeyEnv(t)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=file-key\n"), 0o644))
	t.Setenv(EnvAPIKeyPrimary, "env-key")

	assert.Equal(t, "env-key", ResolveAPIKey())
}

func TestResolveAPIKey_Missing(t *testing.T) {
	clearKeyEnv(t)
	chdir(t, t.TempDir())

	assert.Empty(t, ResolveAPIKey())
}

func TestResolveModel(t *testing.T) {
	clearKeyEnv(t)
	chdir(t, t.TempDir())

	assert.Equal(t, DefaultModel, ResolveModel())

	t.Setenv(EnvModel, "gemini-1.5-pro")
	assert.Equal(t, "gemini-1.5-pro", ResolveModel())
}
