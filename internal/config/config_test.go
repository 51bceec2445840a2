package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	o, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", o.BaseURL)
	assert.NotEmpty(t, o.TokenFile)
	assert.Equal(t, 5*time.Second, o.Timeout())
	assert.False(t, o.Debug)
}

func TestParseFlags(t *testing.T) {
	o, err := Parse([]string{"-url", "https://forum.example.com/api/v1", "-timeout", "30", "-debug"})
	require.NoError(t, err)

	assert.Equal(t, "https://forum.example.com/api/v1", o.BaseURL)
	assert.Equal(t, 30*time.Second, o.Timeout())
	assert.True(t, o.Debug)
}

func TestParseConfigFileOverridesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"base_url": "https://file.example.com/api/v1", "timeout_seconds": 10}`), 0o600))

	o, err := Parse([]string{"-c", path, "-url", "https://flag.example.com/api/v1"})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com/api/v1", o.BaseURL)
	assert.Equal(t, 10*time.Second, o.Timeout())
}

func TestParseEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"base_url": "https://file.example.com/api/v1"}`), 0o600))

	t.Setenv("TRIBUNE_CONFIG", path)
	t.Setenv("TRIBUNE_URL", "https://env.example.com/api/v1")
	t.Setenv("TRIBUNE_TOKEN_FILE", filepath.Join(t.TempDir(), "tok.json"))

	o, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/api/v1", o.BaseURL)
	assert.Contains(t, o.TokenFile, "tok.json")
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"timeout zero", []string{"-timeout", "0"}},
		{"timeout too large", []string{"-timeout", "600"}},
		{"url not a url", []string{"-url", "::not-a-url"}},
		{"empty token file", []string{"-token-file", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseMissingConfigFile(t *testing.T) {
	_, err := Parse([]string{"-c", filepath.Join(t.TempDir(), "absent.json")})
	assert.Error(t, err)
}
