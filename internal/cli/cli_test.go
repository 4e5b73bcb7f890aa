package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/cardc/internal/app"
	"github.com/specialistvlad/cardc/internal/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want app.Config
	}{
		{
			name: "positional realm with defaults",
			args: []string{"cards"},
			want: app.Config{
				RealmPath: "cards",
				RealmURL:  "http://localhost/",
				LogFormat: "text",
				LogLevel:  "info",
				CacheSize: builder.DefaultCacheSize,
			},
		},
		{
			name: "every flag",
			args: []string{
				"--realm", "realm", "--realm-url", "https://example.com/cards",
				"-o", "dist", "--log-level", "DEBUG", "--log-format", "json", "--cache-size", "5",
			},
			want: app.Config{
				RealmPath: "realm",
				RealmURL:  "https://example.com/cards/",
				OutDir:    "dist",
				LogFormat: "json",
				LogLevel:  "debug",
				CacheSize: 5,
			},
		},
		{
			name: "flag wins over positional argument",
			args: []string{"--realm", "flagged", "positional"},
			want: app.Config{
				RealmPath: "flagged",
				RealmURL:  "http://localhost/",
				LogFormat: "text",
				LogLevel:  "info",
				CacheSize: builder.DefaultCacheSize,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, shouldExit, err := Parse(tc.args, out)

			require.NoError(t, err)
			assert.False(t, shouldExit)
			require.NotNil(t, cfg)
			assert.Equal(t, tc.want, *cfg)
		})
	}
}

func TestParse_ShouldExit(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		wantOutput string
	}{
		{name: "help", args: []string{"-h"}, wantOutput: "Usage:"},
		{name: "no realm", args: nil, wantOutput: "Usage:"},
		{name: "version", args: []string{"--version"}, wantOutput: Version},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, shouldExit, err := Parse(tc.args, out)

			require.NoError(t, err)
			assert.True(t, shouldExit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), tc.wantOutput)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--this-is-not-a-valid-flag"}, wantMsg: "unknown flag"},
		{name: "too many arguments", args: []string{"a", "b"}, wantMsg: "accepts at most 1 arg"},
		{name: "bad log format", args: []string{"cards", "--log-format", "xml"}, wantMsg: "invalid log format"},
		{name: "bad log level", args: []string{"cards", "--log-level", "loud"}, wantMsg: "invalid log level"},
		{name: "relative realm URL", args: []string{"cards", "--realm-url", "cards/"}, wantMsg: "must be absolute"},
		{name: "bad cache size", args: []string{"cards", "--cache-size", "many"}, wantMsg: "invalid argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, shouldExit, err := Parse(tc.args, &bytes.Buffer{})

			assert.Nil(t, cfg)
			assert.False(t, shouldExit)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("CARDC_REALM", "from-env")
	t.Setenv("CARDC_REALM_URL", "https://env.example.com/")
	t.Setenv("CARDC_CACHE_SIZE", "7")

	cfg, _, err := Parse([]string{"--cache-size", "9"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.RealmPath)
	assert.Equal(t, "https://env.example.com/", cfg.RealmURL)
	assert.Equal(t, 9, cfg.CacheSize, "flags win over the environment")
}

func TestParse_ConfigDir(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cardc.yaml"), []byte("realm: from-yaml\nrealm-url: https://yaml.example.com/\nlog-level: error\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CARDC_LOG_FORMAT=json\n"), 0o600))
	// Register the variable for restoring, then clear it so .env can set it.
	t.Setenv("CARDC_LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("CARDC_LOG_FORMAT"))

	// --- Act ---
	cfg, _, err := Parse([]string{"--config-dir", dir, "--log-level", "warn"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.RealmPath)
	assert.Equal(t, "https://yaml.example.com/", cfg.RealmURL)
	assert.Equal(t, "warn", cfg.LogLevel, "flags win over cardc.yaml")
	assert.Equal(t, "json", cfg.LogFormat, ".env feeds the environment")
}

func TestParse_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cardc.yaml"), []byte("realm: [unclosed\n"), 0o600))

	_, _, err := Parse([]string{"--config-dir", dir}, &bytes.Buffer{})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitUsage, exitErr.Code)
	assert.Contains(t, exitErr.Message, "read config")
}
