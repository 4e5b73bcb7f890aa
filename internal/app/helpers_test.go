package app

import (
	"os"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/specialistvlad/cardc/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testRealmPath = "/realm"
	testRealmURL  = "https://example.com/"
	testOutDir    = "/out"
)

// writeRealm writes files, keyed by path below the realm directory, into a
// fresh in-memory file system.
func writeRealm(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRealmPath, 0o755))
	for p, content := range files {
		target := path.Join(testRealmPath, p)
		require.NoError(t, fs.MkdirAll(path.Dir(target), 0o755))
		require.NoError(t, afero.WriteFile(fs, target, []byte(testutil.Unindent(content)), 0o644))
	}
	return fs
}

// setupAppTest creates a new app instance over fs with debug logging into
// the returned buffer.
func setupAppTest(t *testing.T, fs afero.Fs, outDir string) (*App, *testutil.SafeBuffer) {
	t.Helper()

	cfg, err := NewConfig(Config{
		RealmPath: testRealmPath,
		RealmURL:  testRealmURL,
		OutDir:    outDir,
		LogFormat: "text",
		LogLevel:  "debug",
	})
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp := NewApp(logBuffer, cfg, fs)

	t.Cleanup(func() {
		if os.Getenv("CARDC_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
