package setup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/user"
)

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TASKMANAGER_HOME", t.TempDir())
	t.Setenv("TASKMANAGER_USER_ID", "")
	require.NoError(t, os.Unsetenv("TASKMANAGER_USER_ID"))
	return filepath.Join(t.TempDir(), "config.yaml")
}

func run(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	cmd := ConfigCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(cli.WithConfigPath(context.Background(), path))
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := isolate(t)

	out, err := run(t, path, "init", "--user", "alice", "--transport", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, config.TransportNone, cfg.Events.Transport)
	assert.Len(t, cfg.Storage.SigningKey, 64)

	_, err = run(t, path, "init", "--user", "bob")
	assert.Equal(t, cli.ExitUsage, cli.ExitCodeFor(err), "existing file is kept without --force")

	_, err = run(t, path, "init", "--user", "bob", "--force")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.UserID)
}

func TestConfigInitDefaultsToOSUser(t *testing.T) {
	path := isolate(t)
	want := user.CurrentUsername()
	if want == "" {
		t.Skip("no OS account name available")
	}

	_, err := run(t, path, "init")
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, cfg.UserID)
}

func TestConfigInitRejectsBadTransport(t *testing.T) {
	path := isolate(t)

	_, err := run(t, path, "init", "--user", "alice", "--transport", "carrier-pigeon")
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := isolate(t)
	_, err := run(t, path, "init", "--user", "alice")
	require.NoError(t, err)
	t.Setenv("TASKMANAGER_JWT_SECRET", "very-secret")

	out, err := run(t, path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, masked)
}

func TestConfigPath(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	cmd := PathCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	want, err := config.DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(out.String()))
}

