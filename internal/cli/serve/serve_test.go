package serve

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/app"
	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/storage"
	clitest "github.com/furkanakkurt/taskmanager/internal/testutil/cli"
)

func TestServeShutsDownWithContext(t *testing.T) {
	testApp, _ := clitest.SetupCLITest(t)
	testApp.Config().HTTP.JWTSecret = "secret"

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	res := clitest.ExecuteCLICommandContext(t, ctx, testApp, ServeCmd(), []string{"--address", "127.0.0.1:0"}, nil)
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "Serving on 127.0.0.1:0")
	assert.True(t, testApp.Sweeper.Running())
}

func TestServeRequiresSecret(t *testing.T) {
	testApp, _ := clitest.SetupCLITest(t)

	res := clitest.ExecuteCLICommand(t, testApp, ServeCmd(), []string{"--no-sweeper"})
	assert.Equal(t, cli.ExitError, res.ExitCode())
	assert.Contains(t, res.Stderr, "jwt_secret")
	assert.False(t, testApp.Sweeper.Running())
}

func TestDepsServeLocalFiles(t *testing.T) {
	withFake, _ := clitest.SetupCLITest(t)
	assert.Nil(t, Deps(withFake).Files)

	local, err := storage.NewLocalStore(storage.LocalConfig{BasePath: t.TempDir(), SigningKey: "k"})
	require.NoError(t, err)
	withLocal, _ := clitest.SetupCLITest(t, app.WithBlobStore(local))
	deps := Deps(withLocal)
	assert.NotNil(t, deps.Files)
	assert.Nil(t, deps.Subscriber)
}

func TestDaemonCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TASKMANAGER_HOME", t.TempDir())

	dir, err := os.MkdirTemp("", "tm")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socket := filepath.Join(dir, "events.sock")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd := DaemonCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--socket", socket})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	require.NoError(t, cmd.ExecuteContext(cli.WithConfigPath(ctx, filepath.Join(dir, "missing.yaml"))))
}
