package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treesh/treesh/commands"
	"github.com/treesh/treesh/core/config"
	"github.com/treesh/treesh/core/executor"
	"github.com/treesh/treesh/core/logger"
)

type testShell struct {
	*Shell

	stdout string
	stderr string
	events *bytes.Buffer
}

func newTestShell(t *testing.T, cfg *config.Configuration) *testShell {
	t.Helper()

	dir := t.TempDir()
	chdir(t, dir)

	if cfg == nil {
		cfg = config.Default()
		cfg.Color = commands.ColorNever
	}

	ts := &testShell{
		stdout: filepath.Join(t.TempDir(), "stdout"),
		stderr: filepath.Join(t.TempDir(), "stderr"),
		events: &bytes.Buffer{},
	}

	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	stdout, err := os.Create(ts.stdout)
	require.NoError(t, err)
	stderr, err := os.Create(ts.stderr)
	require.NoError(t, err)
	t.Cleanup(func() {
		stdin.Close()
		stdout.Close()
		stderr.Close()
	})

	ts.Shell = NewShell(cfg, logger.NewJsonLinesLogRecorder(ts.events).NewSession())
	ts.Stdin, ts.Stdout, ts.Stderr = stdin, stdout, stderr
	ts.Executor.Stdin, ts.Executor.Stdout, ts.Executor.Stderr = stdin, stdout, stderr
	ts.Executor.Jobs.Out = stdout
	return ts
}

func (ts *testShell) output(t *testing.T) (string, string) {
	t.Helper()

	stdout, err := os.ReadFile(ts.stdout)
	require.NoError(t, err)
	stderr, err := os.ReadFile(ts.stderr)
	require.NoError(t, err)
	return string(stdout), string(stderr)
}

func TestShell_Prompt(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.User = "alice"
	ts.Hostname = "box"

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv("HOME", wd)
	require.NoError(t, os.Mkdir("sub", 0755))

	marker := "$"
	if os.Getuid() == 0 {
		marker = "#"
	}

	ts.SetPrompt(`\u@\h:\w\$ `)
	assert.Equal(t, "alice@box:~"+marker+" ", ts.Prompt())

	chdir(t, filepath.Join(wd, "sub"))
	assert.Equal(t, "alice@box:~/sub"+marker+" ", ts.Prompt())

	ts.SetPrompt("")
	assert.Equal(t, DefaultPrompt, ts.Prompt())
}

func TestShell_RunCommand(t *testing.T) {
	ts := newTestShell(t, nil)
	ctx := context.Background()

	require.NoError(t, ts.RunCommand(ctx, "echo hello"))
	require.NoError(t, ts.RunCommand(ctx, ""))
	require.NoError(t, ts.RunCommand(ctx, "   "))
	require.NoError(t, ts.RunCommand(ctx, "|"))

	stdout, stderr := ts.output(t)
	assert.Equal(t, "hello\n", stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, 0, ts.LastStatus())
}

func TestShell_syntaxError(t *testing.T) {
	ts := newTestShell(t, nil)

	require.NoError(t, ts.RunCommand(context.Background(), "echo a |"))

	stdout, stderr := ts.output(t)
	assert.Empty(t, stdout)
	assert.Equal(t, "treesh: syntax error near: |\n", stderr)
	assert.Equal(t, 2, ts.LastStatus())
	assert.Contains(t, ts.events.String(), `"syntax_error":{"line":"echo a |","near":"|"}`)
}

func TestShell_exit(t *testing.T) {
	ts := newTestShell(t, nil)

	err := ts.RunCommand(context.Background(), "exit 4 ; echo never")
	assert.ErrorIs(t, err, executor.ErrExit)
	assert.True(t, ts.Done())
	assert.Equal(t, 4, ts.status())

	stdout, _ := ts.output(t)
	assert.Empty(t, stdout)
}

func TestShell_RunString(t *testing.T) {
	ts := newTestShell(t, nil)

	assert.Equal(t, 1, ts.RunString(context.Background(), "echo x ; false"))
	assert.Equal(t, 0, ts.RunString(context.Background(), "true"))
	assert.Equal(t, 127, ts.RunString(context.Background(), "no-such-command-here"))
}

func TestShell_RunLines(t *testing.T) {
	ts := newTestShell(t, nil)

	status := ts.RunLines(context.Background(), strings.NewReader("echo one\n\nexit 5\necho never\n"))
	assert.Equal(t, 5, status)

	stdout, _ := ts.output(t)
	assert.Equal(t, "one\n", stdout)
}

func TestShell_builtins(t *testing.T) {
	ts := newTestShell(t, nil)
	ctx := context.Background()

	require.NoError(t, ts.RunCommand(ctx, `prompt "x> "`))
	assert.Equal(t, "x> ", ts.Prompt())

	require.NoError(t, ts.RunCommand(ctx, "cd --bogus"))
	assert.Contains(t, ts.events.String(), `"invalid_invocation"`)
}

func TestShell_glob(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		ts := newTestShell(t, nil)
		require.NoError(t, os.WriteFile("a.txt", nil, 0644))

		require.NoError(t, ts.RunCommand(context.Background(), "echo *.txt"))
		stdout, _ := ts.output(t)
		assert.Equal(t, "a.txt\n", stdout)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Color = commands.ColorNever
		cfg.Glob = false

		ts := newTestShell(t, cfg)
		require.NoError(t, os.WriteFile("a.txt", nil, 0644))

		require.NoError(t, ts.RunCommand(context.Background(), "echo *.txt"))
		stdout, _ := ts.output(t)
		assert.Equal(t, "*.txt\n", stdout)
	})
}

func TestShell_Reload(t *testing.T) {
	ts := newTestShell(t, nil)
	ts.SetPrompt("old ")

	cfg := config.Default()
	cfg.Prompt = "new "
	cfg.Color = commands.ColorNever
	ts.Reload(cfg)

	// Applied before the next prompt only.
	assert.Equal(t, "old ", ts.Prompt())
	ts.applyPending()
	assert.Equal(t, "new ", ts.Prompt())
}

func TestShell_ReloadKeepsPrompt(t *testing.T) {
	ts := newTestShell(t, nil)
	require.NoError(t, ts.RunCommand(context.Background(), `prompt "mine> "`))

	// Same configured prompt, different color setting.
	cfg := config.Default()
	cfg.Color = commands.ColorAlways
	ts.Reload(cfg)
	ts.applyPending()
	assert.Contains(t, ts.Prompt(), "mine> ")

	cfg = config.Default()
	cfg.Prompt = "changed> "
	cfg.Color = commands.ColorNever
	ts.Reload(cfg)
	ts.applyPending()
	assert.Equal(t, "changed> ", ts.Prompt())
}

func TestCompleter(t *testing.T) {
	c := completer()
	require.Len(t, c.GetChildren(), len(commands.BuiltinNames()))

	for _, child := range c.GetChildren() {
		if strings.TrimSpace(string(child.GetName())) == "help" {
			assert.Len(t, child.GetChildren(), len(commands.BuiltinNames()))
		}
	}
}
