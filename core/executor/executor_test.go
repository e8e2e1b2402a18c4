package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treesh/treesh/core/ast"
	"github.com/treesh/treesh/core/lexer"
	"github.com/treesh/treesh/core/logger"
	"github.com/treesh/treesh/core/parser"
)

type testSession struct {
	exited bool
	status int
	prompt string
}

func (s *testSession) Home() string                                  { return os.TempDir() }
func (s *testSession) SetPrompt(prompt string)                       { s.prompt = prompt }
func (s *testSession) LogInvalidInvocation(args []string, err error) {}

func (s *testSession) Exit(status int) {
	s.exited = true
	s.status = status
}

type harness struct {
	*Executor

	dir     string
	session *testSession
	jobsOut *bytes.Buffer
	events  *bytes.Buffer
	stdout  string
	stderr  string
}

// newHarness creates an executor working in a fresh directory with its output
// captured in files.
func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	chdir(t, dir)

	h := &harness{
		dir:     dir,
		session: &testSession{},
		jobsOut: &bytes.Buffer{},
		events:  &bytes.Buffer{},
		stdout:  filepath.Join(t.TempDir(), "stdout"),
		stderr:  filepath.Join(t.TempDir(), "stderr"),
	}

	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	stdout, err := os.Create(h.stdout)
	require.NoError(t, err)
	stderr, err := os.Create(h.stderr)
	require.NoError(t, err)
	t.Cleanup(func() {
		stdin.Close()
		stdout.Close()
		stderr.Close()
	})

	events := logger.NewJsonLinesLogRecorder(h.events).NewSession()
	h.Executor = New("treesh", h.session, events)
	h.Stdin, h.Stdout, h.Stderr = stdin, stdout, stderr
	h.Jobs = NewJobTable(h.jobsOut, events)
	return h
}

func (h *harness) run(t *testing.T, line string) error {
	t.Helper()

	tokens, _, err := (&lexer.Lexer{}).Tokenize(line)
	require.NoError(t, err)
	tree, err := parser.Parse(tokens)
	require.NoError(t, err)

	return h.Run(context.Background(), tree)
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(out)
}

func (h *harness) reapAll(t *testing.T) []Reclaimed {
	t.Helper()

	var out []Reclaimed
	require.Eventually(t, func() bool {
		out = append(out, h.Jobs.Reap()...)
		return h.Jobs.Len() == 0
	}, 10*time.Second, 10*time.Millisecond)
	return out
}

func countPipes(t *testing.T) *int {
	t.Helper()

	count := 0
	orig := newPipe
	newPipe = func() (*os.File, *os.File, error) {
		count++
		return orig()
	}
	t.Cleanup(func() { newPipe = orig })
	return &count
}

func openFds(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("descriptor table not available:", err)
	}
	return len(entries)
}

func TestRun_simple(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "echo hello world"))
	assert.Equal(t, "hello world\n", readFile(t, h.stdout))
	assert.Equal(t, 0, h.Status())
	assert.Contains(t, h.events.String(), `"run_command"`)
}

func TestRun_sequence(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "echo a ; echo b ; echo c ;"))
	assert.Equal(t, "a\nb\nc\n", readFile(t, h.stdout))
}

func TestRun_status(t *testing.T) {
	cases := map[string]int{
		"true":         0,
		"false":        1,
		"true | false": 1,
		"false | true": 0,
		"false ; true": 0,
	}

	for line, expected := range cases {
		t.Run(line, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run(t, line))
			assert.Equal(t, expected, h.Status())
		})
	}
}

func TestRun_pipeline(t *testing.T) {
	h := newHarness(t)
	pipes := countPipes(t)

	require.NoError(t, h.run(t, "echo hello | cat | cat | tr a-z A-Z"))
	assert.Equal(t, "HELLO\n", readFile(t, h.stdout))
	assert.Equal(t, 3, *pipes)
}

func TestRun_pipelineDescriptorHygiene(t *testing.T) {
	h := newHarness(t)

	// The first run sets up the runtime's poller descriptors.
	require.NoError(t, h.run(t, "echo warm | cat"))

	before := openFds(t)
	require.NoError(t, h.run(t, "echo hello | cat | cat | cat | wc -l"))
	require.NoError(t, h.run(t, "echo x > a.txt | cat < a.txt | wc -c"))
	require.NoError(t, h.run(t, "no-such-command-here | cat"))
	assert.Equal(t, before, openFds(t))
}

func TestRun_pipeOverridesRedirectOut(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "echo hi > side.txt | tr a-z A-Z"))
	assert.Equal(t, "HI\n", readFile(t, h.stdout))

	// The redirect target is still created and truncated.
	assert.Equal(t, "", readFile(t, filepath.Join(h.dir, "side.txt")))
}

func TestRun_pipeOverridesRedirectIn(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile("in.txt", []byte("from file\n"), 0644))

	require.NoError(t, h.run(t, "echo piped | cat < in.txt"))
	assert.Equal(t, "piped\n", readFile(t, h.stdout))
}

func TestRun_redirects(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile("in.txt", []byte("b\na\n"), 0644))
	require.NoError(t, os.WriteFile("out.txt", []byte("old contents that are long\n"), 0644))

	require.NoError(t, h.run(t, "sort < in.txt"))
	assert.Equal(t, "a\nb\n", readFile(t, h.stdout))

	require.NoError(t, h.run(t, "echo new > out.txt"))
	assert.Equal(t, "new\n", readFile(t, "out.txt"))

	info, err := os.Stat("out.txt")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644)&^umask(t), info.Mode().Perm())
}

func umask(t *testing.T) os.FileMode {
	t.Helper()

	old := syscall.Umask(0)
	syscall.Umask(old)
	return os.FileMode(old)
}

func TestRun_redirectFailure(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "echo hi > missing-dir/out.txt ; echo next"))
	assert.Equal(t, "next\n", readFile(t, h.stdout))
	assert.Contains(t, readFile(t, h.stderr), "treesh: echo: open missing-dir/out.txt")

	require.NoError(t, h.run(t, "cat < nope.txt"))
	assert.Contains(t, readFile(t, h.stderr), "treesh: cat: open nope.txt")
	assert.Equal(t, 1, h.Status())
}

func TestRun_notFound(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "no-such-command-here > created.txt ; echo after"))
	assert.Equal(t, "after\n", readFile(t, h.stdout))
	assert.Contains(t, readFile(t, h.stderr), "treesh: no-such-command-here: command not found")
	assert.Contains(t, h.events.String(), `"unknown_command"`)

	_, err := os.Stat("created.txt")
	assert.NoError(t, err)

	require.NoError(t, h.run(t, "no-such-command-here"))
	assert.Equal(t, 127, h.Status())
}

func TestRun_async(t *testing.T) {
	h := newHarness(t)

	start := time.Now()
	require.NoError(t, h.run(t, "sleep 5 & echo foreground"))
	assert.Less(t, int64(time.Since(start)), int64(4*time.Second))

	pids := h.Jobs.Pids()
	require.Len(t, pids, 1)

	out := readFile(t, h.stdout)
	assert.True(t, strings.HasPrefix(out, fmt.Sprintf("%d started\n", pids[0])), out)
	assert.Contains(t, out, "foreground\n")

	// Still running, nothing to collect.
	assert.Empty(t, h.Jobs.Reap())

	require.NoError(t, syscall.Kill(pids[0], syscall.SIGKILL))
	reclaimed := h.reapAll(t)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, pids[0], reclaimed[0].Pid)
	assert.Equal(t, "SIGKILL", reclaimed[0].Signal)
	assert.Contains(t, h.jobsOut.String(), "terminated (signal SIGKILL)\n")
	assert.Contains(t, h.events.String(), `"job_reclaimed"`)
}

func TestRun_asyncReadsNullDevice(t *testing.T) {
	h := newHarness(t)

	// Give cat a terminal-like stdin that never ends; in the background it
	// must read the null device instead.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	h.Stdin = r

	require.NoError(t, h.run(t, "cat &"))
	reclaimed := h.reapAll(t)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, 0, reclaimed[0].ExitCode)
	assert.Empty(t, reclaimed[0].Signal)
}

func TestRun_asyncPipeline(t *testing.T) {
	h := newHarness(t)
	pipes := countPipes(t)

	require.NoError(t, h.run(t, "echo hi | tr a-z A-Z > up.txt &"))
	assert.Equal(t, 1, *pipes)
	assert.Equal(t, 2, h.Jobs.Len())

	reclaimed := h.reapAll(t)
	assert.Len(t, reclaimed, 2)
	assert.Equal(t, "HI\n", readFile(t, "up.txt"))
}

func TestRun_builtins(t *testing.T) {
	t.Run("pwd", func(t *testing.T) {
		h := newHarness(t)
		wd, err := os.Getwd()
		require.NoError(t, err)

		require.NoError(t, h.run(t, "pwd"))
		assert.Equal(t, wd+"\n", readFile(t, h.stdout))
	})

	t.Run("pwd-redirect", func(t *testing.T) {
		h := newHarness(t)
		wd, err := os.Getwd()
		require.NoError(t, err)

		require.NoError(t, h.run(t, "pwd > where.txt"))
		assert.Equal(t, wd+"\n", readFile(t, "where.txt"))
		assert.Empty(t, readFile(t, h.stdout))
	})

	t.Run("pwd-pipe", func(t *testing.T) {
		h := newHarness(t)
		wd, err := os.Getwd()
		require.NoError(t, err)

		require.NoError(t, h.run(t, "pwd | tr a-z A-Z"))
		assert.Equal(t, strings.ToUpper(wd)+"\n", readFile(t, h.stdout))
	})

	t.Run("cd", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, os.Mkdir("sub", 0755))

		require.NoError(t, h.run(t, "cd sub ; pwd"))
		assert.Equal(t, "sub", filepath.Base(strings.TrimSpace(readFile(t, h.stdout))))
	})

	t.Run("cd-ignores-redirect", func(t *testing.T) {
		h := newHarness(t)

		require.NoError(t, h.run(t, "cd . > ignored.txt"))
		_, err := os.Stat("ignored.txt")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("prompt", func(t *testing.T) {
		h := newHarness(t)

		require.NoError(t, h.run(t, `prompt "% "`))
		assert.Equal(t, "% ", h.session.prompt)
		assert.Contains(t, h.events.String(), `"builtin"`)
	})

	t.Run("exit", func(t *testing.T) {
		h := newHarness(t)

		err := h.run(t, "exit 3 ; echo after")
		assert.ErrorIs(t, err, ErrExit)
		assert.True(t, h.session.exited)
		assert.Equal(t, 3, h.session.status)
		assert.Empty(t, readFile(t, h.stdout))
	})
}

func TestRun_invalidNode(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.Run(context.Background(), &ast.Argument{Text: "x"}), ErrInvalidCommandNode)

	require.NoError(t, h.run(t, "echo warm | cat"))
	before := openFds(t)
	err := h.Run(context.Background(), &ast.Pipe{
		Command: cmdPath("echo", "hi"),
		Job:     &ast.Argument{Text: "x"},
	})
	assert.ErrorIs(t, err, ErrInvalidCommandNode)
	assert.Equal(t, before, openFds(t))
}

func TestRun_cancelled(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Run(ctx, cmdPath("echo", "never"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readFile(t, h.stdout))
}
