// Package executor realizes syntax trees as operating system processes.
//
// Sequences and background jobs are walked left to right. Pipelines are
// started stage by stage with a sliding window of two pipes, so a pipeline of
// N commands uses exactly N-1 pipes and the shell never holds more than two
// at once. Built-in commands run inside the shell process.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/afero"
	"github.com/treesh/treesh/commands"
	"github.com/treesh/treesh/core/ast"
	"github.com/treesh/treesh/core/logger"
)

// newPipe is replaced in tests to observe pipe creation.
var newPipe = os.Pipe

// Executor runs syntax trees.
type Executor struct {
	// Name prefixes diagnostics.
	Name string

	// Standard streams of the shell, inherited by foreground programs.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Fs is searched for programs.
	Fs afero.Fs
	// Path is the program search path. If empty, $PATH is used.
	Path string

	Session commands.Session
	Jobs    *JobTable
	Events  *logger.SessionLogger

	status int
}

// New creates an Executor bound to the process' standard streams and the
// host filesystem.
func New(name string, session commands.Session, events *logger.SessionLogger) *Executor {
	return &Executor{
		Name:    name,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Fs:      afero.NewOsFs(),
		Session: session,
		Jobs:    NewJobTable(os.Stdout, events),
		Events:  events,
	}
}

// Status returns the exit status of the last foreground command.
func (e *Executor) Status() int {
	return e.status
}

// Run executes the tree rooted at node. Failures of individual commands are
// reported on Stderr and don't stop the line. Run returns ErrExit if the exit
// built-in ran, ErrInvalidCommandNode for a malformed tree, or the context's
// error if it was cancelled between commands.
func (e *Executor) Run(ctx context.Context, node ast.Node) error {
	for node != nil {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch n := node.(type) {
		case *ast.Sequence:
			if err := e.runJob(ctx, n.Job, false); err != nil {
				return err
			}
			node = n.Rest
		case *ast.Background:
			if err := e.runJob(ctx, n.Job, true); err != nil {
				return err
			}
			node = n.Rest
		default:
			return e.runJob(ctx, node, false)
		}
	}
	return nil
}

func (e *Executor) runJob(ctx context.Context, node ast.Node, async bool) error {
	switch n := node.(type) {
	case *ast.Pipe:
		return e.runPipeline(ctx, n, async)
	case *ast.CmdPath, *ast.RedirectIn, *ast.RedirectOut:
		proc, err := e.start(node, Params{Async: async})
		if err != nil {
			return err
		}
		if proc != nil {
			e.wait(proc)
		}
		return nil
	default:
		return ErrInvalidCommandNode
	}
}

// stages flattens a right nested pipe chain into its commands.
func stages(p *ast.Pipe) []ast.Node {
	var out []ast.Node
	var node ast.Node = p
	for {
		pipe, ok := node.(*ast.Pipe)
		if !ok {
			return append(out, node)
		}
		out = append(out, pipe.Command)
		node = pipe.Job
	}
}

func (e *Executor) runPipeline(ctx context.Context, p *ast.Pipe, async bool) error {
	var (
		procs    []*process
		prevRead *os.File // read end feeding the stage being started
		runErr   error
	)

	cmds := stages(p)
	for i, stage := range cmds {
		if runErr = ctx.Err(); runErr != nil {
			break
		}

		params := Params{Async: async, PipeRead: prevRead}

		var nextRead *os.File
		if i < len(cmds)-1 {
			r, w, err := newPipe()
			if err != nil {
				e.report(fmt.Errorf("pipe: %w", err))
				break
			}
			nextRead, params.PipeWrite = r, w
		}

		proc, err := e.start(stage, params)

		// The started stage holds its own copies now.
		if prevRead != nil {
			prevRead.Close()
		}
		if params.PipeWrite != nil {
			params.PipeWrite.Close()
		}
		prevRead = nextRead

		if err != nil {
			runErr = err
			break
		}
		if proc != nil {
			procs = append(procs, proc)
		}
	}

	if prevRead != nil {
		prevRead.Close()
	}

	for _, proc := range procs {
		e.wait(proc)
	}
	return runErr
}

// process is a foreground program that must be waited for.
type process struct {
	cmd  *exec.Cmd
	argv []string
}

// start realizes a single command. Programs started in the foreground are
// returned for the caller to wait on; background programs are handed to the
// job table. Only ErrExit and ErrInvalidCommandNode are returned, other
// failures are reported.
func (e *Executor) start(node ast.Node, params Params) (*process, error) {
	switch n := node.(type) {
	case *ast.RedirectIn:
		params.RedirectIn = n.File
		node = n.Command
	case *ast.RedirectOut:
		params.RedirectOut = n.File
		node = n.Command
	}

	cmd, err := Translate(node, params)
	if err != nil {
		return nil, err
	}

	if b, ok := commands.Lookup(cmd.Name()); ok {
		return nil, e.runBuiltin(b, cmd)
	}

	proc, err := e.startProgram(cmd)
	if err != nil {
		e.fail(cmd, err)
		return nil, nil
	}
	return proc, nil
}

func (e *Executor) startProgram(cmd *Command) (*process, error) {
	var toClose []*os.File
	defer func() {
		for _, f := range toClose {
			f.Close()
		}
	}()

	stdin := e.Stdin
	if cmd.Async {
		devNull, err := os.Open(os.DevNull)
		if err != nil {
			return nil, &ProcessError{Op: OpRedirect, Name: cmd.Name(), Err: err}
		}
		toClose = append(toClose, devNull)
		stdin = devNull
	}
	if cmd.RedirectIn != "" {
		in, err := os.Open(cmd.RedirectIn)
		if err != nil {
			return nil, &ProcessError{Op: OpRedirect, Name: cmd.Name(), Err: err}
		}
		toClose = append(toClose, in)
		stdin = in
	}
	if cmd.PipeRead != nil {
		stdin = cmd.PipeRead
	}

	stdout := e.Stdout
	if cmd.RedirectOut != "" {
		out, err := createRedirect(cmd.RedirectOut)
		if err != nil {
			return nil, &ProcessError{Op: OpRedirect, Name: cmd.Name(), Err: err}
		}
		toClose = append(toClose, out)
		stdout = out
	}
	if cmd.PipeWrite != nil {
		stdout = cmd.PipeWrite
	}

	searchPath := e.searchPath()
	path, err := LookPath(e.fs(), searchPath, cmd.Name())
	if err != nil {
		pe := &ProcessError{Op: OpLookup, Name: cmd.Name(), Err: err}
		if errors.Is(err, ErrNotFound) {
			pe.Suggestion = Suggest(e.fs(), searchPath, cmd.Name())
		}
		return nil, pe
	}

	c := &exec.Cmd{
		Path:   path,
		Args:   cmd.Argv,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: e.Stderr,
	}
	if err := c.Start(); err != nil {
		return nil, &ProcessError{Op: OpStart, Name: cmd.Name(), Err: err}
	}

	e.record(&logger.RunCommand{
		Command:             cmd.Argv,
		ResolvedCommandPath: path,
		Async:               cmd.Async,
	})

	if cmd.Async {
		e.Jobs.Add(c.Process, cmd.Argv, func(job *Job) {
			fmt.Fprintf(e.Stdout, "%d started\n", job.Pid)
			e.record(&logger.JobStarted{Pid: job.Pid, Command: job.Argv})
		})
		return nil, nil
	}
	return &process{cmd: c, argv: cmd.Argv}, nil
}

func (e *Executor) runBuiltin(b *commands.Builtin, cmd *Command) error {
	var stdout io.Writer = e.Stdout
	if b.Redirectable {
		if cmd.RedirectOut != "" {
			out, err := createRedirect(cmd.RedirectOut)
			if err != nil {
				e.fail(cmd, &ProcessError{Op: OpRedirect, Name: cmd.Name(), Err: err})
				return nil
			}
			defer out.Close()
			stdout = out
		}
		if cmd.PipeWrite != nil {
			stdout = cmd.PipeWrite
		}
	}

	session := &exitTracker{Session: e.Session}
	e.status = b.Main(&commands.Invocation{
		Args:    cmd.Argv,
		Stdout:  stdout,
		Stderr:  e.Stderr,
		Session: session,
	})
	e.record(&logger.Builtin{Command: cmd.Argv, Status: e.status})

	if session.exited {
		return ErrExit
	}
	return nil
}

func (e *Executor) wait(proc *process) {
	err := proc.cmd.Wait()
	e.status = exitStatus(proc.cmd.ProcessState)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		e.report(fmt.Errorf("%s: %w", proc.argv[0], err))
	}
}

func (e *Executor) fail(cmd *Command, err error) {
	var pe *ProcessError
	if errors.As(err, &pe) {
		e.status = pe.status()
		if pe.Op == OpLookup {
			e.record(&logger.UnknownCommand{Command: cmd.Argv, ErrorMessage: pe.Error()})
		}
	} else {
		e.status = 1
	}
	e.report(err)
}

func (e *Executor) report(err error) {
	if e.Name != "" {
		fmt.Fprintf(e.Stderr, "%s: %v\n", e.Name, err)
		return
	}
	fmt.Fprintln(e.Stderr, err)
}

func (e *Executor) record(event logger.LogType) {
	if e.Events != nil {
		e.Events.Record(event)
	}
}

func (e *Executor) searchPath() string {
	if e.Path != "" {
		return e.Path
	}
	return os.Getenv("PATH")
}

func (e *Executor) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

func createRedirect(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return 1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// exitTracker notes whether a built-in asked the shell to exit.
type exitTracker struct {
	commands.Session
	exited bool
}

func (t *exitTracker) Exit(status int) {
	t.exited = true
	if t.Session != nil {
		t.Session.Exit(status)
	}
}

func (t *exitTracker) Home() string {
	if t.Session == nil {
		home, _ := os.UserHomeDir()
		return home
	}
	return t.Session.Home()
}

func (t *exitTracker) SetPrompt(prompt string) {
	if t.Session != nil {
		t.Session.SetPrompt(prompt)
	}
}

func (t *exitTracker) LogInvalidInvocation(args []string, err error) {
	if t.Session != nil {
		t.Session.LogInvalidInvocation(args, err)
	}
}
