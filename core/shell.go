package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"sync"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
	"github.com/treesh/treesh/commands"
	"github.com/treesh/treesh/core/config"
	"github.com/treesh/treesh/core/executor"
	"github.com/treesh/treesh/core/lexer"
	"github.com/treesh/treesh/core/logger"
	"github.com/treesh/treesh/core/parser"
)

const (
	ShellName     = "treesh"
	DefaultPrompt = "treesh % "
)

// Shell is an interactive session: it reads lines, turns them into syntax
// trees and executes them.
type Shell struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// User and Hostname are substituted into the prompt.
	User     string
	Hostname string

	Lexer    *lexer.Lexer
	Executor *executor.Executor
	Events   *logger.SessionLogger

	config *config.Configuration
	color  *commands.ColorPrinter
	prompt string

	lastRet    int
	exitStatus int
	quit       bool

	// pending holds a reloaded configuration until the next prompt.
	mu      sync.Mutex
	pending *config.Configuration
}

var _ commands.Session = (*Shell)(nil)

// NewShell creates a shell attached to the process' standard streams.
func NewShell(cfg *config.Configuration, events *logger.SessionLogger) *Shell {
	if events == nil {
		events = logger.NewNopLogger().Sessionless()
	}

	s := &Shell{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Lexer:  lexer.New(),
		Events: events,
	}

	if u, err := user.Current(); err == nil {
		s.User = u.Username
	}
	s.Hostname, _ = os.Hostname()

	s.Executor = executor.New(ShellName, s, events)
	s.applyConfig(cfg)
	return s
}

func (s *Shell) applyConfig(cfg *config.Configuration) {
	if cfg == nil {
		cfg = config.Default()
	}

	// A prompt set with the prompt built-in survives reloads that leave the
	// configured prompt alone.
	if s.config == nil || s.config.Prompt != cfg.Prompt {
		s.prompt = cfg.Prompt
	}
	s.config = cfg
	s.color = commands.NewColorPrinter(cfg.Color, s.Stdout)
	if cfg.Glob {
		s.Lexer.Fs = afero.NewOsFs()
	} else {
		s.Lexer.Fs = nil
	}
}

// Reload queues cfg to take effect before the next prompt. It is safe to
// call from any goroutine.
func (s *Shell) Reload(cfg *config.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = cfg
}

func (s *Shell) applyPending() {
	s.mu.Lock()
	cfg := s.pending
	s.pending = nil
	s.mu.Unlock()

	if cfg != nil {
		s.applyConfig(cfg)
	}
}

// WatchConfig reloads the configuration at path whenever it changes.
func (s *Shell) WatchConfig(ctx context.Context, path string) error {
	return config.Watch(ctx, path, func(cfg *config.Configuration, err error) {
		if err != nil {
			fmt.Fprintf(s.Stderr, "%s: reloading config: %v\n", ShellName, err)
			return
		}
		s.Reload(cfg)
	})
}

// HandleSignals installs the shell's signal dispositions and starts
// reclaiming background jobs as they terminate. The returned func undoes the
// interrupt handling.
func (s *Shell) HandleSignals(ctx context.Context) (stop func()) {
	executor.IgnoreInteractiveSignals()
	s.Executor.Jobs.Watch(ctx)
	return executor.CatchInterrupt()
}

// Home implements commands.Session.
func (s *Shell) Home() string {
	home, _ := os.UserHomeDir()
	return home
}

// SetPrompt implements commands.Session.
func (s *Shell) SetPrompt(prompt string) {
	s.prompt = prompt
}

// Exit implements commands.Session.
func (s *Shell) Exit(status int) {
	s.quit = true
	s.exitStatus = status
}

// LogInvalidInvocation implements commands.Session.
func (s *Shell) LogInvalidInvocation(args []string, err error) {
	s.Events.Record(&logger.InvalidInvocation{
		Command: args,
		Error:   err.Error(),
	})
}

// Prompt renders the prompt string.
func (s *Shell) Prompt() string {
	prompt := s.prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	prompt = strings.ReplaceAll(prompt, `\u`, s.User)
	prompt = strings.ReplaceAll(prompt, `\h`, s.Hostname)

	pwd, _ := os.Getwd()
	home := s.Home()
	if home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Getuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return s.color.Sprintf(commands.ColorBoldGreen, "%s", prompt)
}

// LastStatus returns the exit status of the last command line.
func (s *Shell) LastStatus() int {
	return s.lastRet
}

// Done reports whether exit was called.
func (s *Shell) Done() bool {
	return s.quit
}

// RunCommand lexes, parses and executes a single line. Diagnostics are
// written to Stderr. It returns executor.ErrExit once exit was called.
func (s *Shell) RunCommand(ctx context.Context, line string) error {
	tokens, count, err := s.Lexer.Tokenize(line)
	switch {
	case errors.Is(err, lexer.ErrEmptyInput):
		return nil
	case err != nil:
		fmt.Fprintf(s.Stderr, "%s: %v\n", ShellName, err)
		return nil
	case count == 0:
		return nil
	}

	tree, err := parser.Parse(tokens)
	if err != nil {
		var syntaxErr *parser.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.Events.Record(&logger.SyntaxError{Line: line, Near: syntaxErr.Near})
		}
		fmt.Fprintf(s.Stderr, "%s: %s\n", ShellName, s.color.Sprintf(commands.ColorBoldRed, "%v", err))
		s.lastRet = 2
		return nil
	}

	err = s.Executor.Run(ctx, tree)
	s.lastRet = s.Executor.Status()
	switch {
	case errors.Is(err, executor.ErrExit):
		return err
	case err != nil:
		fmt.Fprintf(s.Stderr, "%s: %v\n", ShellName, err)
	}
	return nil
}

// status is the process exit code once the shell stops.
func (s *Shell) status() int {
	if s.quit {
		return s.exitStatus
	}
	return s.lastRet
}

// RunString executes a single line non-interactively, as with sh -c.
func (s *Shell) RunString(ctx context.Context, line string) int {
	s.RunCommand(ctx, line)
	return s.status()
}

// RunLines executes each line read from r until exit or end of input.
func (s *Shell) RunLines(ctx context.Context, r io.Reader) int {
	scanner := bufio.NewScanner(r)
	for !s.quit && scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		s.applyPending()
		s.Executor.Jobs.Reap()
		s.RunCommand(ctx, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(s.Stderr, "%s: %v\n", ShellName, err)
		return 1
	}
	return s.status()
}

// completer offers built-in names at the start of a line.
func completer() *readline.PrefixCompleter {
	var topics []readline.PrefixCompleterInterface
	for _, name := range commands.BuiltinNames() {
		topics = append(topics, readline.PcItem(name))
	}

	var items []readline.PrefixCompleterInterface
	for _, name := range commands.BuiltinNames() {
		if name == "help" {
			items = append(items, readline.PcItem(name, topics...))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// RunInteractive reads lines with line editing until exit or end of input.
func (s *Shell) RunInteractive(ctx context.Context) (int, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       s.Prompt(),
		HistoryLimit: s.config.HistoryLimit,
		AutoComplete: completer(),
		Stdin:        readline.NewCancelableStdin(s.Stdin),
		Stdout:       s.Stdout,
		Stderr:       s.Stderr,
	})
	if err != nil {
		return 1, err
	}
	defer rl.Close()

	s.Executor.Jobs.SetOut(rl.Stdout())

	for !s.quit {
		if ctx.Err() != nil {
			break
		}

		s.applyPending()
		s.Executor.Jobs.Reap()
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return s.status(), nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			return 1, err

		case len(line) == 0:
			continue // empty line

		default:
			s.RunCommand(ctx, line)
		}
	}
	return s.status(), nil
}
