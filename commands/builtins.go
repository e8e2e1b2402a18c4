package commands

import (
	"fmt"
	"io"
	"sort"
)

// Session is the shell state built-ins read and modify.
type Session interface {
	// Home is the directory cd switches to when given no arguments.
	Home() string
	SetPrompt(prompt string)
	// Exit asks the shell to terminate with the given status once the
	// current built-in returns.
	Exit(status int)
	LogInvalidInvocation(args []string, err error)
}

// Invocation holds everything a built-in sees when it runs.
type Invocation struct {
	Args    []string
	Stdout  io.Writer
	Stderr  io.Writer
	Session Session
}

// LogInvalidInvocation records a usage error for the running built-in.
func (inv *Invocation) LogInvalidInvocation(err error) {
	if inv.Session != nil {
		inv.Session.LogInvalidInvocation(inv.Args, err)
	}
}

// BuiltinFunc is the entry point of a built-in, it returns the exit status.
type BuiltinFunc func(inv *Invocation) int

// Builtin is a command that runs inside the shell process.
type Builtin struct {
	Name  string
	Short string

	// Redirectable built-ins write to their command's effective output (a
	// redirect file or pipe) rather than the shell's own.
	Redirectable bool

	Main BuiltinFunc
}

// AllBuiltins holds every registered built-in keyed by name.
var AllBuiltins = make(map[string]*Builtin)

func mustAddBuiltin(b *Builtin) {
	if _, ok := AllBuiltins[b.Name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", b.Name))
	}
	AllBuiltins[b.Name] = b
}

// Lookup returns the built-in with the given name.
func Lookup(name string) (*Builtin, bool) {
	b, ok := AllBuiltins[name]
	return b, ok
}

// ListBuiltins returns all built-ins sorted by name.
func ListBuiltins() []*Builtin {
	var out []*Builtin
	for _, b := range AllBuiltins {
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// BuiltinNames returns the sorted names of all built-ins.
func BuiltinNames() []string {
	var out []string
	for _, b := range ListBuiltins() {
		out = append(out, b.Name)
	}
	return out
}
