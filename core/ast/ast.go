// Package ast defines the syntax tree produced by the parser and consumed by
// the executor.
package ast

import "fmt"

// Role identifies the kind of a node.
type Role int

const (
	RolePipe Role = iota + 1
	RoleBackground
	RoleSequence
	RoleRedirectIn
	RoleRedirectOut
	RoleCmdPath
	RoleArgument
)

var roleNames = map[Role]string{
	RolePipe:        "PIPE",
	RoleBackground:  "BACKGROUND",
	RoleSequence:    "SEQUENCE",
	RoleRedirectIn:  "REDIRECT_IN",
	RoleRedirectOut: "REDIRECT_OUT",
	RoleCmdPath:     "CMDPATH",
	RoleArgument:    "ARGUMENT",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Node is implemented by every tree variant.
type Node interface {
	Role() Role

	// Payload returns the node's text. Whether a variant carries one is fixed:
	// commands, arguments and redirects do, operators don't.
	Payload() (string, bool)
}

// Sequence runs Job to completion before Rest.
type Sequence struct {
	Job  Node
	Rest Node // nil if the line ends with ';'
}

// Background runs Job without waiting, then Rest.
type Background struct {
	Job  Node
	Rest Node // nil if the line ends with '&'
}

// Pipe connects Command's output to the input of Job.
type Pipe struct {
	Command Node
	Job     Node
}

// RedirectIn feeds File to Command's standard input.
type RedirectIn struct {
	File    string
	Command *CmdPath
}

// RedirectOut writes Command's standard output to File.
type RedirectOut struct {
	File    string
	Command *CmdPath
}

// CmdPath is a simple command: a program name and its arguments.
type CmdPath struct {
	Path string
	Args []*Argument
}

// Argument is a single word passed to a command.
type Argument struct {
	Text string
}

func (*Sequence) Role() Role    { return RoleSequence }
func (*Background) Role() Role  { return RoleBackground }
func (*Pipe) Role() Role        { return RolePipe }
func (*RedirectIn) Role() Role  { return RoleRedirectIn }
func (*RedirectOut) Role() Role { return RoleRedirectOut }
func (*CmdPath) Role() Role     { return RoleCmdPath }
func (*Argument) Role() Role    { return RoleArgument }

func (*Sequence) Payload() (string, bool)      { return "", false }
func (*Background) Payload() (string, bool)    { return "", false }
func (*Pipe) Payload() (string, bool)          { return "", false }
func (n *RedirectIn) Payload() (string, bool)  { return n.File, true }
func (n *RedirectOut) Payload() (string, bool) { return n.File, true }
func (n *CmdPath) Payload() (string, bool)     { return n.Path, true }
func (n *Argument) Payload() (string, bool)    { return n.Text, true }

// Argv returns the program name followed by each argument's text.
func (n *CmdPath) Argv() []string {
	argv := make([]string, 0, len(n.Args)+1)
	argv = append(argv, n.Path)
	for _, arg := range n.Args {
		argv = append(argv, arg.Text)
	}
	return argv
}

// Children returns the node's direct descendants in left to right order.
func Children(n Node) []Node {
	var out []Node
	add := func(child Node) {
		if child != nil {
			out = append(out, child)
		}
	}

	switch v := n.(type) {
	case *Sequence:
		add(v.Job)
		add(v.Rest)
	case *Background:
		add(v.Job)
		add(v.Rest)
	case *Pipe:
		add(v.Command)
		add(v.Job)
	case *RedirectIn:
		if v.Command != nil {
			add(v.Command)
		}
	case *RedirectOut:
		if v.Command != nil {
			add(v.Command)
		}
	case *CmdPath:
		for _, arg := range v.Args {
			add(arg)
		}
	}
	return out
}
