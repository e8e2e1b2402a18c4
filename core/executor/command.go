package executor

import (
	"os"

	"github.com/treesh/treesh/core/ast"
)

// Params are the execution parameters of a single command.
type Params struct {
	// Async commands are started without waiting for them to finish.
	Async bool

	// PipeRead and PipeWrite connect the command to its pipeline neighbours.
	PipeRead  *os.File
	PipeWrite *os.File

	// RedirectIn and RedirectOut are file paths, empty if unused.
	RedirectIn  string
	RedirectOut string
}

// Command is a simple command ready to be realized as a process.
type Command struct {
	Argv []string
	Params
}

// Translate builds a Command from a simple command node. The argument vector
// is copied so the Command doesn't depend on the tree.
func Translate(node ast.Node, params Params) (*Command, error) {
	cmdPath, ok := node.(*ast.CmdPath)
	if !ok || cmdPath == nil {
		return nil, ErrInvalidCommandNode
	}

	return &Command{
		Argv:   cmdPath.Argv(),
		Params: params,
	}, nil
}

// Name is the program name as typed.
func (c *Command) Name() string {
	return c.Argv[0]
}
