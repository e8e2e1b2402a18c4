// Package parser builds a syntax tree from a token sequence.
//
// The grammar is right recursive and parsed by ordered choice: each
// alternative of a nonterminal is tried in turn from the same starting
// position, and the first one that matches wins.
//
//	command_line   := job ';' command_line
//	               |  job ';'
//	               |  job '&' command_line
//	               |  job '&'
//	               |  job
//	job            := command '|' job
//	               |  command
//	command        := simple_command '<' token
//	               |  simple_command '>' token
//	               |  simple_command
//	simple_command := token token_list
//	token_list     := token token_list
//	               |  (empty)
package parser

import (
	"fmt"

	"github.com/treesh/treesh/core/ast"
	"github.com/treesh/treesh/core/lexer"
)

// SyntaxError is returned when a line doesn't match the grammar.
type SyntaxError struct {
	// Near is the text of the token the parser stopped at.
	Near string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error near: %s", e.Near)
}

// Parser holds the cursor over a single token sequence.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over tokens. The tokens are never modified.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is shorthand for New(tokens).Parse().
func Parse(tokens []lexer.Token) (ast.Node, error) {
	return New(tokens).Parse()
}

// Parse consumes the whole token sequence and returns the tree's root.
func (p *Parser) Parse() (ast.Node, error) {
	p.pos = 0

	root := p.commandLine()
	if root == nil {
		return nil, &SyntaxError{Near: p.textAt(0)}
	}

	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind != lexer.End {
		return nil, &SyntaxError{Near: p.textAt(p.pos)}
	}

	return root, nil
}

func (p *Parser) textAt(pos int) string {
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.End}.String()
	}
	return p.tokens[pos].String()
}

// term consumes the next token and reports whether it had the given kind.
// The cursor moves forward either way; callers reset it on a mismatch.
func (p *Parser) term(kind lexer.Kind) (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}

	tok := p.tokens[p.pos]
	p.pos++
	return tok.Text, tok.Kind == kind
}

func (p *Parser) commandLine() ast.Node {
	start := p.pos

	alternatives := []func() ast.Node{
		func() ast.Node { return p.joined(lexer.Semicolon, true) },
		func() ast.Node { return p.joined(lexer.Semicolon, false) },
		func() ast.Node { return p.joined(lexer.Ampersand, true) },
		func() ast.Node { return p.joined(lexer.Ampersand, false) },
		p.job,
	}

	for _, alt := range alternatives {
		p.pos = start
		if node := alt(); node != nil {
			return node
		}
	}

	p.pos = start
	return nil
}

// joined matches a job followed by the separator and, if withRest is set, a
// further command line.
func (p *Parser) joined(sep lexer.Kind, withRest bool) ast.Node {
	job := p.job()
	if job == nil {
		return nil
	}

	if _, ok := p.term(sep); !ok {
		return nil
	}

	var rest ast.Node
	if withRest {
		if rest = p.commandLine(); rest == nil {
			return nil
		}
	}

	if sep == lexer.Ampersand {
		return &ast.Background{Job: job, Rest: rest}
	}
	return &ast.Sequence{Job: job, Rest: rest}
}

func (p *Parser) job() ast.Node {
	start := p.pos

	// command '|' job
	if cmd := p.command(); cmd != nil {
		if _, ok := p.term(lexer.Pipe); ok {
			if rest := p.job(); rest != nil {
				return &ast.Pipe{Command: cmd, Job: rest}
			}
		}
	}

	// command
	p.pos = start
	if cmd := p.command(); cmd != nil {
		return cmd
	}

	p.pos = start
	return nil
}

func (p *Parser) command() ast.Node {
	start := p.pos

	for _, op := range []lexer.Kind{lexer.Less, lexer.Greater} {
		p.pos = start
		if node := p.redirect(op); node != nil {
			return node
		}
	}

	p.pos = start
	if cmd := p.simpleCommand(); cmd != nil {
		return cmd
	}

	p.pos = start
	return nil
}

func (p *Parser) redirect(op lexer.Kind) ast.Node {
	cmd := p.simpleCommand()
	if cmd == nil {
		return nil
	}

	if _, ok := p.term(op); !ok {
		return nil
	}

	file, ok := p.term(lexer.Text)
	if !ok {
		return nil
	}

	if op == lexer.Less {
		return &ast.RedirectIn{File: file, Command: cmd}
	}
	return &ast.RedirectOut{File: file, Command: cmd}
}

func (p *Parser) simpleCommand() *ast.CmdPath {
	path, ok := p.term(lexer.Text)
	if !ok {
		return nil
	}

	return &ast.CmdPath{Path: path, Args: p.tokenList()}
}

// tokenList matches any run of words, including none.
func (p *Parser) tokenList() []*ast.Argument {
	var args []*ast.Argument
	for {
		start := p.pos
		text, ok := p.term(lexer.Text)
		if !ok {
			p.pos = start
			return args
		}
		args = append(args, &ast.Argument{Text: text})
	}
}
