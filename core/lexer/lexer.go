// Package lexer turns a raw input line into an ordered sequence of tokens.
//
// Words are split on whitespace and on the operators | & ; < >. Quoting and
// backslash escapes protect operator characters, then each word is subjected
// to tilde and wildcard expansion. Words that match nothing have their quotes
// stripped instead.
package lexer

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ErrEmptyInput is returned when a zero-length line is tokenized. Callers
// treat it as "nothing to do" rather than a failure.
var ErrEmptyInput = errors.New("empty input")

type state int

const (
	stateGeneral state = iota
	stateInQuote
	stateInDoubleQuote
)

// Lexer converts lines into token sequences.
type Lexer struct {
	// Fs is the filesystem wildcards are matched against. If nil, no wildcard
	// or tilde expansion takes place and every word is only quote-stripped.
	Fs afero.Fs

	// Home replaces a leading ~ while globbing. Empty disables tilde expansion.
	Home string
}

// New creates a Lexer that expands wildcards against the host filesystem.
func New() *Lexer {
	home, _ := os.UserHomeDir()
	return &Lexer{
		Fs:   afero.NewOsFs(),
		Home: home,
	}
}

// Tokenize splits line using a Lexer bound to the host filesystem.
func Tokenize(line string) ([]Token, int, error) {
	return New().Tokenize(line)
}

// Tokenize splits line into tokens. The returned slice always ends with an
// End token; count is the number of Text tokens after expansion.
func (l *Lexer) Tokenize(line string) (tokens []Token, count int, err error) {
	if len(line) == 0 {
		return nil, 0, ErrEmptyInput
	}

	tokens, count = l.expand(scan(line))
	return tokens, count, nil
}

// scan performs the character level pass. Text tokens keep their quote
// characters and escape pairs so expansion can still tell them apart from
// plain characters.
func scan(line string) []Token {
	var (
		tokens  []Token
		pending strings.Builder
		st      = stateGeneral
	)

	flush := func() {
		if pending.Len() > 0 {
			tokens = append(tokens, Token{Kind: Text, Text: pending.String()})
			pending.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		kind := classify(c)

		switch st {
		case stateInQuote:
			pending.WriteByte(c)
			if kind == Quote {
				st = stateGeneral
			}
			continue
		case stateInDoubleQuote:
			pending.WriteByte(c)
			if kind == DoubleQuote {
				st = stateGeneral
			}
			continue
		}

		switch kind {
		case Quote:
			st = stateInQuote
			pending.WriteByte(c)
		case DoubleQuote:
			st = stateInDoubleQuote
			pending.WriteByte(c)
		case Escape:
			pending.WriteByte('\\')
			if i+1 < len(line) {
				i++
				pending.WriteByte(line[i])
			} else {
				// A trailing backslash stands for itself.
				pending.WriteByte('\\')
			}
		case Whitespace, Newline:
			flush()
		case Pipe, Ampersand, Semicolon, Less, Greater:
			flush()
			tokens = append(tokens, Token{Kind: kind, Text: string(c)})
		default:
			pending.WriteByte(c)
		}
	}
	flush()

	return tokens
}
