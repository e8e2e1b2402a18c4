package lexer

import "fmt"

// Kind classifies an input character or a produced token.
type Kind int

const (
	// Text is a word: a command path, an argument or a redirect target.
	Text Kind = iota
	Pipe
	Ampersand
	Semicolon
	Less
	Greater
	Quote
	DoubleQuote
	Whitespace
	Escape
	Newline
	// End terminates every token sequence.
	End
)

var kindNames = map[Kind]string{
	Text:        "TEXT",
	Pipe:        "PIPE",
	Ampersand:   "AMPERSAND",
	Semicolon:   "SEMICOLON",
	Less:        "LESS",
	Greater:     "GREATER",
	Quote:       "QUOTE",
	DoubleQuote: "DQUOTE",
	Whitespace:  "WHITESPACE",
	Escape:      "ESCAPE",
	Newline:     "NEWLINE",
	End:         "END",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name so token dumps stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is a single lexical unit of an input line.
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

func (t Token) String() string {
	if t.Kind == End {
		return "<end>"
	}
	return t.Text
}

// classify returns the grammatical meaning of a single input byte.
func classify(c byte) Kind {
	switch c {
	case '|':
		return Pipe
	case '&':
		return Ampersand
	case ';':
		return Semicolon
	case '<':
		return Less
	case '>':
		return Greater
	case '\'':
		return Quote
	case '"':
		return DoubleQuote
	case ' ', '\t':
		return Whitespace
	case '\\':
		return Escape
	case '\n', '\r':
		return Newline
	default:
		return Text
	}
}
