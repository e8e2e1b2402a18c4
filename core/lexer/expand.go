package lexer

import (
	"strings"

	"github.com/spf13/afero"
)

// expand replaces every Text token with its wildcard matches, or with its
// quote-stripped text when nothing matches, and appends the End marker.
func (l *Lexer) expand(tokens []Token) ([]Token, int) {
	out := make([]Token, 0, len(tokens)+1)
	count := 0

	for _, tok := range tokens {
		if tok.Kind != Text {
			out = append(out, tok)
			continue
		}

		if matches := l.glob(tok.Text); len(matches) > 0 {
			for _, match := range matches {
				out = append(out, Token{Kind: Text, Text: match})
			}
			count += len(matches)
			continue
		}

		out = append(out, Token{Kind: Text, Text: Strip(tok.Text)})
		count++
	}

	out = append(out, Token{Kind: End})
	return out, count
}

// glob returns the paths matching pattern, or nil if there are none or the
// pattern is malformed.
func (l *Lexer) glob(pattern string) []string {
	if l.Fs == nil {
		return nil
	}

	matches, err := afero.Glob(l.Fs, l.expandTilde(pattern))
	if err != nil {
		return nil
	}
	return matches
}

func (l *Lexer) expandTilde(pattern string) string {
	if l.Home == "" || !strings.HasPrefix(pattern, "~") {
		return pattern
	}
	if len(pattern) > 1 && pattern[1] != '/' {
		// ~user is not supported.
		return pattern
	}
	return l.Home + pattern[1:]
}

// Strip removes paired quote characters from s. Characters between a pair
// are kept verbatim, including quotes of the other kind. Outside quotes a
// backslash escape pair collapses to the escaped character. An unterminated
// quote is dropped and the remainder kept.
func Strip(s string) string {
	if len(s) <= 1 {
		return s
	}

	var (
		out  strings.Builder
		open byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case open == 0 && (c == '\'' || c == '"'):
			open = c
		case open != 0 && c == open:
			open = 0
		case open == 0 && c == '\\' && i+1 < len(s):
			i++
			out.WriteByte(s[i])
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
