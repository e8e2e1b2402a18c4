package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of the tree rooted at n, one node per line.
func Fprint(w io.Writer, n Node) error {
	if n == nil {
		_, err := fmt.Fprintln(w, "<nil>")
		return err
	}
	return fprint(w, n, 0)
}

// Sprint returns the dump written by Fprint.
func Sprint(n Node) string {
	var sb strings.Builder
	_ = Fprint(&sb, n)
	return sb.String()
}

func fprint(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	line := indent + n.Role().String()
	if payload, ok := n.Payload(); ok {
		line += fmt.Sprintf(" %q", payload)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	for _, child := range Children(n) {
		if err := fprint(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Tree is a serializable form of a Node, used for machine readable dumps.
type Tree struct {
	Role     string  `json:"role"`
	Payload  *string `json:"payload,omitempty"`
	Children []*Tree `json:"children,omitempty"`
}

// ToTree converts n into its serializable form.
func ToTree(n Node) *Tree {
	if n == nil {
		return nil
	}

	t := &Tree{Role: n.Role().String()}
	if payload, ok := n.Payload(); ok {
		t.Payload = &payload
	}
	for _, child := range Children(n) {
		t.Children = append(t.Children, ToTree(child))
	}
	return t
}
