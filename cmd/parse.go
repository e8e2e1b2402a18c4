package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/treesh/treesh/core/ast"
	"github.com/treesh/treesh/core/lexer"
	"github.com/treesh/treesh/core/parser"
	"sigs.k8s.io/yaml"
)

var (
	parseFormat string
	parseNoGlob bool
)

type parseResult struct {
	Tokens []lexer.Token `json:"tokens"`
	Count  int           `json:"count"`
	Tree   *ast.Tree     `json:"tree,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func parseLine(line string) (*parseResult, ast.Node, error) {
	lex := lexer.New()
	if parseNoGlob {
		lex.Fs = nil
	}

	tokens, count, err := lex.Tokenize(line)
	if err != nil {
		return nil, nil, err
	}

	result := &parseResult{Tokens: tokens, Count: count}
	root, err := parser.Parse(tokens)
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		result.Error = syntaxErr.Error()
	case err != nil:
		return nil, nil, err
	default:
		result.Tree = ast.ToTree(root)
	}
	return result, root, nil
}

var parseCmd = &cobra.Command{
	Use:   "parse LINE...",
	Short: "Show the tokens and syntax tree of a command line without running it.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		result, root, err := parseLine(strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch parseFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)

		case "yaml":
			data, err := yaml.Marshal(result)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err

		case "text":
			fmt.Fprintf(out, "tokens (%d words):\n", result.Count)
			for _, tok := range result.Tokens {
				fmt.Fprintf(out, "  %-10s %q\n", tok.Kind, tok.Text)
			}
			if result.Error != "" {
				return errors.New(result.Error)
			}
			fmt.Fprintln(out, "tree:")
			return ast.Fprint(out, root)

		default:
			return fmt.Errorf("unknown format %q, expected text, json or yaml", parseFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseFormat, "format", "text", "output format: text, json or yaml")
	parseCmd.Flags().BoolVar(&parseNoGlob, "no-glob", false, "skip wildcard and tilde expansion")
}
