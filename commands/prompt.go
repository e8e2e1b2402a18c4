package commands

import "fmt"

// Prompt replaces the shell's prompt string.
func Prompt(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "prompt STRING",
		Short: `Set the prompt. \u, \h, \w and \$ expand to the user, host, directory and privilege marker.`,
	}

	return cmd.Run(inv, func() int {
		switch args := cmd.Flags().Args(); len(args) {
		case 0:
			fmt.Fprintln(inv.Stderr, "prompt: please specify the prompt string")
			return 1
		case 1:
			inv.Session.SetPrompt(args[0])
			return 0
		default:
			fmt.Fprintln(inv.Stderr, "prompt: too many arguments")
			return 1
		}
	})
}

var _ BuiltinFunc = Prompt

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "prompt",
		Short: "Set the prompt string.",
		Main:  Prompt,
	})
}
