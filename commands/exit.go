package commands

import (
	"fmt"
	"strconv"
)

// Exit terminates the shell.
func Exit(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "exit [n]",
		Short: "Exit the shell with status n, or 0 if n is omitted.",
	}

	return cmd.Run(inv, func() int {
		status := 0
		switch args := cmd.Flags().Args(); len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(inv.Stderr, "exit: %s: numeric argument required\n", args[0])
				status = 2
				break
			}
			status = n & 0xff
		default:
			fmt.Fprintln(inv.Stderr, "exit: too many arguments")
			return 1
		}

		inv.Session.Exit(status)
		return status
	})
}

var _ BuiltinFunc = Exit

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "exit",
		Short: "Exit the shell.",
		Main:  Exit,
	})
}
