package commands

import (
	"fmt"
	"os"
)

// Cd changes the shell's working directory.
func Cd(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "cd [dir]",
		Short: "Change the shell working directory, defaulting to the home directory.",
	}

	return cmd.Run(inv, func() int {
		var dir string
		switch args := cmd.Flags().Args(); len(args) {
		case 0:
			dir = inv.Session.Home()
			if dir == "" {
				fmt.Fprintln(inv.Stderr, "cd: HOME not set")
				return 1
			}
		case 1:
			dir = args[0]
		default:
			fmt.Fprintln(inv.Stderr, "cd: too many arguments")
			return 1
		}

		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(inv.Stderr, "cd: %v\n", err)
			return 1
		}
		return 0
	})
}

var _ BuiltinFunc = Cd

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "cd",
		Short: "Change the shell working directory.",
		Main:  Cd,
	})
}
