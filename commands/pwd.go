package commands

import (
	"fmt"
	"os"
)

// Pwd prints the shell's working directory.
func Pwd(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(inv, func() int {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(inv.Stderr, "pwd: %v\n", err)
			return 1
		}

		fmt.Fprintln(inv.Stdout, wd)
		return 0
	})
}

var _ BuiltinFunc = Pwd

func init() {
	mustAddBuiltin(&Builtin{
		Name:         "pwd",
		Short:        "Print the current working directory.",
		Redirectable: true,
		Main:         Pwd,
	})
}
