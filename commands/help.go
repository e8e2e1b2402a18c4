package commands

import (
	"fmt"
	"text/tabwriter"
)

// Help lists the built-ins, or shows the usage of one of them.
func Help(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "help [name]",
		Short: "Display information about built-in commands.",
	}

	var printer ColorPrinter
	printer.Init(cmd.Flags(), inv.Stdout)

	return cmd.Run(inv, func() int {
		args := cmd.Flags().Args()
		if len(args) > 0 {
			b, ok := Lookup(args[0])
			if !ok {
				fmt.Fprintf(inv.Stderr, "help: no help topics match %q\n", args[0])
				return 1
			}

			sub := *inv
			sub.Args = []string{b.Name, "--help"}
			return b.Main(&sub)
		}

		fmt.Fprintln(inv.Stdout, "These shell commands are defined internally. Type `help name' to find out more about the command `name'.")
		fmt.Fprintln(inv.Stdout)

		tw := tabwriter.NewWriter(inv.Stdout, 0, 8, 2, ' ', 0)
		for _, b := range ListBuiltins() {
			fmt.Fprintf(tw, "  %s\t%s\n", printer.Sprintf(ColorBoldCyan, "%s", b.Name), b.Short)
		}
		tw.Flush()
		return 0
	})
}

var _ BuiltinFunc = Help

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "help",
		Short: "List the built-in commands.",
		Main:  Help,
	})
}
