package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one console verb.
type Command struct {
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "show <Class> <id>".
	Usage string

	// Short is the one-line description shown in the command listing.
	Short string

	Exec func(ctx context.Context, out io.Writer, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the listing line of the command.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-36s %s", c.Usage, c.Short)
}

// Run parses flags and executes the command. Returns the exit code.
func (c *Command) Run(ctx context.Context, out, errOut io.Writer, args []string) int {
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fprintln(out, "Usage: hbnb", c.Usage)
			fprintln(out)
			fprintln(out, c.Short)
			return 0
		}

		fprintln(errOut, "error:", err)
		return 1
	}

	if err := c.Exec(ctx, out, c.Flags.Args()); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	return 0
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
