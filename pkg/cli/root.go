package cli

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
	out         io.Writer
}

// ExitError asks the process to exit with Code. Err, when set, is printed
// first.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRootCommand creates the root command
func NewRootCommand(app *App) *Command {
	root := &Command{
		Name:        "auval",
		Description: "auval - Audio component validation",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("auval", flag.ContinueOnError),
		out:         app.Out,
	}

	// Add subcommands
	root.Subcommands["validate"] = newValidateCommand(app)
	root.Subcommands["list"] = newListCommand(app)
	root.Subcommands["exceptions"] = newExceptionsCommand(app)
	root.Subcommands["history"] = newHistoryCommand(app)

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	if arg := strings.ToLower(args[0]); arg == "-h" || arg == "--help" || arg == "help" {
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(c.out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(c.out, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
