package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
)

func newExceptionsCommand(app *App) *Command {
	cmd := &Command{
		Name:        "exceptions",
		Description: "Print the effective exception table",
		Flags:       flag.NewFlagSet("exceptions", flag.ContinueOnError),
		out:         app.Out,
	}
	cmd.Run = func(args []string) error {
		return runExceptions(app, args)
	}
	return cmd
}

func runExceptions(app *App, args []string) error {
	flags := flag.NewFlagSet("exceptions", flag.ContinueOnError)
	flags.SetOutput(app.Out)
	file := flags.String("file", "", "YAML file of extra exception rules")
	yamlOutput := flags.Bool("yaml", false, "Output as an exceptions file")

	if err := flags.Parse(args); err != nil {
		return err
	}

	policy, err := app.loadPolicy(*file)
	if err != nil {
		return err
	}
	if *yamlOutput {
		return policy.Encode(app.Out)
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tDISPOSITION\tVERSION\tREASON")
	for _, r := range policy.Rules() {
		version := "-"
		if r.Version != 0 {
			version = fmt.Sprintf("%#x", r.Version)
		}
		disposition := r.Disposition.String()
		if r.DuplicateFormat {
			disposition += " (duplicate)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Identity, disposition, version, r.Reason)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "\n%d rules\n", policy.Len())
	return nil
}
