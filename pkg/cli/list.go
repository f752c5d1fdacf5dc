package cli

import (
	"flag"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/platinummonkey/auval/pkg/catalog"
	"github.com/platinummonkey/auval/pkg/native"
)

func newListCommand(app *App) *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List the components in the catalog",
		Flags:       flag.NewFlagSet("list", flag.ContinueOnError),
		out:         app.Out,
	}
	cmd.Run = func(args []string) error {
		return runList(app, args)
	}
	return cmd
}

func runList(app *App, args []string) error {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	flags.SetOutput(app.Out)
	dirs := flags.String("dirs", "", "Component manifest directories (path list)")
	typ := flags.String("type", "", "Only list components of this type, including unlisted names")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cat, err := app.openCatalog(app.Context, filepath.SplitList(*dirs))
	if err != nil {
		return err
	}

	var descs []native.Description
	if *typ != "" {
		t, err := native.ParseOSType(*typ, false)
		if err != nil {
			return err
		}
		descs = cat.List(t)
	} else {
		descs = catalog.CompleteList(cat)
	}

	if len(descs) == 0 {
		fmt.Fprintln(app.Out, "No components found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSUBTYPE\tMANUFACTURER\tVERSION\tNAME")
	for _, d := range descs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Identity.Type, d.Identity.Subtype, d.Identity.Manufacturer, catalog.Version(d.Version), d.Name)
	}
	return w.Flush()
}
