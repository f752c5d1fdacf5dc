package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/auval/pkg/catalog"
	"github.com/platinummonkey/auval/pkg/history"
)

func newHistoryCommand(app *App) *Command {
	cmd := &Command{
		Name:        "history",
		Description: "Show recent validation runs",
		Flags:       flag.NewFlagSet("history", flag.ContinueOnError),
		out:         app.Out,
	}
	cmd.Run = func(args []string) error {
		return runHistory(app, args)
	}
	return cmd
}

func runHistory(app *App, args []string) error {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	flags.SetOutput(app.Out)
	db := flags.String("db", "", "SQLite history database")
	limit := flags.Int("limit", history.DefaultLimit, "Maximum number of runs to show")
	numeric := flags.Bool("numeric", false, "Parse component codes as decimal integers")

	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := app.openHistory(*db)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history database is not configured (set AUVAL_HISTORY_DB or -db)")
	}
	defer store.Close()

	ctx := app.Context
	var runs []*history.Run
	if rest := flags.Args(); len(rest) >= 3 {
		id, err := parseIdentity(rest[0], rest[1], rest[2], *numeric)
		if err != nil {
			return err
		}
		run, err := store.Latest(ctx, id.String())
		if err != nil {
			return err
		}
		runs = append(runs, run)
	} else {
		if runs, err = store.List(ctx, *limit); err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		fmt.Fprintln(app.Out, "No validation runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCOMPONENT\tVERSION\tSTATUS\tFAILED\tDURATION\tRUN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%v\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Identity, catalog.Version(r.Version), r.Status,
			r.ProbesFailed, r.ProbesRun, r.ProcessingTime.Round(time.Millisecond), r.ID)
	}
	return w.Flush()
}
