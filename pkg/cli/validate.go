package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/auval/pkg/catalog"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/platinummonkey/auval/pkg/validator"
)

// hostVersion is the version auval reports to components as their host
const hostVersion uint32 = 0x00010000

func newValidateCommand(app *App) *Command {
	cmd := &Command{
		Name:        "validate",
		Description: "Validate an audio component",
		Flags:       flag.NewFlagSet("validate", flag.ContinueOnError),
		out:         app.Out,
	}
	cmd.Run = func(args []string) error {
		return runValidate(app, args)
	}
	return cmd
}

func runValidate(app *App, args []string) error {
	cfg := app.Config
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(app.Out)
	numeric := flags.Bool("numeric", false, "Parse component codes as decimal integers")
	dirs := flags.String("dirs", "", "Component manifest directories (path list)")
	exceptionsFile := flags.String("exceptions", "", "YAML file of extra exception rules")
	repetitions := flags.Int("repetitions", cfg.Validation.Repetitions, "Number of passes over the probe battery")
	seed := flags.String("seed", "", "Seed of the probe order shuffle")
	cocoa := flags.Bool("cocoa", cfg.Validation.HostIsCocoa, "Prefer Cocoa views when inspecting the UI")
	historyDB := flags.String("history", "", "SQLite database to record the run in")
	jsonOutput := flags.Bool("json", false, "Output in JSON format")

	if err := flags.Parse(args); err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) < 3 {
		fmt.Fprintln(app.Out, "!too few arguments")
		return &ExitError{Code: int(validator.NotFound)}
	}

	id, err := parseIdentity(rest[0], rest[1], rest[2], *numeric)
	if err != nil {
		return &ExitError{Code: int(validator.NotFound), Err: err}
	}
	req := validator.Request{Identity: id}
	if len(rest) > 3 {
		v, err := strconv.ParseInt(rest[3], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid requiresInit %q: %w", rest[3], err)
		}
		requiresInit := v != 0
		req.RequiresInit = &requiresInit
	}

	opts := []validator.Option{
		validator.WithLogger(app.Log),
		validator.WithRecorder(app.recorder),
		validator.WithRepetitions(*repetitions),
		validator.WithHostIsCocoa(*cocoa),
		validator.WithHostIdentity("auval", hostVersion),
	}
	switch {
	case *seed != "":
		v, err := strconv.ParseUint(*seed, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", *seed, err)
		}
		opts = append(opts, validator.WithSeed(v))
	case cfg.Validation.SeedSet:
		opts = append(opts, validator.WithSeed(cfg.Validation.Seed))
	}

	ctx := app.Context
	cat, err := app.openCatalog(ctx, filepath.SplitList(*dirs))
	if err != nil {
		return &ExitError{Code: int(validator.CouldNotRun), Err: err}
	}
	policy, err := app.loadPolicy(*exceptionsFile)
	if err != nil {
		return &ExitError{Code: int(validator.CouldNotRun), Err: err}
	}

	report, runErr := validator.New(cat, policy, opts...).Validate(ctx, req)

	if *jsonOutput {
		err = writeReportJSON(app.Out, report)
	} else {
		err = writeReport(app.Out, report)
	}
	if err != nil {
		return err
	}

	recordRun(app, *historyDB, report)

	return &ExitError{Code: int(report.Status), Err: runErr}
}

// recordRun stores the report in the history database. Failures never
// change the exit status.
func recordRun(app *App, dsn string, report *validator.Report) {
	log := app.Log.WithField("run_id", report.RunID.String())
	defer observability.RecoverPanic(log, "history write")

	store, err := app.openHistory(dsn)
	if err != nil {
		log.WithError(err).Warn("Failed to open history database")
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if err := store.Record(app.Context, report); err != nil {
		log.WithError(err).Warn("Failed to record validation run")
	}
}

func parseIdentity(typ, subtype, manufacturer string, numeric bool) (native.Identity, error) {
	var id native.Identity
	var err error
	if id.Type, err = native.ParseOSType(typ, numeric); err != nil {
		return id, err
	}
	if id.Subtype, err = native.ParseOSType(subtype, numeric); err != nil {
		return id, err
	}
	if id.Manufacturer, err = native.ParseOSType(manufacturer, numeric); err != nil {
		return id, err
	}
	return id, nil
}

func writeReport(w io.Writer, r *validator.Report) error {
	fmt.Fprintf(w, "VALIDATING %s\n", r.Identity)
	if r.Status == validator.NotFound {
		fmt.Fprintln(w, "!Audio Unit not found")
		fmt.Fprintf(w, "RESULT: %s (%d)\n", r.Status, r.Status)
		return nil
	}

	fmt.Fprintf(w, "  %s, version %s\n", r.Name, catalog.Version(r.Version))
	if r.Decision.Reason != "" {
		fmt.Fprintf(w, "  %s: %s\n", r.Decision.Verdict, r.Decision.Reason)
	}
	if len(r.Probes) > 0 {
		fmt.Fprintf(w, "  seed %d, requires init %t\n\n", r.Seed, r.RequiresInit)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, p := range r.Probes {
			result := "PASS"
			if !p.Passed {
				result = "FAIL"
			}
			detail := ""
			if p.Err != nil {
				detail = p.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%s\tpass %d\t%v\t%s\n", result, p.Name, p.Pass+1, p.Duration.Round(time.Microsecond), detail)
			for _, note := range p.Notes {
				fmt.Fprintf(tw, "\t  %s\t\t\t\n", note)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "RESULT: %s (%d)\n", r.Status, r.Status)
	return nil
}

type probeJSON struct {
	Name       string   `json:"name"`
	Pass       int      `json:"pass"`
	Passed     bool     `json:"passed"`
	Retried    bool     `json:"retried,omitempty"`
	Error      string   `json:"error,omitempty"`
	Notes      []string `json:"notes,omitempty"`
	DurationMS float64  `json:"duration_ms"`
}

type reportJSON struct {
	RunID        string      `json:"run_id"`
	Component    string      `json:"component"`
	Name         string      `json:"name,omitempty"`
	Version      string      `json:"version,omitempty"`
	Status       string      `json:"status"`
	ExitCode     int         `json:"exit_code"`
	Verdict      string      `json:"verdict"`
	Reason       string      `json:"reason,omitempty"`
	RequiresInit bool        `json:"requires_init"`
	Seed         uint64      `json:"seed"`
	Probes       []probeJSON `json:"probes"`
	StartedAt    time.Time   `json:"started_at"`
	DurationMS   float64     `json:"duration_ms"`
}

func writeReportJSON(w io.Writer, r *validator.Report) error {
	out := reportJSON{
		RunID:        r.RunID.String(),
		Component:    r.Identity.String(),
		Name:         r.Name,
		Status:       r.Status.String(),
		ExitCode:     int(r.Status),
		Verdict:      r.Decision.Verdict.String(),
		Reason:       r.Decision.Reason,
		RequiresInit: r.RequiresInit,
		Seed:         r.Seed,
		Probes:       []probeJSON{},
		StartedAt:    r.StartedAt,
		DurationMS:   float64(r.ProcessingTime) / float64(time.Millisecond),
	}
	if r.Status != validator.NotFound {
		out.Version = catalog.Version(r.Version).String()
	}
	for _, p := range r.Probes {
		pj := probeJSON{
			Name:       p.Name,
			Pass:       p.Pass,
			Passed:     p.Passed,
			Retried:    p.Retried,
			Notes:      p.Notes,
			DurationMS: float64(p.Duration) / float64(time.Millisecond),
		}
		if p.Err != nil {
			pj.Error = p.Err.Error()
		}
		out.Probes = append(out.Probes, pj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
