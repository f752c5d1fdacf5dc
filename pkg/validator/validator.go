package validator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/exceptions"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRepetitions is the number of passes over the probe battery
const DefaultRepetitions = 5

// Validator runs the probe battery against catalog components
type Validator struct {
	catalog     native.Catalog
	policy      *exceptions.Policy
	logger      *logrus.Logger
	recorder    observability.Recorder
	tracer      trace.Tracer
	probes      []Probe
	repetitions int
	seed        uint64
	seeded      bool
	allocator   Allocator
	hostIsCocoa bool
	hostName    string
	hostVersion uint32
}

// Option configures a Validator
type Option func(*Validator)

func WithLogger(logger *logrus.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

func WithRecorder(r observability.Recorder) Option {
	return func(v *Validator) { v.recorder = r }
}

func WithTracer(t trace.Tracer) Option {
	return func(v *Validator) { v.tracer = t }
}

// WithProbes replaces the probe battery
func WithProbes(probes ...Probe) Option {
	return func(v *Validator) { v.probes = probes }
}

// WithRepetitions sets the number of passes. Values below one mean one.
func WithRepetitions(n int) Option {
	return func(v *Validator) { v.repetitions = max(n, 1) }
}

// WithSeed fixes the seed of the probe order shuffle
func WithSeed(seed uint64) Option {
	return func(v *Validator) {
		v.seed = seed
		v.seeded = true
	}
}

func WithAllocator(a Allocator) Option {
	return func(v *Validator) { v.allocator = a }
}

// WithHostIsCocoa tells the UI probe which view kind the host prefers
func WithHostIsCocoa(cocoa bool) Option {
	return func(v *Validator) { v.hostIsCocoa = cocoa }
}

// WithHostIdentity sets the host name sent to every opened component
func WithHostIdentity(name string, version uint32) Option {
	return func(v *Validator) {
		v.hostName = name
		v.hostVersion = version
	}
}

// New creates a validator. A nil policy means exceptions.Default().
func New(catalog native.Catalog, policy *exceptions.Policy, opts ...Option) *Validator {
	if policy == nil {
		policy = exceptions.Default()
	}
	v := &Validator{
		catalog:     catalog,
		policy:      policy,
		logger:      logrus.StandardLogger(),
		recorder:    observability.NopRecorder{},
		tracer:      observability.Tracer(),
		probes:      DefaultProbes(),
		repetitions: DefaultRepetitions,
		allocator:   HeapAllocator{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Request names the component to validate
type Request struct {
	Identity native.Identity
	// RequiresInit is the initial value of the sticky requires-init flag.
	// nil means true.
	RequiresInit *bool
}

// ProbeResult is the outcome of one probe execution
type ProbeResult struct {
	Name string
	// Pass is the zero-based repetition the probe ran in
	Pass     int
	Passed   bool
	Retried  bool
	Err      error
	Notes    []string
	Duration time.Duration
}

// Report is the outcome of one validation run
type Report struct {
	RunID          uuid.UUID
	Identity       native.Identity
	Name           string
	Version        int32
	Status         Status
	Decision       exceptions.Decision
	RequiresInit   bool
	Seed           uint64
	Probes         []ProbeResult
	StartedAt      time.Time
	CompletedAt    time.Time
	ProcessingTime time.Duration
}

// Failures returns the failed probe executions
func (r *Report) Failures() []ProbeResult {
	var failed []ProbeResult
	for _, p := range r.Probes {
		if !p.Passed {
			failed = append(failed, p)
		}
	}
	return failed
}

// Validate classifies and, unless the exception policy decides, probes the
// requested component. A report is always returned; the error explains a
// CouldNotRun or Crashed status.
func (v *Validator) Validate(ctx context.Context, req Request) (*Report, error) {
	startTime := time.Now()
	requiresInit := req.RequiresInit == nil || *req.RequiresInit

	report := &Report{
		RunID:        uuid.New(),
		Identity:     req.Identity,
		Status:       Running,
		RequiresInit: requiresInit,
		StartedAt:    startTime,
	}

	ctx, span := v.tracer.Start(ctx, "auval.validate", trace.WithAttributes(
		attribute.String("auval.run_id", report.RunID.String()),
		attribute.String("auval.component", req.Identity.String()),
	))
	defer span.End()

	log := observability.WithTraceContext(ctx, v.logger.WithFields(logrus.Fields{
		"run_id":    report.RunID.String(),
		"component": req.Identity.String(),
	}))

	err := v.validate(ctx, req, report, log)

	report.CompletedAt = time.Now()
	report.ProcessingTime = report.CompletedAt.Sub(startTime)
	v.recorder.RunFinished(report.Status.String(), report.ProcessingTime)

	span.SetAttributes(attribute.String("auval.status", report.Status.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	log.Infof("Validation finished with status %s in %v", report.Status, report.ProcessingTime)
	return report, err
}

func (v *Validator) validate(ctx context.Context, req Request, report *Report, log *logrus.Entry) error {
	// Step 1: resolve the identity without instantiating it
	desc, ok := v.catalog.Find(req.Identity)
	if !ok {
		log.Warn("Component not found")
		report.Status = NotFound
		return nil
	}
	report.Name = desc.Name
	report.Version = desc.Version

	// Step 2: consult the exception policy
	report.Decision = v.policy.Classify(req.Identity, desc.Version)
	v.recorder.ExceptionDecision(report.Decision.Verdict.String())
	switch report.Decision.Verdict {
	case exceptions.Blacklisted:
		log.WithField("reason", report.Decision.Reason).Warn("Component is blacklisted")
		if report.Decision.DuplicateFormat {
			report.Status = DuplicateFormat
		} else {
			report.Status = IncompatibleVersion
		}
		return nil
	case exceptions.Whitelisted:
		log.Info("Component is whitelisted")
		report.Status = success(report.RequiresInit)
		return nil
	}

	// Step 3: version 1 third-party components always need initialization
	if !report.RequiresInit && desc.Version == 1 && req.Identity.Manufacturer != native.ManufacturerApple {
		log.Info("Forcing explicit initialization for a version 1 component")
		report.RequiresInit = true
	}

	// Step 4: run the battery
	seed := v.seed
	if !v.seeded {
		seed = rand.Uint64()
	}
	report.Seed = seed

	rc := &RunContext{
		Identity:             req.Identity,
		Version:              desc.Version,
		RequiresExplicitInit: report.RequiresInit,
		HostIsCocoa:          v.hostIsCocoa,
		Allocator:            v.allocator,
		Log:                  log,
		catalog:              v.catalog,
		hostName:             v.hostName,
		hostVersion:          v.hostVersion,
	}
	status, err := v.runBattery(ctx, rc, report)
	report.Status = status
	report.RequiresInit = rc.RequiresExplicitInit
	return err
}

// runBattery owns the handle for the whole battery. A panic outside a
// probe, including setup and teardown, is a crash.
func (v *Validator) runBattery(ctx context.Context, rc *RunContext, report *Report) (status Status, err error) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			rc.Log.WithError(perr).Error("Validation crashed")
			status, err = Crashed, perr
		}
	}()

	if err := rc.ReplaceHandle(); err != nil {
		if auerr.Is(err, auerr.KindUnauthorized) {
			rc.Log.WithError(err).Warn("Component is not authorized")
			return NotAuthorized, nil
		}
		return CouldNotRun, fmt.Errorf("failed to open component: %w", err)
	}
	defer rc.closeHandle()

	rng := rand.New(rand.NewPCG(report.Seed, report.Seed))
	order := slices.Clone(v.probes)

	for pass := 0; pass < v.repetitions; pass++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, p := range order {
			if err := ctx.Err(); err != nil {
				return CouldNotRun, fmt.Errorf("validation cancelled: %w", err)
			}
			result := v.runProbe(ctx, rc, p, pass)
			report.Probes = append(report.Probes, result)
			if rc.Unauthorized {
				return NotAuthorized, nil
			}
		}
	}

	if len(report.Failures()) > 0 {
		return Failure, nil
	}
	return success(rc.RequiresExplicitInit), nil
}

// runProbe runs p with at most one retry. The retry happens only when the
// first attempt fails with KindUninitialized while the sticky flag is unset;
// the handle is then replaced by an initialized one.
func (v *Validator) runProbe(ctx context.Context, rc *RunContext, p Probe, pass int) ProbeResult {
	ctx, span := v.tracer.Start(ctx, "auval.probe", trace.WithAttributes(
		attribute.String("auval.probe", p.Name),
		attribute.Int("auval.pass", pass),
	))
	defer span.End()

	log := observability.WithTraceContext(ctx, rc.Log).WithField("probe", p.Name)
	result := ProbeResult{Name: p.Name, Pass: pass}
	start := time.Now()

	for attempt := 1; attempt <= 2; attempt++ {
		err := attemptProbe(rc, p)
		if err == nil {
			result.Passed = true
			result.Err = nil
			break
		}
		result.Err = err

		if auerr.Is(err, auerr.KindUnauthorized) {
			rc.Unauthorized = true
			break
		}
		if attempt == 1 && auerr.Is(err, auerr.KindUninitialized) && !rc.RequiresExplicitInit {
			log.WithError(err).Info("Probe requires initialization, retrying with an initialized component")
			rc.RequiresExplicitInit = true
			result.Retried = true
			v.recorder.ProbeRetried(p.Name)
			if rerr := rc.ReplaceHandle(); rerr != nil {
				result.Err = fmt.Errorf("failed to reopen component: %w", rerr)
				if auerr.Is(rerr, auerr.KindUnauthorized) {
					rc.Unauthorized = true
				}
				break
			}
			continue
		}
		break
	}

	result.Duration = time.Since(start)
	result.Notes = rc.takeNotes()
	v.recorder.ProbeFinished(p.Name, result.Passed, result.Duration)

	if !result.Passed {
		log.WithError(result.Err).Warn("Probe failed")
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	span.SetAttributes(attribute.Bool("auval.passed", result.Passed), attribute.Bool("auval.retried", result.Retried))
	return result
}

// attemptProbe runs p once. A panic from the component is a probe failure.
func attemptProbe(rc *RunContext, p Probe) (err error) {
	if rc.Handle == nil {
		return errNoHandle
	}
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			err = perr
		}
	}()
	return p.Run(rc)
}
