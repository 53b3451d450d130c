package digest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/daterange"
)

// Mailer delivers a rendered snapshot.
type Mailer interface {
	Send(ctx context.Context, snap core.Snapshot) error
}

// RunOptions are the per-invocation choices.
type RunOptions struct {
	// Range descriptor; empty means the current week
	Range string
	// Email the snapshot after saving it
	SendEmail bool
	// Use the current week when Range does not parse instead of failing
	FallbackToWeek bool
}

// Report is what a run produced.
type Report struct {
	// Correlates the log lines of one run
	RunID      string
	Window     daterange.Window
	Result     Result
	OutputPath string
	Emailed    bool
}

// Runner wires a provider, the digest pipeline and its outputs together.
type Runner struct {
	Settings config.Settings
	// Calendar name passed to the provider
	Calendar string

	Provider core.Provider
	Store    core.SnapshotStore
	Mailer   Mailer
	Resolver *daterange.Resolver
	Logger   *zap.Logger
}

// NewRunner builds a runner. store and mailer may be nil.
func NewRunner(s config.Settings, calendar string, p core.Provider, store core.SnapshotStore, mailer Mailer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Settings: s,
		Calendar: calendar,
		Provider: p,
		Store:    store,
		Mailer:   mailer,
		Resolver: daterange.NewResolver(s),
		Logger:   logger,
	}
}

// Window resolves the reporting window for opts.
func (r *Runner) Window(opts RunOptions) (daterange.Window, error) {
	w, err := r.Resolver.ResolveOrDefault(opts.Range)
	if err == nil {
		return w, nil
	}

	var perr *daterange.ParseError
	if opts.FallbackToWeek && errors.As(err, &perr) {
		w = r.Resolver.CurrentWeek()
		r.Logger.Warn("Invalid date range, using current week",
			zap.String("range", opts.Range),
			zap.String("window", w.String()),
			zap.Error(err),
		)
		return w, nil
	}
	return daterange.Window{}, err
}

// Run resolves the window, fetches, builds, saves and optionally mails the
// snapshot. The snapshot is saved before any mail is attempted, so a
// delivery failure still leaves the file on disk.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	w, err := r.Window(opts)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := r.Logger.With(zap.String("run_id", runID))

	log.Info("Fetching events",
		zap.String("provider", r.Provider.ID()),
		zap.String("calendar", r.Calendar),
		zap.String("window", w.String()),
	)

	raw, err := r.Provider.FetchEvents(ctx, core.FetchOptions{
		Start:        w.Start,
		End:          w.End,
		CalendarName: r.Calendar,
		MaxResults:   r.Settings.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events from %s: %w", r.Provider.Name(), err)
	}

	builder := NewBuilder(r.Settings, log)
	report := &Report{
		RunID:  runID,
		Window: w,
		Result: builder.Build(raw, w),
	}

	if r.Store != nil {
		path, err := r.Store.Save(ctx, report.Result.Snapshot)
		if err != nil {
			return report, fmt.Errorf("save snapshot: %w", err)
		}
		report.OutputPath = path
		log.Info("Saved snapshot", zap.String("path", path))
	}

	if !opts.SendEmail {
		return report, nil
	}
	if r.Mailer == nil {
		return report, errors.New("email requested but no mailer is configured")
	}
	if err := r.Mailer.Send(ctx, report.Result.Snapshot); err != nil {
		return report, fmt.Errorf("send email: %w", err)
	}
	report.Emailed = true
	log.Info("Sent email")

	return report, nil
}
