package digest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/daterange"
)

// Result is the outcome of one Build.
type Result struct {
	Snapshot core.Snapshot
	// Events that survived normalization, in source order
	Retained []core.Event
	Skipped  []Skip
	// Number of raw events received
	Total int
}

// Summary renders the one-line run summary.
func (r Result) Summary() string {
	return fmt.Sprintf("%d events across %d days", len(r.Retained), len(r.Snapshot))
}

// Builder normalizes and buckets a batch of raw events.
type Builder struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewBuilder returns a builder. A nil logger discards output.
func NewBuilder(s config.Settings, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		normalizer: NewNormalizer(s),
		logger:     logger,
	}
}

// Build normalizes every raw event against w and buckets the survivors.
// Skipped events are logged and reported, never fatal.
func (b *Builder) Build(raw []core.RawEvent, w daterange.Window) Result {
	res := Result{
		Retained: make([]core.Event, 0, len(raw)),
		Total:    len(raw),
	}

	for _, r := range raw {
		ev, skip := b.normalizer.Normalize(r, w)
		if skip != nil {
			b.logSkip(skip)
			res.Skipped = append(res.Skipped, *skip)
			continue
		}
		res.Retained = append(res.Retained, ev)
	}

	res.Snapshot = Bucket(res.Retained, w)

	b.logger.Info("Built snapshot",
		zap.String("window", w.String()),
		zap.Int("total", res.Total),
		zap.Int("retained", len(res.Retained)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("days", len(res.Snapshot)),
		zap.Int("window_days", w.Days()),
		zap.Int("entries", res.Snapshot.EntryCount()),
	)

	return res
}

func (b *Builder) logSkip(s *Skip) {
	fields := []zap.Field{
		zap.String("summary", s.Event.Summary),
		zap.String("reason", string(s.Reason)),
		zap.String("start_date", dateField(s.StartDate)),
		zap.String("end_date", dateField(s.EndDate)),
	}
	if s.Err != nil {
		fields = append(fields, zap.Error(s.Err))
	}
	b.logger.Warn("Skipping event", fields...)
}

func dateField(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
