package slot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"speakbook/internal/logger"
	"speakbook/internal/metrics"

	"golang.org/x/sync/errgroup"
)

const generatorConcurrency = 8

// ProviderLister yields the ids of providers that should receive slots.
type ProviderLister interface {
	ApprovedIDs(ctx context.Context) ([]int, error)
}

type Result struct {
	Providers int
	Created   int
}

// Generator keeps a rolling grid of Count consecutive slots per approved
// provider, starting at the current minute.
type Generator struct {
	slots     Repository
	providers ProviderLister
	count     int
	duration  time.Duration
	now       func() time.Time
}

func NewGenerator(slots Repository, providers ProviderLister, count int) *Generator {
	if count <= 0 {
		count = DefaultCount
	}
	return &Generator{
		slots:     slots,
		providers: providers,
		count:     count,
		duration:  Duration,
		now:       time.Now,
	}
}

// Starts returns the slot start times for a run at now.
func (g *Generator) Starts(now time.Time) []time.Time {
	start := now.UTC().Truncate(time.Minute)
	starts := make([]time.Time, g.count)
	for i := range starts {
		starts[i] = start.Add(time.Duration(i) * g.duration)
	}
	return starts
}

// Run is safe to call repeatedly and concurrently; slots that already exist
// for a (provider, start) pair are skipped.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	ids, err := g.providers.ApprovedIDs(ctx)
	if err != nil {
		metrics.RecordSlotGeneration("error", 0)
		return Result{}, fmt.Errorf("list approved providers: %w", err)
	}

	starts := g.Starts(g.now())

	var created atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(generatorConcurrency)
	for _, id := range ids {
		eg.Go(func() error {
			n, err := g.slots.EnsureSlots(egCtx, id, starts, g.duration)
			if err != nil {
				return fmt.Errorf("provider %d: %w", id, err)
			}
			created.Add(int64(n))
			return nil
		})
	}

	res := Result{Providers: len(ids)}
	err = eg.Wait()
	res.Created = int(created.Load())
	if err != nil {
		metrics.RecordSlotGeneration("error", res.Created)
		return res, err
	}

	metrics.RecordSlotGeneration("success", res.Created)
	logger.Info("slot generation finished",
		"providers", res.Providers,
		"created", res.Created,
		"from", starts[0],
	)
	return res, nil
}
