// Package pipeline runs the two stages of a dataset build: harvesting every
// configured meet into a fresh dataset, and filtering the persisted dataset
// against the roster listings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/dataset"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/notify"
	"github.com/JakeFAU/diamond-entries/internal/roster"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

// Clock stamps published datasets.
type Clock interface {
	Now() time.Time
}

// IDGenerator issues run ids.
type IDGenerator interface {
	NewID() (string, error)
}

// MeetPlan is one meet and its sources, harvested in order.
type MeetPlan struct {
	Meet    entries.Meet
	Indoor  bool
	Date    string
	Sources []string
}

// Deps are the collaborators shared by both stages.
type Deps struct {
	Sink      dataset.Sink
	Publisher notify.Publisher
	Clock     Clock
	IDs       IDGenerator
	Logger    *zap.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Sink == nil:
		return errors.New("pipeline: sink is required")
	case d.Clock == nil:
		return errors.New("pipeline: clock is required")
	case d.IDs == nil:
		return errors.New("pipeline: id generator is required")
	}
	return nil
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// publish writes e to the sink and announces it.
func (d Deps) publish(ctx context.Context, runID string, stage notify.Stage, e entries.Entries) error {
	if err := d.Sink.Write(ctx, e); err != nil {
		return fmt.Errorf("%s: write dataset: %w", stage, err)
	}
	digest, err := dataset.Digest(e)
	if err != nil {
		return fmt.Errorf("%s: digest: %w", stage, err)
	}
	ev := notify.Event{
		RunID:     runID,
		Stage:     stage,
		Digest:    digest,
		Meets:     len(e),
		Events:    e.EventCount(),
		Entrants:  e.EntrantCount(),
		WrittenAt: d.Clock.Now(),
	}
	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("stage", string(stage)),
		zap.String("digest", digest),
		zap.Int("meets", ev.Meets),
		zap.Int("events", ev.Events),
		zap.Int("entrants", ev.Entrants),
	}
	if d.Publisher != nil {
		id, err := d.Publisher.Publish(ctx, ev)
		if err != nil {
			return fmt.Errorf("%s: notify: %w", stage, err)
		}
		if id != "" {
			fields = append(fields, zap.String("message_id", id))
		}
	}
	d.logger().Info("dataset written", fields...)
	return nil
}

// Harvester rebuilds the dataset from every configured source.
type Harvester struct {
	Deps
	Meets    []MeetPlan
	Adapters *source.Registry
	Store    *cache.Store
}

// Run harvests every meet in order. The cache is flushed after each unit of
// newly fetched or resolved data and once more after each source, so an
// aborted run keeps its progress.
func (h *Harvester) Run(ctx context.Context) (entries.Entries, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if h.Adapters == nil || h.Store == nil {
		return nil, errors.New("pipeline: adapters and cache store are required")
	}
	runID, err := h.IDs.NewID()
	if err != nil {
		return nil, err
	}
	logger := h.logger().With(zap.String("run_id", runID))

	out := entries.Entries{}
	for _, plan := range h.Meets {
		for _, src := range plan.Sources {
			adapter, err := h.Adapters.For(src)
			if err != nil {
				return nil, err
			}
			target := source.Target{Meet: plan.Meet, Indoor: plan.Indoor, Date: plan.Date, Source: src}
			res, err := adapter.Harvest(ctx, target, h.Store.Flush)
			if err != nil {
				return nil, fmt.Errorf("harvest %s from %s: %w", plan.Meet, src, err)
			}
			if err := h.Store.Flush(); err != nil {
				return nil, fmt.Errorf("flush cache: %w", err)
			}
			source.Merge(out, plan.Meet, res)
			logger.Info("source harvested",
				zap.String("meet", string(plan.Meet)),
				zap.String("source", string(adapter.Kind())),
				zap.String("url", src),
				zap.Int("events", len(res)),
			)
		}
	}
	if err := h.publish(ctx, runID, notify.StageHarvest, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Filterer prunes the persisted dataset against the roster listings.
type Filterer struct {
	Deps
	DatasetPath string
	Filter      *roster.Filter
}

// Run loads the dataset, filters it and rewrites it.
func (f *Filterer) Run(ctx context.Context, review bool) (entries.Entries, roster.Stats, error) {
	if err := f.validate(); err != nil {
		return nil, roster.Stats{}, err
	}
	if f.Filter == nil {
		return nil, roster.Stats{}, errors.New("pipeline: roster filter is required")
	}
	runID, err := f.IDs.NewID()
	if err != nil {
		return nil, roster.Stats{}, err
	}
	e, err := dataset.Load(f.DatasetPath)
	if err != nil {
		return nil, roster.Stats{}, err
	}
	stats, err := f.Filter.Apply(ctx, e, review)
	if err != nil {
		return nil, stats, err
	}
	f.logger().Info("roster filtered",
		zap.String("run_id", runID),
		zap.Bool("review", review),
		zap.Int("sections", stats.Sections),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped", stats.Dropped),
	)
	if err := f.publish(ctx, runID, notify.StageFilter, e); err != nil {
		return nil, stats, err
	}
	return e, stats, nil
}
