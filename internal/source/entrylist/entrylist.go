// Package entrylist reads fixed-layout entry-list documents: one page per
// heat group, athletes laid out as [seq, bib, NAME, nat, dob, (sb), pb].
package entrylist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/identity"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

// Config describes the document layout.
type Config struct {
	// SkipEvents lists canonical events or disciplines ("Men's 60 m", "400 m")
	// whose pages are ignored.
	SkipEvents []string
	// HeaderFragments and FooterFragments are boilerplate fragment counts
	// trimmed from every page after the event label.
	HeaderFragments int
	FooterFragments int
}

// Adapter implements source.Adapter for entry-list documents.
type Adapter struct {
	cfg      Config
	pages    PageSource
	resolver *identity.Cached
	logger   *zap.Logger
}

// New builds the entry-list adapter. pages defaults to PDFPages.
func New(cfg Config, pages PageSource, resolver *identity.Cached, logger *zap.Logger) *Adapter {
	if pages == nil {
		pages = PDFPages{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, pages: pages, resolver: resolver, logger: logger}
}

// Kind implements source.Adapter.
func (a *Adapter) Kind() source.Kind {
	return source.KindEntryList
}

// Harvest parses every page of the document at t.Source.
func (a *Adapter) Harvest(ctx context.Context, t source.Target, checkpoint source.Checkpoint) (source.Result, error) {
	pages, err := a.pages.Pages(t.Source)
	if err != nil {
		return nil, err
	}
	metrics.ObserveDocument(string(source.KindEntryList), metrics.OriginNetwork)

	out := source.Result{}
	for i, frags := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("entry list canceled: %w", err)
		}
		if len(frags) < 2 {
			continue
		}
		ev, ok := entries.ParseEvent(frags[1])
		if !ok {
			a.logger.Debug("page is not a running event", zap.Int("page", i+1), zap.String("label", frags[1]))
			continue
		}
		if a.skipped(ev) {
			continue
		}
		list, err := a.page(ctx, t, ev, a.body(frags))
		if err != nil {
			return nil, fmt.Errorf("%s page %d (%s): %w", t.Meet, i+1, ev, err)
		}
		if err := checkpoint(); err != nil {
			return nil, fmt.Errorf("checkpoint after page %d: %w", i+1, err)
		}
		if prev, ok := out[ev]; ok {
			list = append(prev.Entrants, list...)
		}
		out[ev] = &entries.EventEntry{Date: t.Date, Entrants: list}
	}
	for ev, entry := range out {
		entry.Entrants = source.DedupeByName(entry.Entrants)
		entries.SortByMark(entry.Entrants)
		metrics.ObserveEntrants(string(source.KindEntryList), len(entry.Entrants))
		a.logger.Info("event harvested",
			zap.String("meet", string(t.Meet)),
			zap.String("event", string(ev)),
			zap.Int("entrants", len(entry.Entrants)),
		)
	}
	return out, nil
}

func (a *Adapter) skipped(ev entries.Event) bool {
	for _, s := range a.cfg.SkipEvents {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, string(ev)) || strings.EqualFold(s, ev.Discipline()) {
			return true
		}
	}
	return false
}

// body drops the event label and the configured boilerplate.
func (a *Adapter) body(frags []string) []string {
	start := 2 + a.cfg.HeaderFragments
	end := len(frags) - a.cfg.FooterFragments
	if start >= end {
		return nil
	}
	return frags[start:end]
}

type pending struct {
	name string
	q    identity.Query
}

// page parses one page and resolves its athletes. Names already in the cache
// are answered locally; the rest are looked up concurrently and recorded once
// every lookup has returned.
func (a *Adapter) page(ctx context.Context, t source.Target, ev entries.Event, body []string) ([]entries.Entrant, error) {
	var records []Record
	for _, seg := range Segment(body) {
		if IsPacer(seg) {
			continue
		}
		rec, ok := ParseRecord(seg)
		if !ok {
			a.logger.Warn("unexpected entry layout",
				zap.String("meet", string(t.Meet)),
				zap.String("event", string(ev)),
				zap.Strings("fragments", seg),
			)
			continue
		}
		records = append(records, rec)
	}

	ids := make(map[string]identity.Result, len(records))
	var todo []pending
	for _, rec := range records {
		name := strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		if _, seen := ids[name]; seen {
			continue
		}
		if res, ok := a.resolver.Lookup(t.Meet, name); ok {
			ids[name] = res
			continue
		}
		ids[name] = identity.Result{}
		todo = append(todo, pending{name: name, q: identity.Query{
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			BirthYear:  rec.BirthYear,
			Indoor:     t.Indoor,
			Gender:     ev.Gender(),
			Discipline: ev.DisciplineCode(),
		}})
	}

	results := make([]identity.Result, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	next := a.resolver.Uncached()
	for i, p := range todo {
		g.Go(func() error {
			res, err := next.Resolve(gctx, p.q)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, p := range todo {
		a.resolver.Remember(t.Meet, p.name, results[i])
		ids[p.name] = results[i]
	}

	list := make([]entries.Entrant, 0, len(records))
	for _, rec := range records {
		res := ids[strings.TrimSpace(rec.FirstName+" "+rec.LastName)]
		list = append(list, entries.Entrant{
			ID:        res.ID,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Nat:       natOf(rec.Nat, res.Country),
			PB:        entries.Str(rec.PB),
			SB:        entries.Str(rec.SB),
		})
	}
	return list, nil
}

// natOf prefers the document's nationality column over the registry country.
func natOf(doc, registry string) *string {
	if n := entries.Str(doc); n != nil {
		return n
	}
	return entries.Str(registry)
}
