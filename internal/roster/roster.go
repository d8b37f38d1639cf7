// Package roster prunes harvested entrant lists against the plain-text
// per-gender, per-day listings published once a meet is underway.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
)

// DefaultMaxEntrants is the roster size an event is capped at.
const DefaultMaxEntrants = 16

// reviewMarker is the last field of a listing line for a confirmed starter.
const reviewMarker = "a"

// Drop reasons reported to metrics.
const (
	DropBlankName  = "blank-name"
	DropNotListed  = "not-listed"
	DropOverCapped = "over-cap"
)

// Listing is one plain-text listing document.
type Listing struct {
	Gender entries.Gender `mapstructure:"gender"`
	Day    int            `mapstructure:"day"`
	URL    string         `mapstructure:"url"`
}

// Config scopes the filter to one meet.
type Config struct {
	Meet        entries.Meet
	MaxEntrants int
	Listings    []Listing
}

// Stats summarizes one filter pass.
type Stats struct {
	Sections  int
	Unmatched int
	Kept      int
	Dropped   int
}

// Filter applies the listings of a meet to a dataset.
type Filter struct {
	cfg     Config
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

// New builds a Filter.
func New(cfg Config, f fetcher.Fetcher, logger *zap.Logger) (*Filter, error) {
	if f == nil {
		return nil, errors.New("roster: fetcher is required")
	}
	if cfg.MaxEntrants <= 0 {
		cfg.MaxEntrants = DefaultMaxEntrants
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{cfg: cfg, fetcher: f, logger: logger}, nil
}

// Apply fetches every listing and filters the matching events of e in place,
// listing by listing. Events that no section names are left untouched.
func (f *Filter) Apply(ctx context.Context, e entries.Entries, review bool) (Stats, error) {
	var stats Stats
	for _, l := range f.cfg.Listings {
		body, err := f.fetcher.Fetch(ctx, l.URL)
		if err != nil {
			return stats, fmt.Errorf("roster listing %s day %d: %w", l.Gender, l.Day, err)
		}
		labels := Labels(l.Gender)
		text := strings.ToLower(Normalize(string(body)))
		for _, sec := range Split(text, labels) {
			stats.Sections++
			ev, ok := MatchSection(sec, labels)
			if !ok {
				stats.Unmatched++
				continue
			}
			entry := e.Get(f.cfg.Meet, ev)
			if entry == nil {
				continue
			}
			before := len(entry.Entrants)
			entry.Entrants = f.FilterEntrants(entry.Entrants, sec, review)
			stats.Kept += len(entry.Entrants)
			stats.Dropped += before - len(entry.Entrants)
			f.logger.Debug("filtered event",
				zap.String("meet", string(f.cfg.Meet)),
				zap.String("event", string(ev)),
				zap.Int("day", l.Day),
				zap.Int("kept", len(entry.Entrants)),
				zap.Int("dropped", before-len(entry.Entrants)),
			)
		}
	}
	return stats, nil
}

// FilterEntrants keeps the entrants whose "first last" name appears on a line
// of sec. In review mode the line must also end with the confirmation marker.
// The result is capped at the configured roster size.
func (f *Filter) FilterEntrants(list []entries.Entrant, sec Section, review bool) []entries.Entrant {
	lines := strings.Split(strings.ToLower(sec.Text), "\n")
	out := make([]entries.Entrant, 0, len(list))
	for _, ent := range list {
		name := strings.ToLower(ent.FullName())
		if name == "" {
			f.logger.Warn("dropping entrant with blank name",
				zap.String("meet", string(f.cfg.Meet)),
				zap.Stringp("id", entries.Str(ent.ID)),
			)
			metrics.ObserveRosterDrop(DropBlankName, 1)
			continue
		}
		if !listed(lines, name, review) {
			metrics.ObserveRosterDrop(DropNotListed, 1)
			continue
		}
		out = append(out, ent)
	}
	if len(out) > f.cfg.MaxEntrants {
		metrics.ObserveRosterDrop(DropOverCapped, len(out)-f.cfg.MaxEntrants)
		out = out[:f.cfg.MaxEntrants]
	}
	return out
}

func listed(lines []string, name string, review bool) bool {
	for _, line := range lines {
		if !strings.Contains(line, name) {
			continue
		}
		if !review {
			return true
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[len(fields)-1] == reviewMarker {
			return true
		}
	}
	return false
}
