// Package organizer reads meet-organizer sites: a schedule page that lists the
// competition's events and one startlist page per event.
package organizer

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

// scheduleKey is the cache sub-key of the schedule page.
const scheduleKey = "combined"

var athleteIDRe = regexp.MustCompile(`(\d+)\.html`)

// Config selects which schedule rows belong to the competition.
type Config struct {
	// Category is the text of the category cell of qualifying rows, e.g. "DL".
	Category string
}

// ScheduleEvent is a qualifying schedule row.
type ScheduleEvent struct {
	Event     entries.Event
	Startlist string
}

// Adapter implements source.Adapter for organizer sites.
type Adapter struct {
	cfg    Config
	docs   source.Documents
	logger *zap.Logger
}

// New builds the organizer adapter.
func New(cfg Config, f fetcher.Fetcher, store *cache.Store, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		cfg:    cfg,
		docs:   source.Documents{Kind: source.KindOrganizer, Fetcher: f, Store: store, Logger: logger},
		logger: logger,
	}
}

// Kind implements source.Adapter.
func (a *Adapter) Kind() source.Kind {
	return source.KindOrganizer
}

// Harvest reads the schedule at t.Source and every qualifying startlist.
// Registry ids come from the startlist links, so no resolution is needed.
func (a *Adapter) Harvest(ctx context.Context, t source.Target, checkpoint source.Checkpoint) (source.Result, error) {
	text, err := a.docs.Get(ctx, t.Meet, cache.Key{Kind: cache.KindSchedule, Name: scheduleKey}, t.Source, checkpoint)
	if err != nil {
		return nil, err
	}
	events, err := ParseSchedule(text, t.Source, a.cfg.Category)
	if err != nil {
		return nil, fmt.Errorf("%s schedule: %w", t.Meet, err)
	}
	out := source.Result{}
	for _, se := range events {
		page, err := a.docs.Get(ctx, t.Meet, cache.Key{Kind: cache.KindStartlist, Name: string(se.Event)}, se.Startlist, checkpoint)
		if err != nil {
			return nil, err
		}
		entry, err := ParseStartlist(page)
		if err != nil {
			return nil, fmt.Errorf("%s %s startlist: %w", t.Meet, se.Event, err)
		}
		out[se.Event] = entry
		metrics.ObserveEntrants(string(source.KindOrganizer), len(entry.Entrants))
		a.logger.Info("event harvested",
			zap.String("meet", string(t.Meet)),
			zap.String("event", string(se.Event)),
			zap.String("date", entry.Date),
			zap.Int("entrants", len(entry.Entrants)),
		)
	}
	return out, nil
}

// ParseSchedule lists the rows whose category cell equals category and whose
// discipline cell names a known running event exactly, so relays, rounds and
// variants of a known distance are skipped. Startlist links resolve against base.
func ParseSchedule(text, base, category string) ([]ScheduleEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse schedule url: %w", err)
	}
	var (
		out      []ScheduleEvent
		parseErr error
	)
	doc.Find("tr.event").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if strings.TrimSpace(tr.Find("td.category").Text()) != category {
			return true
		}
		link := tr.Find("td.discipline a").First()
		if link.Length() == 0 {
			parseErr = fmt.Errorf("%w: discipline link", source.ErrMissingElement)
			return false
		}
		ev, ok := entries.MatchEvent(link.Text())
		if !ok {
			return true
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			parseErr = fmt.Errorf("%w: startlist href for %s", source.ErrMissingElement, ev)
			return false
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			parseErr = fmt.Errorf("startlist href %q: %w", href, err)
			return false
		}
		out = append(out, ScheduleEvent{Event: ev, Startlist: baseURL.ResolveReference(ref).String()})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

// ParseStartlist reads the entrants and start time of one event page.
func ParseStartlist(text string) (*entries.EventEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse startlist: %w", err)
	}
	date, err := startTime(doc)
	if err != nil {
		return nil, err
	}
	list := []entries.Entrant{}
	var parseErr error
	doc.Find("table.startlist tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		link := tr.Find("td.name a").First()
		if link.Length() == 0 {
			parseErr = fmt.Errorf("%w: name cell", source.ErrMissingElement)
			return false
		}
		first, last := source.SplitListName(link.Text())
		var id string
		if href, ok := link.Attr("href"); ok {
			if m := athleteIDRe.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
		list = append(list, entries.Entrant{
			ID:        id,
			FirstName: first,
			LastName:  last,
			Nat:       entries.Str(tr.Find("td.nat").First().Text()),
			PB:        entries.Str(tr.Find("td.pb").First().Text()),
			SB:        entries.Str(tr.Find("td.sb").First().Text()),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	entries.SortByMark(list)
	return &entries.EventEntry{Date: date, Entrants: list}, nil
}

// startTime combines the DD-MM-YYYY date text with the header's start time
// into "YYYY-MM-DDTHH:MM". A page without a date yields "".
func startTime(doc *goquery.Document) (string, error) {
	day := strings.TrimSpace(doc.Find(".event-date").First().Text())
	if day == "" {
		return "", nil
	}
	clock, _ := doc.Find(".event-header").First().Attr("data-start-time")
	clock = strings.TrimSpace(clock)
	if clock == "" {
		d, err := time.Parse("02-01-2006", day)
		if err != nil {
			return "", fmt.Errorf("event date %q: %w", day, err)
		}
		return d.Format("2006-01-02"), nil
	}
	ts, err := time.Parse("02-01-2006 15:04", day+" "+clock)
	if err != nil {
		return "", fmt.Errorf("event date %q %q: %w", day, clock, err)
	}
	return ts.Format("2006-01-02T15:04"), nil
}
