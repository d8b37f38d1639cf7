// Package aggregator reads gendered results tables from the collegiate
// results aggregator.
package aggregator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	"github.com/JakeFAU/diamond-entries/internal/identity"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

// Listing genders as the aggregator spells them.
var genders = []struct {
	code   string
	gender entries.Gender
}{
	{"m", entries.GenderMen},
	{"f", entries.GenderWomen},
}

var markRe = regexp.MustCompile(`\d+(?::\d{2})*(?:\.\d+)?`)

// Row is one athlete line of a results table.
type Row struct {
	FirstName string
	LastName  string
	Team      string
	Mark      string
}

// Section is one event table of a listing page.
type Section struct {
	Event entries.Event
	Rows  []Row
}

// Adapter implements source.Adapter for the aggregator.
type Adapter struct {
	docs     source.Documents
	resolver *identity.Cached
	logger   *zap.Logger
}

// New builds the aggregator adapter.
func New(f fetcher.Fetcher, store *cache.Store, resolver *identity.Cached, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		docs:     source.Documents{Kind: source.KindAggregator, Fetcher: f, Store: store, Logger: logger},
		resolver: resolver,
		logger:   logger,
	}
}

// Kind implements source.Adapter.
func (a *Adapter) Kind() source.Kind {
	return source.KindAggregator
}

// Harvest reads the men's and women's listings of t.Source.
func (a *Adapter) Harvest(ctx context.Context, t source.Target, checkpoint source.Checkpoint) (source.Result, error) {
	out := source.Result{}
	for _, g := range genders {
		text, err := a.docs.Get(ctx, t.Meet, cache.Key{Kind: cache.KindSchedule, Name: g.code}, listingURL(t.Source, g.code), checkpoint)
		if err != nil {
			return nil, err
		}
		sections, err := ParseListing(text, g.code, g.gender)
		if err != nil {
			return nil, fmt.Errorf("%s listing %s: %w", t.Meet, g.code, err)
		}
		for _, sec := range sections {
			list, err := a.entrants(ctx, t, sec, checkpoint)
			if err != nil {
				return nil, err
			}
			if prev, ok := out[sec.Event]; ok {
				list = append(prev.Entrants, list...)
			}
			list = source.DedupeByName(list)
			entries.SortByMark(list)
			out[sec.Event] = &entries.EventEntry{Date: "", Entrants: list}
		}
	}
	for ev, entry := range out {
		metrics.ObserveEntrants(string(source.KindAggregator), len(entry.Entrants))
		a.logger.Info("event harvested",
			zap.String("meet", string(t.Meet)),
			zap.String("event", string(ev)),
			zap.Int("entrants", len(entry.Entrants)),
		)
	}
	return out, nil
}

func (a *Adapter) entrants(ctx context.Context, t source.Target, sec Section, checkpoint source.Checkpoint) ([]entries.Entrant, error) {
	list := make([]entries.Entrant, 0, len(sec.Rows))
	for _, row := range sec.Rows {
		res, err := a.resolver.Resolve(ctx, t.Meet, identity.Query{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			CollegeAge: true,
			Indoor:     t.Indoor,
			Gender:     sec.Event.Gender(),
			Discipline: sec.Event.DisciplineCode(),
		})
		if err != nil {
			return nil, err
		}
		if err := checkpoint(); err != nil {
			return nil, fmt.Errorf("checkpoint after resolving %s %s: %w", row.FirstName, row.LastName, err)
		}
		list = append(list, entries.Entrant{
			ID:        res.ID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Nat:       entries.Str(res.Country),
			SB:        entries.Str(row.Mark),
			Team:      entries.Str(row.Team),
		})
	}
	return list, nil
}

// ParseListing extracts the running-event sections of one gender's listing.
// Sections for other disciplines are skipped; a section or row lacking its
// heading or name cell is an error.
func ParseListing(text, code string, gender entries.Gender) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	var (
		sections []Section
		parseErr error
	)
	doc.Find("div.gender_" + code).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		heading := s.Find("h3").First()
		if heading.Length() == 0 {
			parseErr = fmt.Errorf("%w: section heading", source.ErrMissingElement)
			return false
		}
		ev, ok := entries.ParseEventFor(gender, heading.Text())
		if !ok {
			return true
		}
		sec := Section{Event: ev}
		s.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			name := tr.Find("td.name a").First()
			if name.Length() == 0 {
				parseErr = fmt.Errorf("%w: name cell in %s", source.ErrMissingElement, ev)
				return false
			}
			first, last := source.SplitListName(name.Text())
			sec.Rows = append(sec.Rows, Row{
				FirstName: first,
				LastName:  last,
				Team:      strings.TrimSpace(tr.Find("td.team a").First().Text()),
				Mark:      markOf(tr.Find("td.mark").First()),
			})
			return true
		})
		if parseErr != nil {
			return false
		}
		sections = append(sections, sec)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return sections, nil
}

// markOf prefers the numeric mark carried in a title attribute (converted or
// wind-annotated marks) over the displayed text.
func markOf(cell *goquery.Selection) string {
	if titled := cell.Find("[title]").First(); titled.Length() > 0 {
		if title, ok := titled.Attr("title"); ok {
			if m := markRe.FindString(title); m != "" {
				return m
			}
		}
	}
	text := strings.TrimSpace(cell.Text())
	if m := markRe.FindString(text); m != "" {
		return m
	}
	return text
}

func listingURL(src, code string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	q := u.Query()
	q.Set("gender", code)
	u.RawQuery = q.Encode()
	return u.String()
}
