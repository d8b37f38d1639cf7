// Package source selects and drives the adapters that turn one source document
// (an aggregator results page, an organizer schedule, an entry-list PDF) into
// canonical event entries.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

// Errors shared by the adapters.
var (
	ErrNoAdapter      = errors.New("source: no adapter for source")
	ErrMissingElement = errors.New("source: required element missing")
)

// Kind names an adapter family.
type Kind string

// Adapter kinds.
const (
	KindAggregator Kind = "aggregator"
	KindOrganizer  Kind = "organizer"
	KindEntryList  Kind = "entrylist"
)

// Target is one configured source of one meet. Date is the meet date used by
// sources that do not carry one themselves.
type Target struct {
	Meet   entries.Meet
	Indoor bool
	Date   string
	Source string
}

// Result holds the event entries one source produced.
type Result map[entries.Event]*entries.EventEntry

// Checkpoint persists progress after a unit of newly fetched or resolved data.
type Checkpoint func() error

// Adapter parses one family of source documents.
type Adapter interface {
	Kind() Kind
	Harvest(ctx context.Context, t Target, checkpoint Checkpoint) (Result, error)
}

// Classify picks the adapter family from the shape of src: a .pdf path is an
// entry list, a URL on aggregatorHost (or a subdomain) is the aggregator, and
// anything else is an organizer site.
func Classify(src, aggregatorHost string) Kind {
	if strings.EqualFold(path.Ext(strings.SplitN(src, "?", 2)[0]), ".pdf") {
		return KindEntryList
	}
	if u, err := url.Parse(src); err == nil && aggregatorHost != "" {
		host := strings.ToLower(u.Hostname())
		want := strings.ToLower(aggregatorHost)
		if host == want || strings.HasSuffix(host, "."+want) {
			return KindAggregator
		}
	}
	return KindOrganizer
}

// Registry maps classified sources to adapters.
type Registry struct {
	aggregatorHost string
	adapters       map[Kind]Adapter
}

// NewRegistry registers adapters by their Kind.
func NewRegistry(aggregatorHost string, adapters ...Adapter) *Registry {
	r := &Registry{aggregatorHost: aggregatorHost, adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.Kind()] = a
		}
	}
	return r
}

// For returns the adapter responsible for src.
func (r *Registry) For(src string) (Adapter, error) {
	kind := Classify(src, r.aggregatorHost)
	a, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoAdapter, src, kind)
	}
	return a, nil
}

// Merge adds every event of res into dst under meet. An event already present
// is replaced.
func Merge(dst entries.Entries, meet entries.Meet, res Result) {
	for ev, entry := range res {
		dst.Put(meet, ev, entry)
	}
}
