// Package cache persists fetched source documents and resolved identities per
// meet so that a harvest can be re-run without refetching or re-querying.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/storage/local"
)

// ErrNotLoaded is returned by Flush on a Store that was not created by Load.
var ErrNotLoaded = errors.New("cache: store not loaded")

// Kind selects one of the document tables of a meet.
type Kind string

// Document kinds.
const (
	KindSchedule  Kind = "schedule"
	KindStartlist Kind = "startlist"
)

// Key addresses a cached document inside a meet.
type Key struct {
	Kind Kind
	Name string
}

// Identity is a cached registry resolution. An empty ID records a lookup that
// found nothing, so the registry is not asked again.
type Identity struct {
	ID  string  `json:"id"`
	Nat *string `json:"nat"`
}

type eventDocs struct {
	Startlist string `json:"startlist"`
}

type meetCache struct {
	Schedule map[string]string    `json:"schedule,omitempty"`
	Events   map[string]eventDocs `json:"events,omitempty"`
	IDs      map[string]Identity  `json:"ids,omitempty"`
}

// Store is the in-memory view of the cache file.
type Store struct {
	mu    sync.Mutex
	path  string
	meets map[entries.Meet]*meetCache
	dirty bool
}

// Load reads the whole cache file. A missing or malformed file is an error.
func Load(path string) (*Store, error) {
	// #nosec G304 -- path comes from operator configuration.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	meets := make(map[entries.Meet]*meetCache)
	if err := json.Unmarshal(raw, &meets); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if meets == nil {
		meets = make(map[entries.Meet]*meetCache)
	}
	return &Store{path: path, meets: meets}, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) meet(m entries.Meet) *meetCache {
	mc, ok := s.meets[m]
	if !ok || mc == nil {
		mc = &meetCache{}
		s.meets[m] = mc
	}
	return mc
}

// Get returns the cached document for key.
func (s *Store) Get(m entries.Meet, key Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok := s.meets[m]
	if !ok || mc == nil {
		return "", false
	}
	switch key.Kind {
	case KindSchedule:
		text, ok := mc.Schedule[key.Name]
		return text, ok
	case KindStartlist:
		docs, ok := mc.Events[key.Name]
		return docs.Startlist, ok
	default:
		return "", false
	}
}

// Set stores a document under key and marks the store dirty.
func (s *Store) Set(m entries.Meet, key Key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc := s.meet(m)
	switch key.Kind {
	case KindSchedule:
		if mc.Schedule == nil {
			mc.Schedule = make(map[string]string)
		}
		mc.Schedule[key.Name] = text
	case KindStartlist:
		if mc.Events == nil {
			mc.Events = make(map[string]eventDocs)
		}
		mc.Events[key.Name] = eventDocs{Startlist: text}
	default:
		return
	}
	s.dirty = true
}

// Schedule returns the schedule document stored under sub ("m", "f", "combined").
func (s *Store) Schedule(m entries.Meet, sub string) (string, bool) {
	return s.Get(m, Key{Kind: KindSchedule, Name: sub})
}

// SetSchedule stores a schedule document.
func (s *Store) SetSchedule(m entries.Meet, sub, text string) {
	s.Set(m, Key{Kind: KindSchedule, Name: sub}, text)
}

// Startlist returns the startlist document for event.
func (s *Store) Startlist(m entries.Meet, event entries.Event) (string, bool) {
	return s.Get(m, Key{Kind: KindStartlist, Name: string(event)})
}

// SetStartlist stores the startlist document for event.
func (s *Store) SetStartlist(m entries.Meet, event entries.Event, text string) {
	s.Set(m, Key{Kind: KindStartlist, Name: string(event)}, text)
}

// Identity looks up a resolution by "first last" name.
func (s *Store) Identity(m entries.Meet, name string) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc, ok := s.meets[m]
	if !ok || mc == nil {
		return Identity{}, false
	}
	id, ok := mc.IDs[name]
	return id, ok
}

// SetIdentity records a resolution, including misses.
func (s *Store) SetIdentity(m entries.Meet, name string, id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mc := s.meet(m)
	if mc.IDs == nil {
		mc.IDs = make(map[string]Identity)
	}
	mc.IDs[name] = id
	s.dirty = true
}

// Dirty reports whether there are unflushed mutations.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush rewrites the whole cache file if anything changed since the last flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" || s.meets == nil {
		return ErrNotLoaded
	}
	if !s.dirty {
		return nil
	}
	payload, err := json.MarshalIndent(s.meets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := local.WriteFile(s.path, payload); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	s.dirty = false
	return nil
}
