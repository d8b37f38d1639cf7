// Package entries defines the canonical dataset shared by every source adapter:
// entrants per event per meet, plus the closed meet and event enumerations.
package entries

import (
	"sort"
	"strings"
)

// Meet identifies a single competition.
type Meet string

// Known meet codes. Configuration may only reference these.
const (
	MeetMillrose     Meet = "millrose"
	MeetNewBalance   Meet = "nbigp"
	MeetNCAAIndoor   Meet = "ncaai"
	MeetLosAngeles   Meet = "la"
	MeetPrefontaine  Meet = "pre"
	MeetOslo         Meet = "oslo"
	MeetLondon       Meet = "london"
	MeetParis        Meet = "paris"
	MeetZurich       Meet = "zurich"
	MeetBrussels     Meet = "brussels"
	MeetWorldIndoors Meet = "wic"
)

// Meets lists every known meet code in display order.
var Meets = []Meet{
	MeetMillrose,
	MeetNewBalance,
	MeetNCAAIndoor,
	MeetWorldIndoors,
	MeetLosAngeles,
	MeetPrefontaine,
	MeetOslo,
	MeetLondon,
	MeetParis,
	MeetZurich,
	MeetBrussels,
}

// KnownMeet reports whether code belongs to the meet enumeration.
func KnownMeet(code string) bool {
	for _, m := range Meets {
		if string(m) == code {
			return true
		}
	}
	return false
}

// Entrant is one athlete entered in an event.
type Entrant struct {
	ID        string  `json:"id,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Nat       *string `json:"nat"`
	PB        *string `json:"pb"`
	SB        *string `json:"sb"`
	Team      *string `json:"team,omitempty"`
}

// FullName returns "first last", the natural key used before an id is known.
func (e Entrant) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// BestMark returns the season best when present, otherwise the personal best.
func (e Entrant) BestMark() string {
	if e.SB != nil && *e.SB != "" {
		return *e.SB
	}
	if e.PB != nil {
		return *e.PB
	}
	return ""
}

// EventEntry is the entrant list for a single event at a single meet.
type EventEntry struct {
	Date     string    `json:"date"`
	Entrants []Entrant `json:"entrants"`
}

// Entries maps meet -> event -> entrant list. It is the artifact consumed by the UI.
type Entries map[Meet]map[Event]*EventEntry

// Put stores entry under meet/event, replacing any previous value.
func (e Entries) Put(meet Meet, event Event, entry *EventEntry) {
	if e[meet] == nil {
		e[meet] = make(map[Event]*EventEntry)
	}
	e[meet][event] = entry
}

// Get returns the entry for meet/event, or nil.
func (e Entries) Get(meet Meet, event Event) *EventEntry {
	if events, ok := e[meet]; ok {
		return events[event]
	}
	return nil
}

// EventCount returns the number of (meet, event) pairs.
func (e Entries) EventCount() int {
	n := 0
	for _, events := range e {
		n += len(events)
	}
	return n
}

// EntrantCount returns the total number of entrants across all events.
func (e Entries) EntrantCount() int {
	n := 0
	for _, events := range e {
		for _, entry := range events {
			if entry != nil {
				n += len(entry.Entrants)
			}
		}
	}
	return n
}

// SortedMeets returns the meet keys present in e, sorted.
func (e Entries) SortedMeets() []Meet {
	out := make([]Meet, 0, len(e))
	for m := range e {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedEvents returns the event keys recorded for meet, sorted.
func (e Entries) SortedEvents(meet Meet) []Event {
	out := make([]Event, 0, len(e[meet]))
	for ev := range e[meet] {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortByMark orders entrants by best mark string, ascending. Entrants without
// any mark go last; equal keys keep their input order.
func SortByMark(list []Entrant) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].BestMark(), list[j].BestMark()
		switch {
		case a == "":
			return false
		case b == "":
			return true
		default:
			return a < b
		}
	})
}

// Str returns a pointer to the trimmed value, or nil when it is empty.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
