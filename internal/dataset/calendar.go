package dataset

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

const (
	calendarProdID = "-//diamond-entries//entries calendar//EN"
	calendarDomain = "diamond-entries"
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// WriteCalendar encodes one VEVENT per dated event of e. Timed events are
// interpreted in loc; date-only events become all-day entries. Events without
// a date are skipped.
func WriteCalendar(w io.Writer, e entries.Entries, now time.Time, loc *time.Location) error {
	if e == nil {
		return ErrNoEntries
	}
	if loc == nil {
		loc = time.UTC
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProdID)

	for _, meet := range e.SortedMeets() {
		for _, ev := range e.SortedEvents(meet) {
			entry := e.Get(meet, ev)
			if entry == nil || entry.Date == "" {
				continue
			}
			event, err := calendarEvent(meet, ev, entry, now, loc)
			if err != nil {
				return err
			}
			cal.Children = append(cal.Children, event.Component)
		}
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func calendarEvent(
	meet entries.Meet,
	ev entries.Event,
	entry *entries.EventEntry,
	now time.Time,
	loc *time.Location,
) (*ical.Event, error) {
	event := ical.NewEvent()
	slug := strings.ToLower(strings.NewReplacer("'", "", " ", "-").Replace(string(ev)))
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s@%s", meet, slug, calendarDomain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s (%s)", ev, strings.ToUpper(string(meet))))
	event.Props.SetText(ical.PropDescription, fmt.Sprintf("%d entrants", len(entry.Entrants)))

	start := ical.NewProp(ical.PropDateTimeStart)
	if t, err := time.ParseInLocation(dateTimeLayout, entry.Date, loc); err == nil {
		start.SetDateTime(t)
	} else if d, err := time.ParseInLocation(dateLayout, entry.Date, loc); err == nil {
		start.SetDate(d)
	} else {
		return nil, fmt.Errorf("event %s %s: unrecognized date %q", meet, ev, entry.Date)
	}
	event.Props.Set(start)
	return event, nil
}
