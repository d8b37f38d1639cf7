package entries

import (
	"regexp"
	"strconv"
	"strings"
)

// Event is a canonical event name such as "Men's 60 m" or "Women's Mile".
type Event string

// Gender of an event's field.
type Gender string

// Genders used by the registry and the listing sources.
const (
	GenderMen   Gender = "M"
	GenderWomen Gender = "W"
)

// Word returns the plain-English gender word ("Men", "Women").
func (g Gender) Word() string {
	if g == GenderWomen {
		return "Women"
	}
	return "Men"
}

type eventSpec struct {
	discipline string
	code       string
	genders    []Gender
}

var both = []Gender{GenderMen, GenderWomen}

var eventSpecs = []eventSpec{
	{"60 m", "60", both},
	{"100 m", "100", both},
	{"200 m", "200", both},
	{"400 m", "400", both},
	{"800 m", "800", both},
	{"1000 m", "1000", both},
	{"1500 m", "1500", both},
	{"Mile", "MILE", both},
	{"3000 m", "3000", both},
	{"2 Miles", "2MILE", both},
	{"5000 m", "5000", both},
	{"10000 m", "10000", both},
	{"60 m Hurdles", "60H", both},
	{"100 m Hurdles", "100H", []Gender{GenderWomen}},
	{"110 m Hurdles", "110H", []Gender{GenderMen}},
	{"400 m Hurdles", "400H", both},
	{"3000 m Steeplechase", "3000SC", both},
}

type eventInfo struct {
	gender     Gender
	discipline string
	code       string
}

var (
	// Events is the closed set of canonical events, in display order.
	Events   []Event
	eventIdx = map[Event]eventInfo{}
	exactIdx = map[string]Event{}
)

func init() {
	for _, g := range both {
		for _, spec := range eventSpecs {
			if !hasGender(spec.genders, g) {
				continue
			}
			ev := NewEvent(g, spec.discipline)
			Events = append(Events, ev)
			eventIdx[ev] = eventInfo{gender: g, discipline: spec.discipline, code: spec.code}
			exactIdx[exactKey(string(ev))] = ev
			exactIdx[exactKey(ev.Label())] = ev
		}
	}
}

func hasGender(list []Gender, g Gender) bool {
	for _, x := range list {
		if x == g {
			return true
		}
	}
	return false
}

// NewEvent formats a canonical event name. It does not check membership.
func NewEvent(g Gender, discipline string) Event {
	return Event(g.Word() + "'s " + discipline)
}

// Known reports whether e is in the closed event set.
func (e Event) Known() bool {
	_, ok := eventIdx[e]
	return ok
}

// Gender returns the event's gender.
func (e Event) Gender() Gender {
	return eventIdx[e].gender
}

// Discipline returns the gender-less part, e.g. "60 m Hurdles".
func (e Event) Discipline() string {
	return eventIdx[e].discipline
}

// DisciplineCode returns the registry discipline code, e.g. "60H".
func (e Event) DisciplineCode() string {
	return eventIdx[e].code
}

// Label returns the event as written in plain-text listings: "Men 60 m Hurdles".
func (e Event) Label() string {
	info := eventIdx[e]
	return info.gender.Word() + " " + info.discipline
}

var (
	distanceRe = regexp.MustCompile(`\b(\d[\d,]*)\s*(km|k|meters|metres|meter|metre|m)?\b`)
	relayRe    = regexp.MustCompile(`\d\s*x\s*\d|\brelay\b|\bmedley\b`)
	unitRe     = regexp.MustCompile(`\b(\d+)\s*(?:meters|metres|meter|metre|m)\b`)
	oneMileRe  = regexp.MustCompile(`\b(?:one|1) mile\b`)
	shortHurRe = regexp.MustCompile(`\b\d+\s*m?h\b`)
	steepleRe  = regexp.MustCompile(`steeple|\bsc\b`)
	twoMileRe  = regexp.MustCompile(`\b(2|two)[\s-]*miles?\b`)
	mileRe     = regexp.MustCompile(`\bmiles?\b`)
)

// ParseEvent maps a free-text label from any source ("Men's 100 Meters",
// "WOMEN 60m Hurdles", "60 Meter Hurdles Women", "Women's 1 Mile") onto the
// canonical event. It fails for anything outside Events.
func ParseEvent(label string) (Event, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	var g Gender
	switch {
	case strings.Contains(s, "women"):
		g = GenderWomen
	case strings.Contains(s, "men"):
		g = GenderMen
	default:
		return "", false
	}
	return ParseEventFor(g, s)
}

// ParseEventFor is ParseEvent for labels whose gender comes from context,
// such as a gender-scoped results table headed "60 Meters".
func ParseEventFor(g Gender, label string) (Event, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.NewReplacer("women's", " ", "women", " ", "men's", " ", "men", " ").Replace(s)
	discipline, ok := parseDiscipline(strings.TrimSpace(s))
	if !ok {
		return "", false
	}
	ev := NewEvent(g, discipline)
	return ev, ev.Known()
}

// MatchEvent is the exact counterpart of ParseEvent: label must spell a
// canonical name ("Men's 100 m") or its listing form ("Men 100 m") once case,
// whitespace and unit spellings ("Meters", "1 Mile", "High Hurdles") are
// normalized. "Men's 100 Meters" matches; "Men's 100 Meters Final" does not.
func MatchEvent(label string) (Event, bool) {
	ev, ok := exactIdx[exactKey(label)]
	return ev, ok
}

func exactKey(label string) string {
	s := strings.ToLower(strings.Join(strings.Fields(label), " "))
	s = strings.ReplaceAll(s, ",", "")
	s = unitRe.ReplaceAllString(s, "$1 m")
	s = oneMileRe.ReplaceAllString(s, "mile")
	s = twoMileRe.ReplaceAllString(s, "2 miles")
	s = strings.ReplaceAll(s, " high hurdles", " hurdles")
	return strings.ReplaceAll(s, "steeple chase", "steeplechase")
}

// parseDiscipline reads the discipline of a gender-less label. Relays and
// medleys never qualify, even when they name a known distance.
func parseDiscipline(s string) (string, bool) {
	if relayRe.MatchString(s) {
		return "", false
	}
	m := distanceRe.FindStringSubmatch(s)
	switch {
	case steepleRe.MatchString(s):
		if m != nil {
			if meters, ok := metersOf(m); !ok || meters != 3000 {
				return "", false
			}
		}
		return "3000 m Steeplechase", true
	case twoMileRe.MatchString(s):
		return "2 Miles", true
	case mileRe.MatchString(s):
		return "Mile", true
	}

	if m == nil {
		return "", false
	}
	meters, ok := metersOf(m)
	if !ok {
		return "", false
	}
	d := strconv.Itoa(meters) + " m"
	if strings.Contains(s, "hurdle") || shortHurRe.MatchString(s) {
		d += " Hurdles"
	}
	return d, true
}

func metersOf(m []string) (int, bool) {
	meters, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || meters == 0 {
		return 0, false
	}
	if m[2] == "k" || m[2] == "km" {
		meters *= 1000
	}
	return meters, true
}
