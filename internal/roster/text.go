package roster

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

var (
	unitRe       = regexp.MustCompile(`(?i)\b(\d+)\s*(?:meters|metres|meter|metre|m)\b`)
	highHurdleRe = regexp.MustCompile(`(?i)\b(\d+) m high hurdles\b`)
	twoMileRe    = regexp.MustCompile(`(?i)\b(?:two|2)[\s-]+miles?\b`)
	oneMileRe    = regexp.MustCompile(`(?i)\b(?:one|1)\s+mile\b`)
	steepleRe    = regexp.MustCompile(`(?i)\bsteeple(?:chase)?\b`)
)

// combinedHeadings start blocks that belong to multi-event competitions.
var combinedHeadings = []string{"pentathlon", "heptathlon", "decathlon"}

// genderHeadings start listing headers such as "women's results day 1".
var genderHeadings = []string{"women", "men"}

// Normalize rewrites the spelling irregularities of listing text: every
// distance becomes "N m", "N m High Hurdles" becomes "N m Hurdles" and mile
// races use the canonical "Mile"/"2 Miles". "Steeple" is spelled out.
func Normalize(text string) string {
	text = unitRe.ReplaceAllString(text, "$1 m")
	text = highHurdleRe.ReplaceAllString(text, "$1 m Hurdles")
	text = twoMileRe.ReplaceAllString(text, "2 Miles")
	text = oneMileRe.ReplaceAllString(text, "Mile")
	text = steepleRe.ReplaceAllString(text, "Steeplechase")
	return text
}

// Labels maps the lower-case discipline labels of a gender's events to the
// events, e.g. "60 m hurdles" -> "Women's 60 m Hurdles".
func Labels(g entries.Gender) map[string]entries.Event {
	out := make(map[string]entries.Event)
	for _, ev := range entries.Events {
		if ev.Gender() == g {
			out[strings.ToLower(Normalize(ev.Discipline()))] = ev
		}
	}
	return out
}

// Section is a slice of listing text that starts with an event heading.
type Section struct {
	Text string
}

// Split cuts lower-cased, normalized text into one section per line that
// starts with a label. A line that starts with a combined-event heading opens
// a block that is dropped, sub-event headings on the same line included; the
// block ends at the next line starting with a label or a gender heading.
// Text before the first heading and under gender headings is discarded.
func Split(text string, labels map[string]entries.Event) []Section {
	var (
		out     []Section
		cur     strings.Builder
		inEvent bool
	)
	flush := func() {
		if inEvent && cur.Len() > 0 {
			out = append(out, Section{Text: cur.String()})
		}
		cur.Reset()
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		head := strings.TrimLeft(line, " \t")
		switch {
		case headingPrefix(head, combinedHeadings) != "":
			flush()
			inEvent = false
		case labelPrefix(head, labels) != "":
			flush()
			inEvent = true
			line = head
		case headingPrefix(head, genderHeadings) != "":
			flush()
			inEvent = false
		}
		if inEvent {
			cur.WriteString(line)
		}
	}
	flush()
	return out
}

// MatchSection returns the event whose label is the longest prefix of sec.
func MatchSection(sec Section, labels map[string]entries.Event) (entries.Event, bool) {
	var (
		best    entries.Event
		bestLen int
	)
	for label, ev := range labels {
		if len(label) > bestLen && strings.HasPrefix(sec.Text, label) {
			best, bestLen = ev, len(label)
		}
	}
	return best, bestLen > 0
}

// labelPrefix returns the longest label that starts line as whole words.
func labelPrefix(line string, labels map[string]entries.Event) string {
	best := ""
	for label := range labels {
		if len(label) > len(best) && wordPrefix(line, label) {
			best = label
		}
	}
	return best
}

func headingPrefix(line string, headings []string) string {
	for _, h := range headings {
		if wordPrefix(line, h) {
			return h
		}
	}
	return ""
}

func wordPrefix(line, prefix string) bool {
	return strings.HasPrefix(line, prefix) && (len(line) == len(prefix) || !isWordByte(line[len(prefix)]))
}

func isWordByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
