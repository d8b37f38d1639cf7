package entrylist

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pacerMarker flags a pacemaker record.
const pacerMarker = "PAC"

// Record is one athlete parsed from an entry-list segment.
type Record struct {
	FirstName string
	LastName  string
	Nat       string
	BirthYear int
	SB        string
	PB        string
}

// minSegment is the shortest group: seq, bib, name, nat and the dob (or PAC)
// slot. Integer tokens inside it are bibs or bare birth years, never markers.
const minSegment = 5

// Segment splits the fragment stream into one group per athlete. A group
// starts at an integer token that is strictly greater than the previous
// group's number and sits at least minSegment tokens after it, so neither
// the bib nor a bare-year dob ("2000") opens a group. Tokens before the
// first group are dropped.
func Segment(tokens []string) [][]string {
	var (
		segs    [][]string
		prev    = -1
		prevIdx = -minSegment
	)
	for i, tok := range tokens {
		if n, ok := sequenceNumber(tok); ok && n > prev && i-prevIdx >= minSegment {
			segs = append(segs, []string{tok})
			prev, prevIdx = n, i
			continue
		}
		if len(segs) > 0 {
			segs[len(segs)-1] = append(segs[len(segs)-1], tok)
		}
	}
	return segs
}

func sequenceNumber(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok)
	return n, err == nil
}

// IsPacer reports whether a segment carries the pacemaker marker.
func IsPacer(seg []string) bool {
	for _, tok := range seg {
		if tok == pacerMarker {
			return true
		}
	}
	return false
}

// ParseRecord reads [seq, bib, NAME, nat, dob, pb] or
// [seq, bib, NAME, nat, dob, sb, pb]. Other shapes are rejected.
func ParseRecord(seg []string) (Record, bool) {
	if len(seg) != 6 && len(seg) != 7 {
		return Record{}, false
	}
	first, last := splitCapsName(seg[2])
	rec := Record{
		FirstName: first,
		LastName:  last,
		Nat:       seg[3],
		BirthYear: yearOf(seg[4]),
	}
	if len(seg) == 7 {
		rec.SB, rec.PB = seg[5], seg[6]
	} else {
		rec.PB = seg[5]
	}
	return rec, true
}

// splitCapsName treats the leading run of upper-case words as the family
// name ("VAN NIEKERK Wayde" -> "Wayde", "Van Niekerk").
func splitCapsName(name string) (first, last string) {
	words := strings.Fields(name)
	i := 0
	for i < len(words) && isCaps(words[i]) {
		i++
	}
	title := cases.Title(language.Und)
	switch {
	case len(words) == 0:
		return "", ""
	case len(words) == 1:
		return "", title.String(words[0])
	case i == 0:
		return strings.Join(words[:len(words)-1], " "), title.String(words[len(words)-1])
	case i == len(words):
		i = len(words) - 1
	}
	last = title.String(strings.Join(words[:i], " "))
	first = strings.Join(words[i:], " ")
	if isCaps(first) {
		first = title.String(first)
	}
	return first, last
}

func isCaps(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func yearOf(dob string) int {
	dob = strings.TrimSpace(dob)
	if len(dob) < 4 {
		return 0
	}
	y, ok := sequenceNumber(dob[len(dob)-4:])
	if !ok {
		return 0
	}
	return y
}
