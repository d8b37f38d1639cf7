// Package identity resolves scraped athlete names to registry identities.
//
// A registry search returns fuzzy hits; Match filters them client-side and
// reports the reason for its choice.
package identity

import (
	"slices"
	"strconv"
	"strings"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

// Reason explains a Match outcome.
type Reason string

// Match reasons.
const (
	ReasonNoBirthDate Reason = "no-birthdate-fallback"
	ReasonBirthYear   Reason = "birth-year-match"
	ReasonCollegeAge  Reason = "college-age-match"
	ReasonName        Reason = "name-match"
	ReasonNoMatch     Reason = "no-match"
)

// Query is a scraped name plus the hints a source can supply.
type Query struct {
	FirstName  string
	LastName   string
	BirthYear  int
	CollegeAge bool
	Indoor     bool
	Gender     entries.Gender
	Discipline string
}

// Name returns the "first last" cache key for q.
func (q Query) Name() string {
	return strings.TrimSpace(q.FirstName + " " + q.LastName)
}

// Candidate is one registry search hit.
type Candidate struct {
	ID         string `json:"id"`
	BirthDate  string `json:"birthDate"`
	Country    string `json:"country"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// Result is the outcome of a resolution. ID is empty when nothing matched.
type Result struct {
	ID      string
	Country string
	Reason  Reason
}

// Found reports whether a registry record was selected.
func (r Result) Found() bool {
	return r.ID != ""
}

// MatchOptions carries the configurable parts of matching.
type MatchOptions struct {
	// CollegeMinBirthYear is the earliest birth year accepted for a
	// college-age query. Zero rejects every dated candidate for such queries.
	CollegeMinBirthYear int
	Aliases             map[string][]string
}

// Match picks the first candidate whose family name agrees with one of the
// query's name forms and whose birth date satisfies the hints. Candidates
// without a birth date are accepted on the name alone.
func Match(q Query, candidates []Candidate, opts MatchOptions) Result {
	forms := nameForms(q.FirstName, q.LastName, opts.Aliases)
	for _, c := range candidates {
		if !slices.Contains(forms, Fold(c.FamilyName)) {
			continue
		}
		if strings.TrimSpace(c.BirthDate) == "" {
			return Result{ID: c.ID, Country: c.Country, Reason: ReasonNoBirthDate}
		}
		year, ok := birthYear(c.BirthDate)
		reason := ReasonName
		if q.BirthYear != 0 {
			if !ok || year != q.BirthYear {
				continue
			}
			reason = ReasonBirthYear
		}
		if q.CollegeAge {
			if !ok || year < opts.CollegeMinBirthYear || opts.CollegeMinBirthYear == 0 {
				continue
			}
			if reason == ReasonName {
				reason = ReasonCollegeAge
			}
		}
		return Result{ID: c.ID, Country: c.Country, Reason: reason}
	}
	return Result{Reason: ReasonNoMatch}
}

// birthYear reads the trailing four digits of a registry birth date
// ("12 MAR 1999" or "1999").
func birthYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[len(date)-4:])
	if err != nil {
		return 0, false
	}
	return y, true
}
