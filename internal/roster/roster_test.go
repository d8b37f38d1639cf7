package roster

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
)

const womenDay1 = `Women's Results Day 1
60 Meters
1 Jane Doe 14 Team X A
2 Mary Major 3 Team Y
60 Meter Hurdles
1 Ann Hurd 5 Team Z A
Pentathlon
1 Kate Multi 2 Team Q A
Mile
1 Sue Miler 7 Team R A
Two Mile
1 Tina Two 9 Team S A
`

func newFilter(t *testing.T, body string, maxEntrants int) *Filter {
	t.Helper()
	f, err := New(Config{
		Meet:        entries.MeetMillrose,
		MaxEntrants: maxEntrants,
		Listings:    []Listing{{Gender: entries.GenderWomen, Day: 1, URL: "https://listings.test/w1.txt"}},
	}, fetcher.Func(func(_ context.Context, _ string) ([]byte, error) {
		return []byte(body), nil
	}), nil)
	require.NoError(t, err)
	return f
}

func person(first, last string) entries.Entrant {
	return entries.Entrant{FirstName: first, LastName: last}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"60 Meters":              "60 m",
		"800m":                   "800 m",
		"3000 Metres Steeple":    "3000 m Steeplechase",
		"3000m Steeplechase":     "3000 m Steeplechase",
		"60 Meter Hurdles":       "60 m Hurdles",
		"110m High Hurdles":      "110 m Hurdles",
		"Two Mile":               "2 Miles",
		"2-Miles":                "2 Miles",
		"1 Mile":                 "Mile",
		"1 Jane Doe 14 Team X A": "1 Jane Doe 14 Team X A",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestSplitAndMatch(t *testing.T) {
	t.Parallel()

	labels := Labels(entries.GenderWomen)
	sections := Split(strings.ToLower(Normalize(womenDay1)), labels)
	require.Len(t, sections, 4)

	var got []entries.Event
	for _, sec := range sections {
		ev, ok := MatchSection(sec, labels)
		require.True(t, ok, sec.Text)
		got = append(got, ev)
	}
	assert.Equal(t, []entries.Event{
		"Women's 60 m",
		"Women's 60 m Hurdles",
		"Women's Mile",
		"Women's 2 Miles",
	}, got)
	for _, sec := range sections {
		assert.NotContains(t, sec.Text, "kate multi")
	}
	assert.Contains(t, sections[2].Text, "sue miler")
}

func TestSplitDropsCombinedSubEvents(t *testing.T) {
	t.Parallel()

	const listing = `60 Meter Hurdles
1 Ann Hurd 5 Team Z A
2 Bea Fast 6 Team Y A
Pentathlon 60 Meter Hurdles
1 Kate Multi 2 Team Q A
Pentathlon 800 Meters
1 Kate Multi 2 Team Q A
800 Meters
1 Olga Eight 4 Team P A
`
	labels := Labels(entries.GenderWomen)
	sections := Split(strings.ToLower(Normalize(listing)), labels)
	require.Len(t, sections, 2)

	ev, ok := MatchSection(sections[0], labels)
	require.True(t, ok)
	assert.Equal(t, entries.Event("Women's 60 m Hurdles"), ev)
	assert.Contains(t, sections[0].Text, "bea fast")
	ev, ok = MatchSection(sections[1], labels)
	require.True(t, ok)
	assert.Equal(t, entries.Event("Women's 800 m"), ev)
	for _, sec := range sections {
		assert.NotContains(t, sec.Text, "kate multi")
	}
}

func TestSplitIgnoresLabelsInsideLines(t *testing.T) {
	t.Parallel()

	const listing = `Men's Day 2
Mile
1 Tom Quick 60 m specialist 3 Team A A
2 Sam Steady 4 Team B A
`
	labels := Labels(entries.GenderMen)
	sections := Split(strings.ToLower(Normalize(listing)), labels)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Text, "sam steady")
}

func TestSplitSteeplechase(t *testing.T) {
	t.Parallel()

	const listing = `3000 Metres Steeple
1 Emma Water 8 Team W A
`
	labels := Labels(entries.GenderWomen)
	sections := Split(strings.ToLower(Normalize(listing)), labels)
	require.Len(t, sections, 1)
	ev, ok := MatchSection(sections[0], labels)
	require.True(t, ok)
	assert.Equal(t, entries.Event("Women's 3000 m Steeplechase"), ev)
}

func TestApplyKeepsHurdlersBesideCombinedBlock(t *testing.T) {
	t.Parallel()

	const listing = "60 Meter Hurdles\n1 Ann Hurd 5 Team Z A\n2 Bea Fast 6 Team Y A\n" +
		"Pentathlon 60 Meter Hurdles\n1 Kate Multi 2 Team Q A\n"
	e := entries.Entries{}
	e.Put(entries.MeetMillrose, "Women's 60 m Hurdles", &entries.EventEntry{Entrants: []entries.Entrant{
		person("Ann", "Hurd"), person("Bea", "Fast"),
	}})

	stats, err := newFilter(t, listing, 0).Apply(context.Background(), e, true)
	require.NoError(t, err)
	assert.Equal(t, []entries.Entrant{person("Ann", "Hurd"), person("Bea", "Fast")},
		e.Get(entries.MeetMillrose, "Women's 60 m Hurdles").Entrants)
	assert.Equal(t, 1, stats.Sections)
	assert.Zero(t, stats.Dropped)
}

func TestMatchSectionNone(t *testing.T) {
	t.Parallel()

	_, ok := MatchSection(Section{Text: "long jump\n1 a b"}, Labels(entries.GenderMen))
	assert.False(t, ok)
}

func TestFilterEntrantsReview(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "", 0)
	jane := []entries.Entrant{person("Jane", "Doe")}
	confirmed := Section{Text: "60 m\n1 Jane Doe 14 Team X A\n"}
	unconfirmed := Section{Text: "60 m\n1 Jane Doe 14 Team X\n"}

	assert.Equal(t, jane, f.FilterEntrants(jane, confirmed, true))
	assert.Empty(t, f.FilterEntrants(jane, unconfirmed, true))
	assert.Equal(t, jane, f.FilterEntrants(jane, unconfirmed, false))
	assert.Equal(t, jane, f.FilterEntrants(jane, confirmed, false))
}

func TestFilterEntrantsCaseInsensitiveAndBlank(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "", 0)
	list := []entries.Entrant{person("", ""), person("JANE", "doe"), person("Nobody", "Here")}
	got := f.FilterEntrants(list, Section{Text: "60 m\n1 jane doe 14 team x a"}, false)
	assert.Equal(t, []entries.Entrant{person("JANE", "doe")}, got)
}

func TestFilterEntrantsCap(t *testing.T) {
	t.Parallel()

	f := newFilter(t, "", 0)
	var (
		list []entries.Entrant
		text = "60 m\n"
	)
	for i := 0; i < 20; i++ {
		last := fmt.Sprintf("Runner%02d", i)
		list = append(list, person("Ann", last))
		text += fmt.Sprintf("%d Ann %s 1 Team A\n", i+1, last)
	}
	got := f.FilterEntrants(list, Section{Text: text}, true)
	require.Len(t, got, DefaultMaxEntrants)
	assert.Equal(t, list[:DefaultMaxEntrants], got)
}

func TestApply(t *testing.T) {
	t.Parallel()

	build := func() entries.Entries {
		e := entries.Entries{}
		e.Put(entries.MeetMillrose, "Women's 60 m", &entries.EventEntry{Entrants: []entries.Entrant{
			person("Jane", "Doe"), person("Mary", "Major"), person("Ghost", "Runner"),
		}})
		e.Put(entries.MeetMillrose, "Women's 60 m Hurdles", &entries.EventEntry{Entrants: []entries.Entrant{
			person("Ann", "Hurd"),
		}})
		e.Put(entries.MeetMillrose, "Men's 60 m", &entries.EventEntry{Entrants: []entries.Entrant{
			person("Left", "Alone"),
		}})
		return e
	}

	e := build()
	stats, err := newFilter(t, womenDay1, 0).Apply(context.Background(), e, true)
	require.NoError(t, err)
	assert.Equal(t, []entries.Entrant{person("Jane", "Doe")}, e.Get(entries.MeetMillrose, "Women's 60 m").Entrants)
	assert.Len(t, e.Get(entries.MeetMillrose, "Women's 60 m Hurdles").Entrants, 1)
	assert.Len(t, e.Get(entries.MeetMillrose, "Men's 60 m").Entrants, 1)
	assert.Equal(t, 4, stats.Sections)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 2, stats.Dropped)

	e = build()
	_, err = newFilter(t, womenDay1, 0).Apply(context.Background(), e, false)
	require.NoError(t, err)
	assert.Equal(t, []entries.Entrant{person("Jane", "Doe"), person("Mary", "Major")},
		e.Get(entries.MeetMillrose, "Women's 60 m").Entrants)
}

func TestApplyFetchError(t *testing.T) {
	t.Parallel()

	f, err := New(Config{Listings: []Listing{{Gender: entries.GenderMen, Day: 2, URL: "x"}}},
		fetcher.Func(func(context.Context, string) ([]byte, error) { return nil, assert.AnError }), nil)
	require.NoError(t, err)
	_, err = f.Apply(context.Background(), entries.Entries{}, false)
	require.ErrorIs(t, err, assert.AnError)
}

func TestNewRequiresFetcher(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	require.Error(t, err)
}
