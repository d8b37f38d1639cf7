package aggregator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	"github.com/JakeFAU/diamond-entries/internal/identity"
	"github.com/JakeFAU/diamond-entries/internal/source"
)

const menListing = `<html><body>
<div class="gender_m">
  <h3>60 Meters</h3>
  <table><thead><tr><th>Name</th></tr></thead><tbody>
    <tr><td class="name"><a href="/athletes/1">Smith,  John</a></td><td class="team"><a>Oregon</a></td><td class="mark">6.61</td></tr>
    <tr><td class="name"><a href="/athletes/2">Brown, Ty</a></td><td class="team"><a>LSU</a></td><td class="mark"><span title="6.58 (converted)">6.70 @</span></td></tr>
    <tr><td class="name"><a href="/athletes/3">Late, Entry</a></td><td class="team"><a>Duke</a></td><td class="mark"></td></tr>
  </tbody></table>
</div>
<div class="gender_m">
  <h3>Long Jump</h3>
  <table><tbody><tr><td class="name"><a>Jumper, Joe</a></td></tr></tbody></table>
</div>
</body></html>`

const womenListing = `<html><body>
<div class="gender_f">
  <h3>Mile Run</h3>
  <table><tbody>
    <tr><td class="name"><a>Doe, Jane</a></td><td class="team"><a>Stanford</a></td><td class="mark">4:30.10</td></tr>
  </tbody></table>
</div>
</body></html>`

type stubResolver struct {
	calls int
	ids   map[string]identity.Result
}

func (s *stubResolver) Resolve(_ context.Context, q identity.Query) (identity.Result, error) {
	s.calls++
	if !q.CollegeAge || q.Discipline == "" || q.Gender == "" {
		return identity.Result{}, errors.New("missing hints")
	}
	return s.ids[q.Name()], nil
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	s, err := cache.Load(path)
	require.NoError(t, err)
	return s
}

func TestParseListing(t *testing.T) {
	t.Parallel()

	sections, err := ParseListing(menListing, "m", entries.GenderMen)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	sec := sections[0]
	assert.Equal(t, entries.Event("Men's 60 m"), sec.Event)
	require.Len(t, sec.Rows, 3)
	assert.Equal(t, Row{FirstName: "John", LastName: "Smith", Team: "Oregon", Mark: "6.61"}, sec.Rows[0])
	assert.Equal(t, "6.58", sec.Rows[1].Mark, "title attribute wins over displayed text")
	assert.Empty(t, sec.Rows[2].Mark)

	// The women's marker does not match the men's page.
	sections, err = ParseListing(menListing, "f", entries.GenderWomen)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestParseListingSkipsRelays(t *testing.T) {
	t.Parallel()

	page := `<div class="gender_m">
  <h3>4x400 Meter Relay</h3>
  <table><tbody><tr><td class="team"><a>Oregon</a></td><td class="mark">3:05.10</td></tr></tbody></table>
</div>
<div class="gender_m">
  <h3>400 Meters</h3>
  <table><tbody><tr><td class="name"><a>Runner, Ron</a></td><td class="team"><a>Duke</a></td><td class="mark">46.10</td></tr></tbody></table>
</div>`
	sections, err := ParseListing(page, "m", entries.GenderMen)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, entries.Event("Men's 400 m"), sections[0].Event)
	assert.Equal(t, "Ron", sections[0].Rows[0].FirstName)
}

func TestParseListingMissingElements(t *testing.T) {
	t.Parallel()

	_, err := ParseListing(`<div class="gender_m"><table></table></div>`, "m", entries.GenderMen)
	require.ErrorIs(t, err, source.ErrMissingElement)

	_, err = ParseListing(`<div class="gender_m"><h3>200 Meters</h3><table><tbody><tr><td class="team">x</td></tr></tbody></table></div>`, "m", entries.GenderMen)
	require.ErrorIs(t, err, source.ErrMissingElement)
}

func TestHarvest(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	var fetched []string
	f := fetcher.Func(func(_ context.Context, url string) ([]byte, error) {
		fetched = append(fetched, url)
		if strings.Contains(url, "gender=f") {
			return []byte(womenListing), nil
		}
		return []byte(menListing), nil
	})
	res := &stubResolver{ids: map[string]identity.Result{
		"John Smith": {ID: "111", Country: "USA", Reason: identity.ReasonCollegeAge},
		"Jane Doe":   {ID: "222", Country: "CAN", Reason: identity.ReasonCollegeAge},
	}}
	a := New(f, store, identity.NewCached(res, store), nil)
	assert.Equal(t, source.KindAggregator, a.Kind())

	checkpoints := 0
	target := source.Target{Meet: entries.MeetNCAAIndoor, Indoor: true, Source: "https://www.tfrrs.org/lists/4515"}
	out, err := a.Harvest(context.Background(), target, func() error { checkpoints++; return store.Flush() })
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.tfrrs.org/lists/4515?gender=m",
		"https://www.tfrrs.org/lists/4515?gender=f",
	}, fetched)

	men := out["Men's 60 m"]
	require.NotNil(t, men)
	assert.Empty(t, men.Date)
	require.Len(t, men.Entrants, 3)
	assert.Equal(t, "Brown", men.Entrants[0].LastName, "6.58 sorts first")
	assert.Equal(t, "111", men.Entrants[1].ID)
	assert.Equal(t, "USA", *men.Entrants[1].Nat)
	assert.Equal(t, "Oregon", *men.Entrants[1].Team)
	assert.Nil(t, men.Entrants[1].PB)
	assert.Equal(t, "Late", men.Entrants[2].LastName, "no mark sorts last")
	assert.Empty(t, men.Entrants[2].ID)
	assert.Nil(t, men.Entrants[2].Nat)

	women := out["Women's Mile"]
	require.NotNil(t, women)
	require.Len(t, women.Entrants, 1)
	assert.Equal(t, "222", women.Entrants[0].ID)
	assert.Equal(t, "4:30.10", *women.Entrants[0].SB)

	assert.Equal(t, 4, res.calls)
	assert.Equal(t, 6, checkpoints, "two documents and four resolutions")

	// A second run is served entirely from the cache.
	fetched = nil
	_, err = a.Harvest(context.Background(), target, func() error { return nil })
	require.NoError(t, err)
	assert.Empty(t, fetched)
	assert.Equal(t, 4, res.calls)
}

func TestListingURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://tfrrs.org/r?gender=f&x=1", listingURL("https://tfrrs.org/r?x=1", "f"))
}
