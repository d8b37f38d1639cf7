package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldPromote(t *testing.T) {
	t.Parallel()

	longTable := "<table>" + strings.Repeat("<tr><td>Doe, John</td><td>9.95</td></tr>", 20) + "</table>"
	cases := []struct {
		name string
		body string
		want bool
	}{
		{name: "empty", body: "  \n", want: true},
		{name: "empty next mount", body: `<html><body><div id="__next"></div></body></html>`, want: true},
		{name: "script shell", body: `<html><body><script src="/app.js"></script><p>Loading</p></body></html>`, want: true},
		{name: "static page", body: "<html><body><p>Results</p>" + longTable + "</body></html>", want: false},
		{name: "server rendered mount", body: `<html><body><div id="root">` + longTable + `</div><script>hydrate()</script></body></html>`, want: false},
	}
	h := NewHeuristic(200)
	for _, tc := range cases {
		assert.Equal(t, tc.want, h.ShouldPromote([]byte(tc.body)), tc.name)
	}
}

func TestNewHeuristicDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultMinTextLength, NewHeuristic(0).MinTextLength)
}
