// Package detector recognizes client-rendered pages whose plain HTTP body is
// an empty application shell, so they can be refetched with a browser.
package detector

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinTextLength is the visible-text length below which a page that
// ships scripts is treated as a shell.
const DefaultMinTextLength = 2048

// Mount points of common client-side frameworks.
var mountPoints = []string{"#__next", "#root", "#app", "[data-reactroot]"}

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	MinTextLength int
}

// NewHeuristic creates a detector. A zero threshold uses DefaultMinTextLength.
func NewHeuristic(minTextLength int) Heuristic {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return Heuristic{MinTextLength: minTextLength}
}

// ShouldPromote reports whether body looks like it needs a browser to render:
// it is empty, a framework mount point arrived empty, or it has scripts and
// little visible text.
func (h Heuristic) ShouldPromote(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	for _, sel := range mountPoints {
		mount := doc.Find(sel)
		if mount.Length() > 0 && strings.TrimSpace(mount.Text()) == "" {
			return true
		}
	}
	scripts := doc.Find("script")
	if scripts.Length() == 0 {
		return false
	}
	scripts.Remove()
	doc.Find("style, noscript").Remove()
	visible := len(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	return visible < h.MinTextLength
}
