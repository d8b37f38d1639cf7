package source

import (
	"strings"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

// SplitListName splits a "Last, First" cell. Runs of whitespace collapse and
// a cell without a comma is treated as a bare last name.
func SplitListName(cell string) (first, last string) {
	lastPart, firstPart, found := strings.Cut(cell, ",")
	last = strings.Join(strings.Fields(lastPart), " ")
	if found {
		first = strings.Join(strings.Fields(firstPart), " ")
	}
	return first, last
}

// DedupeByName keeps the first entrant for each "first last" name, ignoring case.
func DedupeByName(list []entries.Entrant) []entries.Entrant {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, e := range list {
		key := strings.ToLower(e.FullName())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
