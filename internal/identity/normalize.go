package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics and case so that "Ngõ" and "NGO" compare equal.
// Inner whitespace collapses to single spaces.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(out)), " ")
}

// nameForms lists the folded spellings a registry family name may take for
// the given query. Order matters only for readability of test failures.
func nameForms(first, last string, aliases map[string][]string) []string {
	l := Fold(last)
	forms := []string{l}
	if words := strings.Fields(l); len(words) > 1 {
		forms = append(forms,
			words[0],
			strings.Join(words[:len(words)-1], " "),
			words[len(words)-1],
		)
	}
	if i := strings.Index(l, "-"); i > 0 {
		forms = append(forms, l[:i])
	}
	if f := Fold(first); f != "" {
		forms = append(forms, f)
	}
	forms = append(forms, aliases[l]...)
	return forms
}
