package identity

// defaultAliases maps a folded query last name to the folded family names the
// registry files the same athlete under.
var defaultAliases = map[string][]string{
	"mclaughlin": {"mclaughlin-levrone"},
	"mu":         {"mu-nikolayev"},
	"ta lou":     {"ta lou-smith"},
	"thompson":   {"thompson-herah"},
	"fraser":     {"fraser-pryce"},
	"tsegay":     {"tsegaye"},
	"girma":      {"girma mekonen"},
}

// Aliases merges extra into the built-in table. Keys and values are folded.
func Aliases(extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		out[k] = append([]string(nil), v...)
	}
	for k, vs := range extra {
		key := Fold(k)
		for _, v := range vs {
			out[key] = append(out[key], Fold(v))
		}
	}
	return out
}
