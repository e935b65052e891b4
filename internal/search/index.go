// Package search builds n-gram fields for user documents and matches
// free-text terms against them with array-membership queries.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stored field names on user documents.
const (
	FieldText   = "searchText"
	FieldGrams2 = "searchGrams2"
	FieldGrams3 = "searchGrams3"
)

// Fields are the derived search fields of one user. They are always
// rebuilt together from username and displayName.
type Fields struct {
	Text   string
	Grams2 []string
	Grams3 []string
}

// Normalize lowercases s, strips diacritics, trims it and collapses inner
// whitespace runs to a single space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Grams returns the distinct n-rune substrings of s in order of first
// appearance. A string shorter than n has none.
func Grams(s string, n int) []string {
	r := []rune(s)
	if n <= 0 || len(r) < n {
		return []string{}
	}
	seen := make(map[string]struct{}, len(r))
	out := make([]string, 0, len(r)-n+1)
	for i := 0; i+n <= len(r); i++ {
		g := string(r[i : i+n])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Build derives the search fields for a user. The stored gram sets are
// sorted so rebuilding from the same input yields identical documents.
func Build(username, displayName string) Fields {
	text := Normalize(username)
	if dn := Normalize(displayName); dn != "" {
		text = strings.TrimSpace(text + " " + dn)
	}
	g2 := Grams(text, 2)
	g3 := Grams(text, 3)
	sort.Strings(g2)
	sort.Strings(g3)
	return Fields{Text: text, Grams2: g2, Grams3: g3}
}
