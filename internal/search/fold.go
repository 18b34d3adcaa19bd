// Package search holds the text normalization used by catalog lookups.
//
// Titles, synopses and genres are matched case-insensitively. SQL LOWER and
// LIKE are ASCII-only on SQLite, so the store keeps Unicode case-folded copies
// of those columns and queries compare against folded input:
//
//   - Fold(s) produces the canonical comparison form.
//   - ContainsPattern(q) produces an escaped LIKE pattern for substring search.
//
// The package has no database dependency; callers pair ContainsPattern with
// the LikeEscape character in their ESCAPE clause.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// LikeEscape is the escape character used in patterns built by ContainsPattern.
const LikeEscape = `\`

// Fold trims s, collapses inner whitespace runs to a single space and applies
// Unicode case folding. Fold("  Ação ") == Fold("AÇÃO").
func Fold(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// Casers are stateful; build one per call so Fold is goroutine-safe.
	return cases.Fold().String(s)
}

// ContainsPattern returns a LIKE pattern matching any folded text that
// contains the folded query q. The LIKE wildcards % and _ and the escape
// character itself are escaped so user input always matches literally.
// An empty q yields "".
func ContainsPattern(q string) string {
	f := Fold(q)
	if f == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(f) + 2)
	b.WriteByte('%')
	for _, r := range f {
		switch r {
		case '%', '_', '\\':
			b.WriteString(LikeEscape)
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}
