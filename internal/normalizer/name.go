// Package normalizer canonicalizes artist and venue names into the keys used for
// registry lookups.
package normalizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Leading and trailing tokens removed from names. Each pass strips at most one
// of each; passes repeat until the name stops changing.
var (
	leadingTokens  = []string{"the ", "dj ", "a "}
	trailingTokens = []string{" band", " music", " group"}
)

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'", "`", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-", "−", "-",
)

// NormalizeName returns the canonical form of a display name: lower-cased,
// quote and dash variants unified, whitespace collapsed and a leading article
// or trailing band/music/group token removed. It is idempotent.
func NormalizeName(raw string) string {
	s := norm.NFKC.String(raw)
	s = cases.Lower(language.Und).String(s)
	s = norm.NFKC.String(s)
	s = punctuation.Replace(s)
	s = CollapseWhitespace(s)

	for {
		prev := s

		for _, tok := range leadingTokens {
			if strings.HasPrefix(s, tok) {
				s = strings.TrimSpace(s[len(tok):])

				break
			}
		}

		for _, tok := range trailingTokens {
			if strings.HasSuffix(s, tok) {
				s = strings.TrimSpace(s[:len(s)-len(tok)])

				break
			}
		}

		if s == prev {
			return s
		}
	}
}

// CollapseWhitespace trims s and replaces every whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
