package builtin

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugifyFilter turns arbitrary heading text into an anchor-friendly slug:
// diacritics stripped, lowercased, runs of non-alphanumerics collapsed to
// single hyphens.
func slugifyFilter(in any, _ ...any) (any, error) {
	s, ok := in.(string)
	if !ok {
		return nil, fmt.Errorf("slugify: expected string, got %T", in)
	}
	return Slugify(s), nil
}

// Slugify is the filter's implementation, exported for reuse by the link
// report module when anchoring section names.
func Slugify(s string) string {
	// Decompose, drop combining marks, recompose. "Crème" becomes "Creme".
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
