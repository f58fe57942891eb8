// Package normalize canonicalizes free-text names and company domains into the
// restricted character set used to compose email addresses.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonNameRe    = regexp.MustCompile(`[^a-z\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
	schemeRe     = regexp.MustCompile(`^https?://`)
)

// Name lower-cases a personal name, strips diacritical marks and keeps only
// ASCII letters separated by single spaces. "  José-María " becomes "josemaria".
func Name(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	// Chained transformers carry state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, err := transform.String(stripMarks, strings.ToLower(raw))
	if err != nil {
		return ""
	}

	name = nonNameRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Domain reduces a website or domain input to a bare host name:
// "https://www.Acme.com:443/about" becomes "acme.com".
func Domain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	if domain == "" {
		return ""
	}

	domain = schemeRe.ReplaceAllString(domain, "")
	domain = strings.TrimPrefix(domain, "www.")

	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.IndexByte(domain, ':'); i >= 0 {
		domain = domain[:i]
	}

	return strings.TrimSpace(domain)
}
