package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Namespace identifies a set of entities whose slugs must not collide.
type Namespace string

const (
	Categories Namespace = "categories"
	Profiles   Namespace = "profiles"
)

func (n Namespace) String() string { return string(n) }

// Make normalizes source into a URL-safe slug. It never fails; input without a single
// allowed character yields "".
func Make(source string) string {
	if source == "" {
		return ""
	}

	// transform.Chain keeps state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, source)
	if err != nil {
		decomposed = source
	}

	var filtered strings.Builder
	filtered.Grow(len(decomposed))
	for _, r := range decomposed {
		if allowed(r) {
			filtered.WriteRune(r)
		}
	}

	trimmed := strings.Trim(filtered.String(), " ")

	var b strings.Builder
	b.Grow(len(trimmed))
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c == ' ' || c == '-' {
			if b.Len() > 0 && lastByte(&b) == '-' {
				continue
			}
			b.WriteByte('-')
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Valid reports whether s is a non-empty slug in canonical form.
func Valid(s string) bool {
	return s != "" && Make(s) == s
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_', r == ' ':
		return true
	}
	return false
}

func lastByte(b *strings.Builder) byte {
	s := b.String()
	return s[len(s)-1]
}
