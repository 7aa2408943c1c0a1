package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func policy() *bluemonday.Policy {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Label reduces a display label to a single line of plain text.
// Markup is stripped, entities are decoded, control characters are dropped
// and runs of whitespace collapse to one space.
func Label(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(policy().Sanitize(s))

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsControl(r):
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LabelPtr applies Label to an optional field, keeping nil as nil.
func LabelPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Label(*s)
	return &v
}
