package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tells which name is the profile's primary label.
type Kind string

const (
	Business   Kind = "business"
	Individual Kind = "individual"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == Business || k == Individual
}

// Profile is a directory entry addressed publicly by its slug.
type Profile struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Kind         Kind      `json:"kind"`
	BusinessName string    `json:"business_name"`
	PersonalName string    `json:"personal_name"`
	Slug         string    `json:"slug"`
	ID           uuid.UUID `json:"id"`
	ManualSlug   bool      `json:"manual_slug"`
}

// Label returns the name the slug is derived from: the name matching the kind, or the
// other one when that is blank.
func (p Profile) Label() string {
	primary, secondary := p.PersonalName, p.BusinessName
	if p.Kind == Business {
		primary, secondary = p.BusinessName, p.PersonalName
	}
	if s := strings.TrimSpace(primary); s != "" {
		return s
	}
	return strings.TrimSpace(secondary)
}

// CreateInput describes a new profile. A non-empty Slug is used instead of the label and
// freezes the slug.
type CreateInput struct {
	Kind         Kind
	BusinessName string
	PersonalName string
	Slug         string
}

// LabelInput replaces both names of a profile.
type LabelInput struct {
	BusinessName string
	PersonalName string
}

// Availability is the answer to a slug check.
type Availability struct {
	// Slug is the normalized form of the requested value.
	Slug string `json:"slug"`
	// Suggestion is what a new profile asking for Slug would receive.
	Suggestion string `json:"suggestion"`
	Taken      bool   `json:"taken"`
}
