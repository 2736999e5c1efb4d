// Package moderation holds the read-only username rules and user tags.
package moderation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Username length bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

var leet = strings.NewReplacer( //nolint:gochecknoglobals // read-only
	"0", "o", "1", "i", "3", "e", "4", "a", "5", "s", "7", "t", "8", "b", "9", "g",
	"_", "", ".", "", "-", "",
)

// DefaultBannedTerms are reserved or offensive fragments rejected in usernames.
func DefaultBannedTerms() []string {
	return []string{
		"admin", "moderator", "support", "official", "goosetrials",
		"fuck", "shit", "bitch", "cunt", "nazi", "hitler", "porn", "whore", "slut", "rape",
	}
}

// Rules is built once at start-up and never mutated.
type Rules struct {
	banned []string
	tags   map[string]string
}

// NewRules builds rules from banned terms and a user-id to tag map.
// Terms are folded the same way usernames are, so "4dm1n" matches "admin".
func NewRules(banned []string, tags map[string]string) *Rules {
	r := &Rules{tags: make(map[string]string, len(tags))}
	for _, term := range banned {
		if f := fold(term); f != "" {
			r.banned = append(r.banned, f)
		}
	}
	for id, tag := range tags {
		r.tags[id] = tag
	}
	return r
}

// ValidateUsername checks length, charset and banned terms in that order.
func (r *Rules) ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("%w: got %d", ErrUsernameLength, n)
	}
	for _, c := range name {
		if !allowed(c) {
			return fmt.Errorf("%w: %q", ErrUsernameCharset, c)
		}
	}
	folded := fold(name)
	for _, term := range r.banned {
		if strings.Contains(folded, term) {
			return ErrUsernameBanned
		}
	}
	return nil
}

// Tag returns the display tag configured for userID, if any.
func (r *Rules) Tag(userID string) string {
	return r.tags[userID]
}

func allowed(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-':
		return true
	}
	return false
}

func fold(s string) string {
	return leet.Replace(strings.ToLower(strings.TrimSpace(s)))
}
