package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTagLength is the longest tag name accepted, in characters.
const MaxTagLength = 50

// NormalizeText trims s and collapses every run of whitespace into one space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTagName returns the canonical form of a tag name. Names that only
// differ by Unicode composition or spacing map to the same tag.
func NormalizeTagName(raw string) (string, error) {
	name := NormalizeText(norm.NFC.String(raw))
	if name == "" {
		return "", errors.New("tag name is required")
	}
	if utf8.RuneCountInString(name) > MaxTagLength {
		return "", errors.New("tag name must not exceed 50 characters")
	}
	return name, nil
}

// NormalizeTagNames normalizes names and drops duplicates, keeping first-seen order.
func NormalizeTagNames(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		name, err := NormalizeTagName(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
