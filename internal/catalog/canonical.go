package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identifier is an external identifier of a book, e.g. an ISBN or a
// library catalog number.
type Identifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

// CanonicalName trims and collapses whitespace and title-cases the result.
// "  jANE   austen " becomes "Jane Austen".
func CanonicalName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

// CanonicalGenre trims and collapses whitespace. Genre names keep their case.
func CanonicalGenre(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// CanonicalIdentifier normalizes an identifier so equivalent spellings
// compare equal: the scheme is trimmed and lower-cased, separators and
// whitespace are dropped from the value and letters are upper-cased.
// ok is false when either part is empty after normalization.
func CanonicalIdentifier(id Identifier) (Identifier, bool) {
	scheme := strings.ToLower(strings.TrimSpace(id.Scheme))

	var b strings.Builder
	for _, r := range id.Value {
		if unicode.IsSpace(r) || isSeparator(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	value := b.String()

	if scheme == "" || value == "" {
		return Identifier{}, false
	}
	return Identifier{Scheme: scheme, Value: value}, true
}

// CanonicalIdentifiers canonicalizes ids and drops duplicates, keeping
// first-seen order. It fails with ErrInvalidValue on the first identifier
// that is empty after normalization.
func CanonicalIdentifiers(ids []Identifier) ([]Identifier, error) {
	seen := make(map[Identifier]struct{}, len(ids))
	out := make([]Identifier, 0, len(ids))
	for _, id := range ids {
		canonical, ok := CanonicalIdentifier(id)
		if !ok {
			return nil, ErrInvalidValue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

func isSeparator(r rune) bool {
	switch r {
	case '-', '_', '.', '/', '‐', '‑', '–', '—':
		return true
	}
	return false
}
