package models

import (
	"fmt"
	"strings"
)

// IdentityKey canonically identifies one student across sessions. It takes
// one of two forms: "id:<identifier>" when a student identifier is known,
// or "<preferred>|<last>" built from the name pair. Keys are lowercase so
// that records written with inconsistent casing still join.
type IdentityKey string

// NewIdentityKey builds the canonical key for a student. An explicit student
// identifier always wins over the name pair; the name pair requires both
// parts. Construction happens here and nowhere else.
func NewIdentityKey(studentIdentifier, preferredName, lastName string) (IdentityKey, error) {
	id := normalizeIdentityPart(studentIdentifier)
	if id != "" {
		return IdentityKey("id:" + id), nil
	}

	preferred := normalizeIdentityPart(preferredName)
	last := normalizeIdentityPart(lastName)
	if preferred == "" || last == "" {
		return "", fmt.Errorf("identity requires a student identifier or both preferred and last name")
	}

	return IdentityKey(preferred + "|" + last), nil
}

// HasStudentIdentifier reports whether the key was built from an explicit
// student identifier rather than a name pair.
func (k IdentityKey) HasStudentIdentifier() bool {
	return strings.HasPrefix(string(k), "id:")
}

// StudentIdentifier returns the raw identifier for "id:" keys, or "".
func (k IdentityKey) StudentIdentifier() string {
	if !k.HasStudentIdentifier() {
		return ""
	}
	return strings.TrimPrefix(string(k), "id:")
}

// NameParts returns the (preferred, last) pair for name-based keys.
// Both are "" for identifier-based keys.
func (k IdentityKey) NameParts() (string, string) {
	if k.HasStudentIdentifier() {
		return "", ""
	}
	parts := strings.SplitN(string(k), "|", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func (k IdentityKey) String() string {
	return string(k)
}

func normalizeIdentityPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
