// Package identifier formats and parses X-Road hierarchical identifiers.
package identifier

import (
	"fmt"
	"strings"
)

// Join converts an identifier in the form of a segment sequence into its
// canonical slash-separated string form. Segments are assumed to be
// path-safe; forbidden characters are the responsibility of upstream
// federation hygiene.
func Join(segments []string) string {
	return strings.Join(segments, "/")
}

// Kind names the identifier shape being parsed, used only to pick the
// accepted segment counts.
type Kind int

const (
	// KindClient accepts 3 segments (member) or 4 (subsystem).
	KindClient Kind = iota
	// KindSubsystem requires exactly 4 segments.
	KindSubsystem
	// KindService accepts 5 (service code, no version) or 6 (service code
	// and version) segments.
	KindService
)

// Parse splits a canonical identifier string on "/" and validates the
// segment count for the requested kind.
func Parse(path string, kind Kind) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("identifier: empty identifier")
	}
	segments := strings.Split(path, "/")

	var ok bool
	switch kind {
	case KindClient:
		ok = len(segments) == 3 || len(segments) == 4
	case KindSubsystem:
		ok = len(segments) == 4
	case KindService:
		ok = len(segments) == 5 || len(segments) == 6
	default:
		return nil, fmt.Errorf("identifier: unknown kind %d", kind)
	}
	if !ok {
		return nil, fmt.Errorf("identifier: %q has %d segments, not valid for this kind", path, len(segments))
	}
	return segments, nil
}
