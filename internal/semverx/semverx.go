// Package semverx wraps github.com/Masterminds/semver/v3 to implement
// the two runtime-version compatibility policies of spec §4.2:
// (major, minor) equality for Python/Ruby/Rust/Scala, and
// major-or-higher for Node/.NET/Java.
package semverx

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Policy selects which comparison rule check uses.
type Policy int

const (
	// MinorMatch requires required.Major == current.Major and
	// required.Minor == current.Minor; a bare-major requirement ("3")
	// only needs the majors to match.
	MinorMatch Policy = iota
	// MajorOrHigher requires current.Major >= required.Major (same
	// major line or newer).
	MajorOrHigher
)

// coerce parses a possibly-partial version string ("3.11", "8", "1.21")
// into a semver.Version, padding missing components with zero so
// Masterminds/semver (which requires major.minor.patch) can parse it.
func coerce(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(raw)
	if err == nil {
		return v, nil
	}
	// Try appending .0 components until it parses or we give up.
	padded := raw
	for i := 0; i < 2; i++ {
		padded += ".0"
		if v, err = semver.NewVersion(padded); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot parse version %q: %w", raw, err)
}

// Compatible reports whether current satisfies required under policy.
// A parse failure on either side is treated as compatible (no downgrade
// attempt, no false rejection on a malformed version string) matching
// the original's forgiving fallback.
func Compatible(required, current string, policy Policy) bool {
	req, err := coerce(required)
	if err != nil {
		return true
	}
	cur, err := coerce(current)
	if err != nil {
		return true
	}
	switch policy {
	case MajorOrHigher:
		return cur.Major() >= req.Major()
	default:
		if !strings.Contains(required, ".") {
			return cur.Major() == req.Major()
		}
		return cur.Major() == req.Major() && cur.Minor() == req.Minor()
	}
}
