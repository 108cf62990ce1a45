package envcheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersion compares current against required.
// Satisfied is true iff current >= required under [CompareVersions].
func CheckVersion(current, required string) VersionCheckResult {
	return VersionCheckResult{
		Current:   current,
		Required:  required,
		Satisfied: CompareVersions(current, required) >= 0,
	}
}

// CompareVersions returns -1, 0 or +1 depending on whether a is lower than,
// equal to or greater than b.
//
// Segments are compared numerically; missing segments count as 0.
// Anything after the release core (pre-release or distribution suffixes)
// is ignored, as is a leading "v". Malformed input never panics: a segment
// that is not a number compares as 0.
func CompareVersions(a, b string) int {
	as, bs := releaseCore(a), releaseCore(b)
	n := max(len(as), len(bs))
	for i := range n {
		x, y := segment(as, i), segment(bs, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func segment(segs []uint64, i int) uint64 {
	if i < len(segs) {
		return segs[i]
	}
	return 0
}

// releaseCore extracts the leading dotted-numeric part of v.
func releaseCore(v string) []uint64 {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	if end := strings.IndexFunc(v, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); end >= 0 {
		v = v[:end]
	}

	parts := strings.Split(v, ".")
	segs := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			n = 0
		}
		segs = append(segs, n)
	}
	return segs
}

// CheckConstraint evaluates a semver constraint such as "< 9.0" or
// ">= 8.1, < 8.4" against the release core of current.
func CheckConstraint(current, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parse constraint %q: %w", constraint, err)
	}
	segs := releaseCore(current)
	return c.Check(semver.New(segment(segs, 0), segment(segs, 1), segment(segs, 2), "", "")), nil
}
