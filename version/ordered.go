package version

import (
	"strconv"
	"strings"

	"github.com/teranos/qlint/errors"
)

// Ordered is a dotted version string such as "5.2", "6.7.0.1234" or
// "4.1-SNAPSHOT", comparable without any floating-point interpretation.
//
// Comparison is component-wise over the dot-separated segments. Two numeric
// segments compare numerically; otherwise they compare as strings. Missing
// trailing segments count as zero, so "4" == "4.0" == "4.0.0". A qualifier
// (anything after the first '-') sorts before the same version without one:
// "4.1-SNAPSHOT" < "4.1".
type Ordered struct {
	raw       string
	segments  []string
	qualifier string
}

// Parse parses a dotted version string.
func Parse(s string) (Ordered, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Ordered{}, errors.Wrap(errors.ErrInvalidRequest, "empty version")
	}

	body, qualifier, _ := strings.Cut(raw, "-")
	if body == "" {
		return Ordered{}, errors.Wrapf(errors.ErrInvalidRequest, "version %q has no numeric part", raw)
	}

	segments := strings.Split(body, ".")
	for _, seg := range segments {
		if seg == "" {
			return Ordered{}, errors.Wrapf(errors.ErrInvalidRequest, "version %q has an empty segment", raw)
		}
	}

	return Ordered{raw: raw, segments: segments, qualifier: qualifier}, nil
}

// MustParse is like Parse but panics on malformed input. Use it for constants.
func MustParse(s string) Ordered {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as it was parsed.
func (v Ordered) String() string {
	return v.raw
}

// Qualifier returns the part after the first '-', if any.
func (v Ordered) Qualifier() string {
	return v.qualifier
}

// Compare returns -1, 0 or +1 depending on whether v is lower than, equal to
// or greater than o.
func (v Ordered) Compare(o Ordered) int {
	n := max(len(v.segments), len(o.segments))
	for i := 0; i < n; i++ {
		if c := compareSegment(segmentAt(v.segments, i), segmentAt(o.segments, i)); c != 0 {
			return c
		}
	}

	switch {
	case v.qualifier == o.qualifier:
		return 0
	case v.qualifier == "":
		return 1
	case o.qualifier == "":
		return -1
	default:
		return strings.Compare(v.qualifier, o.qualifier)
	}
}

// Equal reports whether v and o denote the same version.
func (v Ordered) Equal(o Ordered) bool { return v.Compare(o) == 0 }

// Less reports whether v is strictly lower than o.
func (v Ordered) Less(o Ordered) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v >= o. An installed version "meets" a minimum
// exactly when installed.AtLeast(minimum).
func (v Ordered) AtLeast(o Ordered) bool { return v.Compare(o) >= 0 }

// AtMost reports whether v <= o.
func (v Ordered) AtMost(o Ordered) bool { return v.Compare(o) <= 0 }

func segmentAt(segments []string, i int) string {
	if i < len(segments) {
		return segments[i]
	}
	return "0"
}

func compareSegment(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)

	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case errA == nil:
		// numeric segments sort before textual ones
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
