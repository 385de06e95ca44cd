// Package boundary refreshes the one-cell halo of a padded field from its
// interior, once per relaxation step, according to a per-axis condition.
package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/relax/ndarray"
)

// ErrDimensionMismatch is returned when the number of conditions differs from
// the dimensionality of the array they are applied to.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Condition selects how the halo of one axis is filled
type Condition int

const (
	// Fixed mirrors the nearest interior slice into each halo slice (zero
	// gradient across the edge). The halo is not clamped to a constant.
	Fixed Condition = iota
	// Periodic wraps the axis so its two ends are neighbours.
	Periodic
)

func (c Condition) String() string {
	switch c {
	case Fixed:
		return "fixed"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("Condition(%d)", int(c))
	}
}

// Parse reads a comma separated list such as "fixed,periodic". Entries
// starting with "per" are periodic and entries starting with "fix" are fixed.
func Parse(s string) ([]Condition, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("boundary: empty edge condition list")
	}
	parts := strings.Split(s, ",")
	conds := make([]Condition, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case strings.HasPrefix(p, "per"):
			conds = append(conds, Periodic)
		case strings.HasPrefix(p, "fix"):
			conds = append(conds, Fixed)
		default:
			return nil, fmt.Errorf("boundary: unknown edge condition %q", p)
		}
	}
	return conds, nil
}

// Format is the inverse of Parse
func Format(conds []Condition) string {
	s := make([]string, len(conds))
	for i, c := range conds {
		s[i] = c.String()
	}
	return strings.Join(s, ",")
}

// FromPeriodic converts one periodic flag per axis into conditions
func FromPeriodic(periodic ...bool) []Condition {
	conds := make([]Condition, len(periodic))
	for i, p := range periodic {
		if p {
			conds[i] = Periodic
		}
	}
	return conds
}

// Check verifies that conds has one entry per axis of a
func Check[T any](a *ndarray.Dense[T], conds []Condition) error {
	if len(conds) != a.NDim() {
		return fmt.Errorf("%w: %d edge conditions for %d-D array", ErrDimensionMismatch, len(conds), a.NDim())
	}
	for d, c := range conds {
		if c != Fixed && c != Periodic {
			return fmt.Errorf("boundary: invalid condition %v on axis %d", c, d)
		}
	}
	return nil
}

// Apply rewrites the halo of the padded array a, axis by axis. Each halo
// slice spans the full padded extent of the other axes, so corners take the
// value written by the last axis processed.
//
// With n the padded extent of axis d:
//
//	Periodic: a[0] = a[n-2], a[n-1] = a[1]
//	Fixed:    a[0] = a[1],   a[n-1] = a[n-2]
func Apply[T any](a *ndarray.Dense[T], conds []Condition) error {
	if err := Check(a, conds); err != nil {
		return err
	}
	shape := a.Shape()
	for d := range conds {
		if n := shape[d]; n < 3 {
			return fmt.Errorf("boundary: padded extent %d on axis %d leaves no interior", n, d)
		}
	}
	for d, c := range conds {
		n := shape[d]
		lowHalo, highHalo := a.Slice(d, 0, 1), a.Slice(d, n-1, n)
		first, last := a.Slice(d, 1, 2), a.Slice(d, n-2, n-1)

		var lowSrc, highSrc *ndarray.Dense[T]
		switch c {
		case Periodic:
			lowSrc, highSrc = last, first
		default:
			lowSrc, highSrc = first, last
		}
		if err := lowHalo.Assign(lowSrc); err != nil {
			return err
		}
		if err := highHalo.Assign(highSrc); err != nil {
			return err
		}
	}
	return nil
}
