package ndarray

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sub stores a - b into dst. All three must share a shape; any may be a view.
func Sub(dst, a, b *Array) error {
	if !SameShape(dst.shape, a.shape) || !SameShape(a.shape, b.shape) {
		return fmt.Errorf("%w: sub %v - %v into %v", ErrShapeMismatch, a.shape, b.shape, dst.shape)
	}
	if dst.Contiguous() && a.Contiguous() && b.Contiguous() {
		floats.SubTo(dst.Data(), a.Data(), b.Data())
		return nil
	}
	// dst may alias a or b, so stage a - b before writing
	diff := a.Clone()
	zip(diff.shape, diff, b, func(od, ob int) {
		diff.data[od] -= b.data[ob]
	})
	return dst.Assign(diff)
}

// Abs returns a new contiguous array of |a|
func Abs(a *Array) *Array {
	r := a.Clone()
	for i, v := range r.data {
		r.data[i] = math.Abs(v)
	}
	return r
}

// Max returns the largest element of a. A NaN anywhere yields NaN, and an
// empty array yields -Inf.
func Max(a *Array) float64 {
	if a.Size() == 0 {
		return math.Inf(-1)
	}
	if a.Contiguous() {
		d := a.Data()
		if floats.HasNaN(d) {
			return math.NaN()
		}
		return floats.Max(d)
	}
	m := math.Inf(-1)
	nan := false
	a.walk(func(off int) {
		v := a.data[off]
		switch {
		case math.IsNaN(v):
			nan = true
		case v > m:
			m = v
		}
	})
	if nan {
		return math.NaN()
	}
	return m
}

// MaxAbs returns max(|a|) without allocating
func MaxAbs(a *Array) float64 {
	if a.Size() == 0 {
		return 0
	}
	m := 0.0
	nan := false
	a.walk(func(off int) {
		v := math.Abs(a.data[off])
		switch {
		case math.IsNaN(v):
			nan = true
		case v > m:
			m = v
		}
	})
	if nan {
		return math.NaN()
	}
	return m
}

// Invert returns the logical complement of m
func Invert(m *Mask) *Mask {
	r := m.Clone()
	for i, v := range r.data {
		r.data[i] = !v
	}
	return r
}

// Count returns the number of true cells in m
func Count(m *Mask) int {
	n := 0
	m.walk(func(off int) {
		if m.data[off] {
			n++
		}
	})
	return n
}

// ToFloat maps a mask onto 1 (true) and 0 (false)
func ToFloat(m *Mask) *Array {
	r := New[float64](m.shape...)
	i := 0
	m.walk(func(off int) {
		if m.data[off] {
			r.data[i] = 1
		}
		i++
	})
	return r
}

// FixedSet holds the pinned cells of a field: their row-major linear indices
// and the values they must keep.
type FixedSet struct {
	Shape   []int
	Indices []int
	Values  []float64
}

// Gather records the cells of values where mask is true
func Gather(values *Array, mask *Mask) (FixedSet, error) {
	if !SameShape(values.shape, mask.shape) {
		return FixedSet{}, fmt.Errorf("%w: values %v, mask %v", ErrShapeMismatch, values.shape, mask.shape)
	}
	fs := FixedSet{Shape: values.Shape()}
	i := 0
	zip(values.shape, values, mask, func(ov, om int) {
		if mask.data[om] {
			fs.Indices = append(fs.Indices, i)
			fs.Values = append(fs.Values, values.data[ov])
		}
		i++
	})
	return fs, nil
}

// Scatter writes the recorded values back into a
func (fs FixedSet) Scatter(a *Array) error {
	if !SameShape(fs.Shape, a.shape) {
		return fmt.Errorf("%w: fixed set %v, array %v", ErrShapeMismatch, fs.Shape, a.shape)
	}
	if a.Contiguous() {
		d := a.Data()
		for k, i := range fs.Indices {
			d[i] = fs.Values[k]
		}
		return nil
	}
	for k, i := range fs.Indices {
		off := a.offset
		for d := len(a.shape) - 1; d >= 0; d-- {
			off += (i % a.shape[d]) * a.strides[d]
			i /= a.shape[d]
		}
		a.data[off] = fs.Values[k]
	}
	return nil
}

func (fs FixedSet) Len() int { return len(fs.Indices) }

// Scale multiplies every addressed element of a by s in place
func Scale(a *Array, s float64) {
	if a.Contiguous() {
		floats.Scale(s, a.Data())
		return
	}
	a.walk(func(off int) {
		a.data[off] *= s
	})
}
