package boundary

import (
	"testing"

	"github.com/notargets/relax/ndarray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// padded 3x4 ramp, halo zero
func paddedRamp(t *testing.T) *ndarray.Array {
	a := ndarray.New[float64](3, 4)
	for i := range a.Data() {
		a.Data()[i] = float64(i)
	}
	return ndarray.Pad(a)
}

func row(a *ndarray.Array, i int) []float64 {
	return a.Slice(0, i, i+1).Clone().Data()
}

func col(a *ndarray.Array, j int) []float64 {
	return a.Slice(1, j, j+1).Clone().Data()
}

func TestParse(t *testing.T) {
	conds, err := Parse("fixed, Periodic,per,fix")
	require.NoError(t, err)
	assert.Equal(t, []Condition{Fixed, Periodic, Periodic, Fixed}, conds)
	assert.Equal(t, "fixed,periodic,periodic,fixed", Format(conds))

	_, err = Parse("fixed,open")
	assert.Error(t, err)
	_, err = Parse(" ")
	assert.Error(t, err)

	assert.Equal(t, []Condition{Fixed, Periodic}, FromPeriodic(false, true))
	assert.Equal(t, "Condition(7)", Condition(7).String())
}

// Mirrors the layout check the solver depends on: fixed on axis 0, periodic on axis 1
func TestApply_FixedPeriodic(t *testing.T) {
	a := paddedRamp(t)
	require.NoError(t, Apply(a, []Condition{Fixed, Periodic}))

	assert.Equal(t, row(a, 1), row(a, 0))
	assert.Equal(t, row(a, 3), row(a, 4))
	assert.Equal(t, col(a, 4), col(a, 0))
	assert.Equal(t, col(a, 1), col(a, 5))
}

// Pins the reflective behaviour of Fixed on an asymmetric array: the low halo
// takes the first interior slice and the high halo the last, never a wrap.
func TestApply_FixedIsReflective(t *testing.T) {
	a, err := ndarray.FromSlice([]float64{0, 1, 2, 4, 8, 0}, 6)
	require.NoError(t, err)
	require.NoError(t, Apply(a, []Condition{Fixed}))
	assert.Equal(t, []float64{1, 1, 2, 4, 8, 8}, a.Data())

	b, err := ndarray.FromSlice([]float64{0, 1, 2, 4, 8, 0}, 6)
	require.NoError(t, err)
	require.NoError(t, Apply(b, []Condition{Periodic}))
	assert.Equal(t, []float64{8, 1, 2, 4, 8, 1}, b.Data())
}

func TestApply_Explicit2D(t *testing.T) {
	a := paddedRamp(t)
	require.NoError(t, Apply(a, []Condition{Periodic, Fixed}))
	// padded rows 1..3 hold the ramp, periodic on rows first
	want := [][]float64{
		{8, 8, 9, 10, 11, 11},
		{0, 0, 1, 2, 3, 3},
		{4, 4, 5, 6, 7, 7},
		{8, 8, 9, 10, 11, 11},
		{0, 0, 1, 2, 3, 3},
	}
	for i, w := range want {
		assert.Equal(t, w, row(a, i), "row %d", i)
	}
}

func TestApply_3D(t *testing.T) {
	a := ndarray.New[float64](2, 3, 4)
	for i := range a.Data() {
		a.Data()[i] = float64(i*i%7) + 0.5
	}
	p := ndarray.Pad(a)
	conds := []Condition{Periodic, Fixed, Periodic}
	require.NoError(t, Apply(p, conds))

	s := p.Shape()
	for d, c := range conds {
		n := s[d]
		lo, hi := p.Slice(d, 0, 1).Clone().Data(), p.Slice(d, n-1, n).Clone().Data()
		first, last := p.Slice(d, 1, 2).Clone().Data(), p.Slice(d, n-2, n-1).Clone().Data()
		// later axes overwrite corners of earlier ones, so only check the last axis fully
		if d != len(conds)-1 {
			continue
		}
		if c == Periodic {
			assert.Equal(t, last, lo)
			assert.Equal(t, first, hi)
		} else {
			assert.Equal(t, first, lo)
			assert.Equal(t, last, hi)
		}
	}
	// interior untouched
	assert.Equal(t, a.Data(), p.Core().Clone().Data())
}

func TestApply_DimensionMismatch(t *testing.T) {
	p := ndarray.Pad(ndarray.Full(1.0, 2, 2, 2))
	before := p.Clone().Data()
	err := Apply(p, []Condition{Fixed, Periodic})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, before, p.Data())
}

func TestApply_Mask(t *testing.T) {
	m := ndarray.Pad(ndarray.Full(true, 3))
	require.NoError(t, Apply(m, []Condition{Fixed}))
	assert.Equal(t, []bool{true, true, true, true, true}, m.Data())
}
