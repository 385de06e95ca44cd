package ndarray

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(shape ...int) *Array {
	a := New[float64](shape...)
	for i := range a.data {
		a.data[i] = float64(i)
	}
	return a
}

func TestDense_NewAndIndex(t *testing.T) {
	a := ramp(3, 4)
	assert.Equal(t, []int{3, 4}, a.Shape())
	assert.Equal(t, []int{4, 1}, a.Strides())
	assert.Equal(t, 12, a.Size())
	assert.Equal(t, 2, a.NDim())
	assert.Equal(t, 6.0, a.At(1, 2))

	a.Set(-1, 2, 3)
	assert.Equal(t, -1.0, a.Data()[11])

	assert.Panics(t, func() { a.At(3, 0) })
	assert.Panics(t, func() { a.At(1) })
	assert.Panics(t, func() { New[float64]() })
}

func TestDense_FromSlice(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, a.At(1, 2))

	_, err = FromSlice([]float64{1, 2, 3}, 2, 3)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDense_SliceIsView(t *testing.T) {
	a := ramp(3, 4)
	col := a.Slice(1, 2, 3)
	assert.Equal(t, []int{3, 1}, col.Shape())
	assert.False(t, ramp(3, 4).Slice(1, 1, 3).Contiguous())
	assert.True(t, ramp(3, 4).Slice(0, 1, 2).Contiguous())

	col.Fill(100)
	for r := 0; r < 3; r++ {
		assert.Equal(t, 100.0, a.At(r, 2))
	}
	assert.Equal(t, 1.0, a.At(0, 1))
}

func TestDense_CloneOfView(t *testing.T) {
	a := ramp(3, 4)
	c := a.Slice(1, 1, 3).Clone()
	assert.True(t, c.Contiguous())
	if diff := cmp.Diff([]float64{1, 2, 5, 6, 9, 10}, c.Data()); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestDense_AssignChecksShape(t *testing.T) {
	a := New[float64](2, 2)
	assert.ErrorIs(t, a.Assign(New[float64](2, 3)), ErrShapeMismatch)
	require.NoError(t, a.Assign(Full(7.0, 2, 2)))
	assert.Equal(t, []float64{7, 7, 7, 7}, a.Data())
}

func TestPad_CoreRoundTrip(t *testing.T) {
	for _, shape := range [][]int{{5}, {3, 4}, {2, 3, 4}, {2, 2, 2, 3}} {
		a := ramp(shape...)
		p := Pad(a)
		ps := p.Shape()
		for d := range shape {
			assert.Equal(t, shape[d]+2, ps[d])
		}
		core := p.Core()
		assert.Equal(t, shape, core.Shape())
		assert.Equal(t, a.Data(), core.Clone().Data())

		// halo is zero: total sum equals the core sum
		sum, coreSum := 0.0, 0.0
		for _, v := range p.Data() {
			sum += v
		}
		for _, v := range a.Data() {
			coreSum += v
		}
		assert.Equal(t, coreSum, sum)
	}
}

func TestPad_CoreAliases(t *testing.T) {
	p := Pad(ramp(3, 3))
	core := p.Core()
	core.Set(42, 0, 0)
	assert.Equal(t, 42.0, p.At(1, 1))
	require.NoError(t, core.Assign(Full(1.0, 3, 3)))
	assert.Equal(t, 1.0, p.At(3, 3))
	assert.Equal(t, 0.0, p.At(4, 4))
}

func TestPad_Mask(t *testing.T) {
	m := Full(true, 2, 2)
	p := Pad(m)
	assert.Equal(t, 4, Count(p))
	assert.False(t, p.At(0, 0))
	assert.Equal(t, 12, Count(Invert(p)))
}

func TestOps_SubAbsMax(t *testing.T) {
	a := ramp(2, 3)
	b := Full(2.0, 2, 3)
	d := New[float64](2, 3)
	require.NoError(t, Sub(d, a, b))
	assert.Equal(t, []float64{-2, -1, 0, 1, 2, 3}, d.Data())
	assert.Equal(t, 3.0, Max(d))
	assert.Equal(t, 3.0, Max(Abs(d)))
	assert.Equal(t, 3.0, MaxAbs(d))

	// views
	p := Pad(a)
	require.NoError(t, Sub(d, p.Core(), b))
	assert.Equal(t, []float64{-2, -1, 0, 1, 2, 3}, d.Data())
	assert.Equal(t, 5.0, Max(p.Core()))

	assert.ErrorIs(t, Sub(d, a, New[float64](3, 2)), ErrShapeMismatch)
}

func TestOps_MaxPropagatesNaN(t *testing.T) {
	a := ramp(4)
	a.Set(math.NaN(), 2)
	assert.True(t, math.IsNaN(Max(a)))
	assert.True(t, math.IsNaN(MaxAbs(a)))
	assert.True(t, math.IsNaN(Max(Pad(a).Core())))
	a.Set(math.Inf(-1), 2)
	assert.True(t, math.IsInf(MaxAbs(a), 1))
}

func TestFixedSet_GatherScatter(t *testing.T) {
	v := ramp(3, 3)
	m := New[bool](3, 3)
	m.Set(true, 0, 1)
	m.Set(true, 2, 2)

	fs, err := Gather(v, m)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.Len())
	assert.Equal(t, []int{1, 8}, fs.Indices)
	assert.Equal(t, []float64{1, 8}, fs.Values)

	v.Fill(0)
	require.NoError(t, fs.Scatter(v))
	assert.Equal(t, 1.0, v.At(0, 1))
	assert.Equal(t, 8.0, v.At(2, 2))
	assert.Equal(t, 0.0, v.At(1, 1))

	// scatter through a strided view
	p := Pad(New[float64](3, 3))
	require.NoError(t, fs.Scatter(p.Core()))
	assert.Equal(t, 1.0, p.At(1, 2))
	assert.Equal(t, 8.0, p.At(3, 3))

	_, err = Gather(v, New[bool](2, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestToFloat(t *testing.T) {
	m := New[bool](3)
	m.Set(true, 1)
	assert.Equal(t, []float64{0, 1, 0}, ToFloat(m).Data())
}
