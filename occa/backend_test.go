package occa

import (
	"math"
	"math/rand"
	"testing"

	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/fdm"
	"github.com/notargets/relax/ndarray"
	"github.com/notargets/relax/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func random(rng *rand.Rand, shape ...int) *ndarray.Array {
	a := ndarray.New[float64](shape...)
	for i := range a.Data() {
		a.Data()[i] = rng.Float64()*200 - 100
	}
	return a
}

func TestLayout_Defines(t *testing.T) {
	l, err := newLayout([]int{3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, l.padded)
	assert.Equal(t, []int{4, 1}, l.coreStrides)
	assert.Equal(t, []int{6, 1}, l.padStrides)
	assert.Equal(t, 12, l.ncore)
	assert.Equal(t, 30, l.npad)

	_, err = newLayout([]int{3, 0})
	assert.Error(t, err)
	_, err = newLayout(nil)
	assert.Error(t, err)

	// CORE_TO_PAD evaluated on the host
	for i := 0; i < l.ncore; i++ {
		p := 0
		for d := range l.core {
			p += ((i/l.coreStrides[d])%l.core[d] + 1) * l.padStrides[d]
		}
		r, c := i/4, i%4
		assert.Equal(t, (r+1)*6+c+1, p)
	}
}

func TestBackend_Primitives(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	shape := []int{4, 5, 3}
	b, err := New(device, shape, WithBlockSize(16))
	require.NoError(t, err)
	defer b.Free()
	assert.Equal(t, shape, b.Shape())

	rng := rand.New(rand.NewSource(3))
	host := random(rng, shape...)

	x, err := b.Upload(host)
	require.NoError(t, err)
	defer b.Release(x)

	// pad then download the core round trips
	p, err := b.Pad(x)
	require.NoError(t, err)
	defer b.Release(p)
	got, err := b.Download(b.Core(p))
	require.NoError(t, err)
	assert.Equal(t, host.Data(), got.Data())
	full, err := b.Download(p)
	require.NoError(t, err)
	assert.Equal(t, ndarray.Pad(host).Data(), full.Data())

	// stencil agrees with the CPU kernel
	cpu := fdm.CPU{}
	hp := ndarray.Pad(host)
	require.NoError(t, cpu.ApplyEdges(hp, boundary.FromPeriodic(true, false, true)))
	require.NoError(t, b.ApplyEdges(p, boundary.FromPeriodic(true, false, true)))
	edged, err := b.Download(p)
	require.NoError(t, err)
	assert.Equal(t, hp.Data(), edged.Data())

	want := ndarray.New[float64](shape...)
	require.NoError(t, cpu.Stencil(hp, want))
	r, err := b.Allocate(shape)
	require.NoError(t, err)
	defer b.Release(r)
	require.NoError(t, b.Stencil(p, r))
	res, err := b.Download(r)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data(), res.Data(), 1e-12)

	// sub, abs and max against the view
	d, err := b.Allocate(shape)
	require.NoError(t, err)
	defer b.Release(d)
	require.NoError(t, b.Sub(d, r, b.Core(p)))
	a, err := b.Abs(d)
	require.NoError(t, err)
	defer b.Release(a)
	m, err := b.Max(a)
	require.NoError(t, err)

	hd := ndarray.New[float64](shape...)
	require.NoError(t, ndarray.Sub(hd, res, hp.Core()))
	assert.InDelta(t, ndarray.MaxAbs(hd), m, 1e-12)

	mv, err := b.Max(b.Core(p))
	require.NoError(t, err)
	assert.Equal(t, ndarray.Max(hp.Core()), mv)
}

func TestBackend_MaxNaN(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()
	b, err := New(device, []int{40}, WithBlockSize(8))
	require.NoError(t, err)
	defer b.Free()

	host := ndarray.New[float64](40)
	host.Set(7, 3)
	host.Set(math.NaN(), 33)
	x, err := b.Upload(host)
	require.NoError(t, err)
	m, err := b.Max(x)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m))

	host.Set(0, 33)
	host.Set(-2, 39)
	y, err := b.Upload(host)
	require.NoError(t, err)
	m, err = b.Max(y)
	require.NoError(t, err)
	assert.Equal(t, 7.0, m)
}

func TestBackend_Invert(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()
	b, err := New(device, []int{2, 2})
	require.NoError(t, err)
	defer b.Free()

	host, err := ndarray.FromSlice([]float64{0, 1, 0, 2}, 2, 2)
	require.NoError(t, err)
	x, err := b.Upload(host)
	require.NoError(t, err)
	inv, err := b.Invert(x)
	require.NoError(t, err)
	got, err := b.Download(inv)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1, 0}, got.Data())
}

func TestBackend_Errors(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()
	b, err := New(device, []int{3, 4})
	require.NoError(t, err)
	defer b.Free()

	_, err = b.Upload(ndarray.New[float64](4, 4))
	assert.ErrorIs(t, err, ndarray.ErrShapeMismatch)
	_, err = b.Allocate([]int{3})
	assert.ErrorIs(t, err, ndarray.ErrShapeMismatch)

	core, err := b.Allocate([]int{3, 4})
	require.NoError(t, err)
	padded, err := b.Allocate([]int{5, 6})
	require.NoError(t, err)
	assert.ErrorIs(t, b.Assign(core, padded), ndarray.ErrShapeMismatch)
	assert.ErrorIs(t, b.ApplyEdges(padded, boundary.FromPeriodic(true)), boundary.ErrDimensionMismatch)
	assert.Error(t, b.Stencil(core, core))
	assert.Panics(t, func() { b.Core(core) })

	_, err = New(device, []int{3}, WithBlockSize(-1))
	assert.Error(t, err)
}

func TestSolve_MatchesCPU(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	cases := []struct {
		shape []int
		conds []boundary.Condition
	}{
		{[]int{17}, boundary.FromPeriodic(false)},
		{[]int{30, 40}, []boundary.Condition{boundary.Fixed, boundary.Periodic}},
		{[]int{6, 7, 5}, boundary.FromPeriodic(true, false, true)},
		{[]int{3, 4, 3, 2}, boundary.FromPeriodic(false, true, false, true)},
	}
	rng := rand.New(rand.NewSource(11))
	for _, tc := range cases {
		value := random(rng, tc.shape...)
		mask := ndarray.New[bool](tc.shape...)
		for i := range mask.Data() {
			mask.Data()[i] = rng.Intn(5) == 0
		}
		opts := fdm.Options{Conditions: tc.conds, Precision: 1e-8, EpochSize: 10, Epochs: 30}

		want, err := fdm.Solve[*ndarray.Array](fdm.CPU{}, value, mask, opts)
		require.NoError(t, err)

		b, err := New(device, tc.shape, WithBlockSize(32))
		require.NoError(t, err)
		got, err := fdm.Solve[*Array](b, value, mask, opts)
		b.Free()
		require.NoError(t, err, "shape %v", tc.shape)

		assert.Equal(t, want.State, got.State, "shape %v", tc.shape)
		assert.Equal(t, want.Steps, got.Steps, "shape %v", tc.shape)
		assert.InDeltaSlice(t, want.Value.Data(), got.Value.Data(), 1e-9, "shape %v", tc.shape)
		assert.InDeltaSlice(t, want.Delta.Data(), got.Delta.Data(), 1e-9, "shape %v", tc.shape)
		assert.Contains(t, got.Backend, "occa/")
	}
}
