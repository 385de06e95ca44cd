package fdm

import (
	"fmt"

	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/ndarray"
	"github.com/notargets/relax/stencil"
)

// CPU runs the solve on dense host arrays. With Workers > 1 each stencil
// application is split into slabs along axis 0 and evaluated concurrently.
type CPU struct {
	Workers int
}

var _ Backend[*ndarray.Array] = CPU{}

func (c CPU) Name() string {
	if c.Workers > 1 {
		return fmt.Sprintf("cpu/%d", c.Workers)
	}
	return "cpu"
}

func (CPU) Upload(a *ndarray.Array) (*ndarray.Array, error) { return a.Clone(), nil }

func (CPU) Download(a *ndarray.Array) (*ndarray.Array, error) { return a.Clone(), nil }

func (CPU) Allocate(shape []int) (*ndarray.Array, error) {
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("fdm: negative extent in shape %v", shape)
		}
	}
	return ndarray.New[float64](shape...), nil
}

func (CPU) Release(*ndarray.Array) {}

func (CPU) Pad(a *ndarray.Array) (*ndarray.Array, error) { return ndarray.Pad(a), nil }

func (CPU) Core(padded *ndarray.Array) *ndarray.Array { return padded.Core() }

func (CPU) Assign(dst, src *ndarray.Array) error { return dst.Assign(src) }

func (CPU) Sub(dst, a, b *ndarray.Array) error { return ndarray.Sub(dst, a, b) }

func (CPU) Abs(a *ndarray.Array) (*ndarray.Array, error) { return ndarray.Abs(a), nil }

func (CPU) Max(a *ndarray.Array) (float64, error) { return ndarray.Max(a), nil }

func (CPU) Invert(a *ndarray.Array) (*ndarray.Array, error) {
	r := ndarray.New[float64](a.Shape()...)
	src := a.Clone().Data()
	dst := r.Data()
	for i, v := range src {
		if v == 0 {
			dst[i] = 1
		}
	}
	return r, nil
}

func (c CPU) Stencil(padded, res *ndarray.Array) error {
	var err error
	if c.Workers > 1 {
		_, err = stencil.Parallel(padded, res, c.Workers)
	} else {
		_, err = stencil.Laplace(padded, res)
	}
	return err
}

func (CPU) ApplyEdges(padded *ndarray.Array, conds []boundary.Condition) error {
	return boundary.Apply(padded, conds)
}

func (CPU) Pin(padded *ndarray.Array, mask *ndarray.Mask) (Pins[*ndarray.Array], error) {
	fs, err := ndarray.Gather(padded, mask)
	if err != nil {
		return nil, err
	}
	return cpuPins{fs}, nil
}

// cpuPins scatters a gathered fixed-value set
type cpuPins struct {
	fs ndarray.FixedSet
}

func (p cpuPins) Apply(padded *ndarray.Array) error { return p.fs.Scatter(padded) }

func (p cpuPins) Len() int { return p.fs.Len() }

func (cpuPins) Release() {}
