package grid

import (
	"fmt"

	"github.com/notargets/relax/ndarray"
)

// Gradient returns one finite-difference derivative array per axis of a
// scalar field sampled on g: second-order central differences inside,
// first-order one-sided differences on the two end slices.
func (g *Grid) Gradient(a *ndarray.Array) ([]*ndarray.Array, error) {
	shape := a.Shape()
	if !ndarray.SameShape(shape, g.shape) {
		return nil, fmt.Errorf("%w: field %v on grid %v", ndarray.ErrShapeMismatch, shape, g.shape)
	}
	grads := make([]*ndarray.Array, len(shape))
	for d, n := range shape {
		if n < 2 {
			return nil, fmt.Errorf("grid: gradient needs at least 2 points on axis %d", d)
		}
		out := ndarray.New[float64](shape...)
		h := g.spacing[d]

		if n > 2 {
			inner := out.Slice(d, 1, n-1)
			if err := ndarray.Sub(inner, a.Slice(d, 2, n), a.Slice(d, 0, n-2)); err != nil {
				return nil, err
			}
			ndarray.Scale(inner, 0.5/h)
		}

		lo := out.Slice(d, 0, 1)
		if err := ndarray.Sub(lo, a.Slice(d, 1, 2), a.Slice(d, 0, 1)); err != nil {
			return nil, err
		}
		ndarray.Scale(lo, 1/h)

		hi := out.Slice(d, n-1, n)
		if err := ndarray.Sub(hi, a.Slice(d, n-1, n), a.Slice(d, n-2, n-1)); err != nil {
			return nil, err
		}
		ndarray.Scale(hi, 1/h)

		grads[d] = out
	}
	return grads, nil
}
