// Package stencil implements the Jacobi update of the discrete Laplace
// equation: each interior cell becomes the mean of its 2N axis neighbours.
// Neighbour reads come from a padded array, so cells next to the edge need
// no special handling.
package stencil

import (
	"fmt"

	"github.com/notargets/relax/ndarray"
	"golang.org/x/sync/errgroup"
)

// Norm is the averaging constant 1/(2N) for an N-D grid
func Norm(ndim int) float64 { return 1 / float64(2*ndim) }

// CoreShape is the unpadded shape of a padded array
func CoreShape(padded []int) []int {
	core := make([]int, len(padded))
	for d, s := range padded {
		core[d] = s - 2
	}
	return core
}

// Laplace writes the neighbour average of every core cell of padded into
// res. Every output reads only the pre-update padded values; the caller
// writes res back into the core afterwards. A nil res is allocated.
func Laplace(padded, res *ndarray.Array) (*ndarray.Array, error) {
	res, err := prepare(padded, res)
	if err != nil {
		return nil, err
	}
	sweep(padded, res, 0, res.Shape()[0])
	return res, nil
}

// Parallel is Laplace with axis 0 split into slabs evaluated by up to
// workers goroutines. Results are identical to Laplace.
func Parallel(padded, res *ndarray.Array, workers int) (*ndarray.Array, error) {
	res, err := prepare(padded, res)
	if err != nil {
		return nil, err
	}
	n0 := res.Shape()[0]
	if workers > n0 {
		workers = n0
	}
	if workers <= 1 {
		sweep(padded, res, 0, n0)
		return res, nil
	}

	var eg errgroup.Group
	chunk := (n0 + workers - 1) / workers
	for lo := 0; lo < n0; lo += chunk {
		hi := min(lo+chunk, n0)
		eg.Go(func() error {
			sweep(padded, res, lo, hi)
			return nil
		})
	}
	return res, eg.Wait()
}

func prepare(padded, res *ndarray.Array) (*ndarray.Array, error) {
	ps := padded.Shape()
	for d, s := range ps {
		if s < 3 {
			return nil, fmt.Errorf("stencil: padded extent %d on axis %d leaves no interior", s, d)
		}
	}
	if !padded.Contiguous() {
		return nil, fmt.Errorf("stencil: padded array must be contiguous")
	}
	core := CoreShape(ps)
	if res == nil {
		return ndarray.New[float64](core...), nil
	}
	if !ndarray.SameShape(res.Shape(), core) {
		return nil, fmt.Errorf("%w: result %v for padded %v", ndarray.ErrShapeMismatch, res.Shape(), ps)
	}
	if !res.Contiguous() {
		return nil, fmt.Errorf("stencil: result array must be contiguous")
	}
	return res, nil
}

// sweep updates core rows [lo, hi) of axis 0
func sweep(padded, res *ndarray.Array, lo, hi int) {
	if lo >= hi {
		return
	}
	u := padded.Data()
	ps := padded.Shape()
	pst := padded.Strides()
	nd := len(ps)
	norm := Norm(nd)

	src := padded.Core().Slice(0, lo, hi)
	dst := res.Slice(0, lo, hi)
	ss, ds := src.Strides(), dst.Strides()
	shape := dst.Shape()
	out := res.Data()

	// starting offsets of the slab in padded and result storage
	po := (lo + 1) * pst[0]
	for d := 1; d < nd; d++ {
		po += pst[d]
	}
	ro := lo * res.Strides()[0]

	idx := make([]int, nd)
	for {
		sum := 0.0
		for d := 0; d < nd; d++ {
			sum += u[po+pst[d]] + u[po-pst[d]]
		}
		out[ro] = norm * sum

		d := nd - 1
		for ; d >= 0; d-- {
			idx[d]++
			po += ss[d]
			ro += ds[d]
			if idx[d] < shape[d] {
				break
			}
			po -= ss[d] * shape[d]
			ro -= ds[d] * shape[d]
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
