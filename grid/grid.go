// Package grid describes the uniform N-D Cartesian domain a field is solved
// on. For every axis d,
//
//	coordinate[d] = origin[d] + index[d] * spacing[d]
//
// The relaxation itself only needs the shape; spacing and origin ride along
// as metadata for gradients, extents and plotting.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch reports attribute vectors of differing length
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Grid is immutable once constructed
type Grid struct {
	shape   []int
	spacing []float64
	origin  []float64
}

// Range is a half-open index interval [Start, Stop)
type Range struct {
	Start, Stop int
}

func (r Range) Len() int {
	if r.Stop <= r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// New builds a grid. A single spacing value applies to every axis and a nil
// origin places index zero at the coordinate origin.
func New(shape []int, spacing, origin []float64) (*Grid, error) {
	nd := len(shape)
	if nd == 0 {
		return nil, fmt.Errorf("%w: grid needs at least one axis", ErrDimensionMismatch)
	}
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("grid: non-positive extent in shape %v", shape)
		}
	}
	if len(spacing) == 1 && nd > 1 {
		spacing = uniform(nd, spacing[0])
	}
	if len(spacing) != nd {
		return nil, fmt.Errorf("%w: %d spacings for %d axes", ErrDimensionMismatch, len(spacing), nd)
	}
	for _, s := range spacing {
		if !(s > 0) {
			return nil, fmt.Errorf("grid: non-positive spacing %v", spacing)
		}
	}
	if origin == nil {
		origin = make([]float64, nd)
	}
	if len(origin) != nd {
		return nil, fmt.Errorf("%w: %d origin values for %d axes", ErrDimensionMismatch, len(origin), nd)
	}
	return &Grid{
		shape:   append([]int(nil), shape...),
		spacing: append([]float64(nil), spacing...),
		origin:  append([]float64(nil), origin...),
	}, nil
}

// Uniform builds a grid with the same spacing on every axis and zero origin
func Uniform(shape []int, spacing float64) (*Grid, error) {
	return New(shape, []float64{spacing}, nil)
}

func uniform(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (g *Grid) NDim() int { return len(g.shape) }

func (g *Grid) Shape() []int { return append([]int(nil), g.shape...) }

func (g *Grid) Spacing() []float64 { return append([]float64(nil), g.spacing...) }

func (g *Grid) Origin() []float64 { return append([]float64(nil), g.origin...) }

func (g *Grid) String() string {
	return fmt.Sprintf("grid(shape=%v spacing=%v origin=%v)", g.shape, g.spacing, g.origin)
}

func (g *Grid) mustMatch(n int, what string) {
	if n != len(g.shape) {
		panic(fmt.Sprintf("grid: %s has %d components for a %d-D grid", what, n, len(g.shape)))
	}
}

// Point gives the spatial coordinate of index
func (g *Grid) Point(index []int) []float64 {
	g.mustMatch(len(index), "index")
	p := make([]float64, len(index))
	for d, i := range index {
		p[d] = g.origin[d] + float64(i)*g.spacing[d]
	}
	return p
}

// Index gives the index nearest to point. Points outside the grid map to
// indices outside [0, shape).
func (g *Grid) Index(point []float64) []int {
	g.mustMatch(len(point), "point")
	idx := make([]int, len(point))
	for d, x := range point {
		idx[d] = int(math.RoundToEven((x - g.origin[d]) / g.spacing[d]))
	}
	return idx
}

// Crop clamps r to [0, shape[axis]). A range with nothing left is {0, 0}.
func (g *Grid) Crop(r Range, axis int) Range {
	if axis < 0 || axis >= len(g.shape) {
		panic(fmt.Sprintf("grid: axis %d out of range for %d-D grid", axis, len(g.shape)))
	}
	c := Range{Start: max(r.Start, 0), Stop: min(r.Stop, g.shape[axis])}
	if c.Start < c.Stop {
		return c
	}
	return Range{}
}

// BoundingBox returns the coordinates of the first and last grid points
func (g *Grid) BoundingBox() (lo, hi []float64) {
	last := make([]int, len(g.shape))
	for d, s := range g.shape {
		last[d] = s - 1
	}
	return g.Point(make([]int, len(g.shape))), g.Point(last)
}

// Linspace returns the coordinates of the grid points along axis
func (g *Grid) Linspace(axis int) []float64 {
	n := g.shape[axis]
	first := g.origin[axis]
	if n == 1 {
		return []float64{first}
	}
	last := first + float64(n-1)*g.spacing[axis]
	return floats.Span(make([]float64, n), first, last)
}

// Linspaces returns Linspace for every axis
func (g *Grid) Linspaces() [][]float64 {
	ls := make([][]float64, len(g.shape))
	for d := range g.shape {
		ls[d] = g.Linspace(d)
	}
	return ls
}

// ImageExtent gives [left, right, bottom, top] for drawing a 2-D grid as an
// image (axis < 0), or a slice perpendicular to axis through a 3-D grid.
func (g *Grid) ImageExtent(axis int) ([4]float64, error) {
	lo, hi := g.BoundingBox()
	if axis < 0 {
		if len(g.shape) != 2 {
			return [4]float64{}, fmt.Errorf("%w: image extent without an axis needs a 2-D grid, have %d-D",
				ErrDimensionMismatch, len(g.shape))
		}
		return [4]float64{lo[0], hi[0], hi[1], lo[1]}, nil
	}
	if len(g.shape) != 3 {
		return [4]float64{}, fmt.Errorf("%w: image extent along an axis needs a 3-D grid, have %d-D",
			ErrDimensionMismatch, len(g.shape))
	}
	a1, a2 := (axis+1)%3, (axis+2)%3
	return [4]float64{lo[a1], hi[a1], hi[a2], lo[a2]}, nil
}
