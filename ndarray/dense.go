package ndarray

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two arrays that must agree in shape do not
var ErrShapeMismatch = errors.New("shape mismatch")

// Dense is a row-major N-D array. A Dense may be a view into the storage of
// another Dense, in which case writes through it are visible in the parent.
type Dense[T any] struct {
	shape   []int
	strides []int
	offset  int
	data    []T
}

// Array holds scalar field values
type Array = Dense[float64]

// Mask marks pinned (true) and free (false) cells
type Mask = Dense[bool]

// New allocates a zero-valued contiguous array
func New[T any](shape ...int) *Dense[T] {
	n := checkShape(shape)
	return &Dense[T]{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		data:    make([]T, n),
	}
}

// Full allocates a contiguous array with every element set to v
func Full[T any](v T, shape ...int) *Dense[T] {
	a := New[T](shape...)
	for i := range a.data {
		a.data[i] = v
	}
	return a
}

// FromSlice wraps data (row-major, not copied) with the given shape
func FromSlice[T any](data []T, shape ...int) (*Dense[T], error) {
	n := checkShape(shape)
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(data), shape)
	}
	return &Dense[T]{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		data:    data,
	}, nil
}

func checkShape(shape []int) int {
	if len(shape) == 0 {
		panic("ndarray: shape must have at least one axis")
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("ndarray: negative extent in shape %v", shape))
		}
		n *= s
	}
	return n
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	st := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = st
		st *= shape[d]
	}
	return strides
}

// Shape returns a copy of the array extents
func (a *Dense[T]) Shape() []int { return append([]int(nil), a.shape...) }

// Strides returns a copy of the element strides into the backing storage
func (a *Dense[T]) Strides() []int { return append([]int(nil), a.strides...) }

func (a *Dense[T]) NDim() int { return len(a.shape) }

// Size is the number of elements addressed by a (not the backing storage)
func (a *Dense[T]) Size() int {
	n := 1
	for _, s := range a.shape {
		n *= s
	}
	return n
}

// Contiguous reports whether a addresses a single row-major run of storage
func (a *Dense[T]) Contiguous() bool {
	st := 1
	for d := len(a.shape) - 1; d >= 0; d-- {
		if a.shape[d] != 1 && a.strides[d] != st {
			return false
		}
		st *= a.shape[d]
	}
	return true
}

// Data returns the elements of a contiguous array in row-major order. The
// slice aliases the array. It panics for non-contiguous views.
func (a *Dense[T]) Data() []T {
	if !a.Contiguous() {
		panic("ndarray: Data called on a non-contiguous view")
	}
	return a.data[a.offset : a.offset+a.Size()]
}

func (a *Dense[T]) index(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for %d-D array", len(idx), len(a.shape)))
	}
	off := a.offset
	for d, i := range idx {
		if i < 0 || i >= a.shape[d] {
			panic(fmt.Sprintf("ndarray: index %v out of range for shape %v", idx, a.shape))
		}
		off += i * a.strides[d]
	}
	return off
}

func (a *Dense[T]) At(idx ...int) T { return a.data[a.index(idx)] }

func (a *Dense[T]) Set(v T, idx ...int) { a.data[a.index(idx)] = v }

// Slice returns a view restricted to [lo, hi) along axis
func (a *Dense[T]) Slice(axis, lo, hi int) *Dense[T] {
	if axis < 0 || axis >= len(a.shape) {
		panic(fmt.Sprintf("ndarray: axis %d out of range for %d-D array", axis, len(a.shape)))
	}
	if lo < 0 || hi > a.shape[axis] || lo > hi {
		panic(fmt.Sprintf("ndarray: slice [%d:%d] out of range on axis %d with extent %d",
			lo, hi, axis, a.shape[axis]))
	}
	v := &Dense[T]{
		shape:   a.Shape(),
		strides: a.Strides(),
		offset:  a.offset + lo*a.strides[axis],
		data:    a.data,
	}
	v.shape[axis] = hi - lo
	return v
}

// Clone returns a contiguous copy of a
func (a *Dense[T]) Clone() *Dense[T] {
	c := New[T](a.shape...)
	dst := c.data
	i := 0
	a.walk(func(off int) {
		dst[i] = a.data[off]
		i++
	})
	return c
}

// Assign copies src element-wise into a; both may be views
func (a *Dense[T]) Assign(src *Dense[T]) error {
	if !SameShape(a.shape, src.shape) {
		return fmt.Errorf("%w: assign %v into %v", ErrShapeMismatch, src.shape, a.shape)
	}
	if a.Contiguous() && src.Contiguous() {
		copy(a.Data(), src.Data())
		return nil
	}
	zip(a.shape, a, src, func(da, ds int) {
		a.data[da] = src.data[ds]
	})
	return nil
}

// Fill sets every addressed element of a to v
func (a *Dense[T]) Fill(v T) {
	a.walk(func(off int) {
		a.data[off] = v
	})
}

// SameShape reports whether two extents agree on every axis
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// walk visits the storage offset of every element in row-major order
func (a *Dense[T]) walk(fn func(off int)) {
	if a.Size() == 0 {
		return
	}
	nd := len(a.shape)
	idx := make([]int, nd)
	off := a.offset
	for {
		fn(off)
		d := nd - 1
		for ; d >= 0; d-- {
			idx[d]++
			off += a.strides[d]
			if idx[d] < a.shape[d] {
				break
			}
			off -= a.strides[d] * a.shape[d]
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

// zip walks two same-shaped arrays in lockstep
func zip[T, U any](shape []int, a *Dense[T], b *Dense[U], fn func(offA, offB int)) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n == 0 {
		return
	}
	nd := len(shape)
	idx := make([]int, nd)
	oa, ob := a.offset, b.offset
	for {
		fn(oa, ob)
		d := nd - 1
		for ; d >= 0; d-- {
			idx[d]++
			oa += a.strides[d]
			ob += b.strides[d]
			if idx[d] < shape[d] {
				break
			}
			oa -= a.strides[d] * shape[d]
			ob -= b.strides[d] * shape[d]
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
