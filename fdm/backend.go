package fdm

import (
	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/ndarray"
)

// Backend is the numeric substrate a solve runs on. A is the backend's array
// handle: a host array for the CPU backend, a device buffer for accelerators.
// The solver algorithm is written once against this interface and never
// inspects the concrete type of A.
type Backend[A any] interface {
	Name() string

	// Upload copies a host array into a new backend array
	Upload(a *ndarray.Array) (A, error)
	// Download copies a backend array into a new host array
	Download(a A) (*ndarray.Array, error)
	// Allocate returns a zero-filled array
	Allocate(shape []int) (A, error)
	// Release frees backend storage held by a
	Release(a A)

	// Pad returns a copy of a with a zero halo one cell wide on every axis
	Pad(a A) (A, error)
	// Core returns the [1:-1] view of a padded array; it aliases padded
	Core(padded A) A
	// Assign copies src into dst
	Assign(dst, src A) error
	// Sub stores a - b into dst
	Sub(dst, a, b A) error
	// Abs returns |a| element-wise in a new array
	Abs(a A) (A, error)
	// Max reduces a to its largest element. Pending work is completed first.
	Max(a A) (float64, error)
	// Invert returns the logical complement of a 0/1 valued array
	Invert(a A) (A, error)

	// Stencil writes the Jacobi neighbour average of padded into res
	Stencil(padded, res A) error
	// ApplyEdges refreshes the halo of padded
	ApplyEdges(padded A, conds []boundary.Condition) error
	// Pin records the cells of padded marked in the padded host mask and
	// returns the operation that restores their current values.
	Pin(padded A, mask *ndarray.Mask) (Pins[A], error)
}

// Pins re-imposes a fixed-value set on a padded array
type Pins[A any] interface {
	Apply(padded A) error
	// Len is the number of pinned cells
	Len() int
	Release()
}
