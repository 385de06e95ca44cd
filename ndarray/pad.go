package ndarray

// Pad returns a new zero-initialized array one cell larger on both ends of
// every axis, with a copied into the core.
func Pad[T any](a *Dense[T]) *Dense[T] {
	shape := a.Shape()
	for d := range shape {
		shape[d] += 2
	}
	p := New[T](shape...)
	// shapes agree by construction
	_ = p.Core().Assign(a)
	return p
}

// Core returns the [1:-1] view of a on every axis. The view aliases a; writes
// through it mutate the padded array in place.
func (a *Dense[T]) Core() *Dense[T] {
	v := a
	for d, s := range a.shape {
		if s < 2 {
			panic("ndarray: Core requires an extent of at least 2 on every axis")
		}
		v = v.Slice(d, 1, s-1)
	}
	return v
}
