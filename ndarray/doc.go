// Package ndarray provides the dense N-D field buffers used by the relaxation
// solver: float value arrays, boolean pin masks, strided views, and the one
// cell halo that lets stencil reads run without bounds special-casing.
//
// A padded array has extent shape[d]+2 on every axis. Its Core view is the
// [1:-1] slice on every axis and aliases the padded storage.
package ndarray
