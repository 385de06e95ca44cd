// Package fdm solves the Laplace boundary value problem on a uniform grid by
// Jacobi relaxation.
//
// A solve takes an initial value array, a same-shaped mask of pinned cells,
// one edge condition per axis, and an iteration budget of Epochs epochs of
// EpochSize steps. After the last step of each epoch the largest change made
// by that step is compared with Precision; the solve returns early once it
// falls below. Otherwise the full budget runs and the Result records
// ExhaustedBudget together with the last measured change.
//
// The algorithm is generic over a Backend. CPU runs on host arrays; the occa
// package provides a device backend behind the same interface.
package fdm
