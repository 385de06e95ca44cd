package occa

import (
	"fmt"
	"strings"

	"github.com/notargets/relax/ndarray"
	"github.com/notargets/relax/runner/builder"
)

// kind describes how an Array's storage maps to the grid
type kind int

const (
	// contiguous core-shaped buffer
	coreKind kind = iota
	// core of a padded buffer
	viewKind
	// contiguous padded buffer
	paddedKind
)

func (k kind) code() string {
	switch k {
	case coreKind:
		return "c"
	case viewKind:
		return "v"
	default:
		return "p"
	}
}

// index is the storage offset expression for linear element i
func (k kind) index() string {
	if k == viewKind {
		return "CORE_TO_PAD(i)"
	}
	return "i"
}

// layout holds the core and padded geometry of one backend
type layout struct {
	core, padded            []int
	coreStrides, padStrides []int
	ncore, npad             int
}

func newLayout(shape []int) (layout, error) {
	if len(shape) == 0 {
		return layout{}, fmt.Errorf("occa: empty shape")
	}
	l := layout{
		core:   append([]int(nil), shape...),
		padded: make([]int, len(shape)),
		ncore:  1,
		npad:   1,
	}
	for d, s := range shape {
		if s < 1 {
			return layout{}, fmt.Errorf("occa: extent %d on axis %d leaves no interior", s, d)
		}
		l.padded[d] = s + 2
		l.ncore *= s
		l.npad *= s + 2
	}
	l.coreStrides = strides(l.core)
	l.padStrides = strides(l.padded)
	return l, nil
}

func strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		st[d] = acc
		acc *= shape[d]
	}
	return st
}

// define registers the geometry macros with the kernel builder
func (l layout) define(kb *builder.Builder) {
	nd := len(l.core)
	kb.AddDefine("NDIM", nd)
	kb.AddDefine("NCORE", l.ncore)
	kb.AddDefine("NPAD", l.npad)
	kb.AddDefine("NORM", fmt.Sprintf("(REAL_ONE / %d)", 2*nd))
	kb.AddDefine("NBLOCKS", (l.ncore+kb.BlockSize-1)/kb.BlockSize)

	terms := make([]string, nd)
	for d := 0; d < nd; d++ {
		kb.AddDefine(fmt.Sprintf("CN%d", d), l.core[d])
		kb.AddDefine(fmt.Sprintf("CS%d", d), l.coreStrides[d])
		kb.AddDefine(fmt.Sprintf("PN%d", d), l.padded[d])
		kb.AddDefine(fmt.Sprintf("PS%d", d), l.padStrides[d])
		kb.AddDefine(fmt.Sprintf("NSLAB%d", d), l.npad/l.padded[d])
		terms[d] = fmt.Sprintf("((((i) / CS%d) %% CN%d) + 1) * PS%d", d, d, d)
	}
	kb.AddDefine("CORE_TO_PAD(i)", "("+strings.Join(terms, " + ")+")")
}

func (l layout) shapeOf(k kind) []int {
	if k == paddedKind {
		return append([]int(nil), l.padded...)
	}
	return append([]int(nil), l.core...)
}

func (l layout) size(k kind) int {
	if k == paddedKind {
		return l.npad
	}
	return l.ncore
}

// kindOf classifies a host shape as core or padded
func (l layout) kindOf(shape []int) (kind, bool) {
	switch {
	case ndarray.SameShape(shape, l.core):
		return coreKind, true
	case ndarray.SameShape(shape, l.padded):
		return paddedKind, true
	}
	return 0, false
}
