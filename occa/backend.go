package occa

import (
	"fmt"
	"math"

	"github.com/notargets/gocca"
	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/fdm"
	"github.com/notargets/relax/ndarray"
	"github.com/notargets/relax/runner"
	"github.com/notargets/relax/runner/builder"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Array is a device buffer laid out as a core array, a padded array, or the
// core view of a padded array
type Array struct {
	mem   *gocca.OCCAMemory
	kind  kind
	owned bool
}

// Backend runs fdm solves for one grid shape on an OCCA device
type Backend struct {
	kr      *runner.Runner
	layout  layout
	log     *zap.Logger
	partial []float64
}

var _ fdm.Backend[*Array] = (*Backend)(nil)

// Option configures a Backend
type Option func(*options)

type options struct {
	blockSize int
	logger    *zap.Logger
}

// WithBlockSize sets the number of elements per @outer iteration
func WithBlockSize(n int) Option { return func(o *options) { o.blockSize = n } }

// WithLogger sets the logger used for kernel builds
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// New builds the stencil, edge, pin and reduction kernels for core arrays of
// the given shape. The backend does not take ownership of device.
func New(device *gocca.OCCADevice, shape []int, opts ...Option) (*Backend, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.blockSize < 0 {
		return nil, fmt.Errorf("occa: negative block size %d", o.blockSize)
	}
	l, err := newLayout(shape)
	if err != nil {
		return nil, err
	}

	kr := runner.NewRunner(device, builder.Config{
		BlockSize: o.blockSize,
		FloatType: builder.Float64,
		IntType:   builder.INT64,
	})
	l.define(kr.Builder)
	b := &Backend{
		kr:      kr,
		layout:  l,
		log:     o.logger.With(zap.String("backend", "occa/"+device.Mode())),
		partial: make([]float64, (l.ncore+kr.BlockSize-1)/kr.BlockSize),
	}
	if err := b.build(); err != nil {
		kr.Free()
		return nil, err
	}
	return b, nil
}

func (b *Backend) build() error {
	kb := b.kr.Builder
	if err := b.compile("stencil", stencilSource(kb, len(b.layout.core))); err != nil {
		return err
	}
	for d := range b.layout.core {
		if err := b.compile(edgeKernel(d), edgeSource(kb, d)); err != nil {
			return err
		}
	}
	if err := b.compile("pin", pinSource(kb)); err != nil {
		return err
	}

	if err := b.kr.DefineBindings(builder.Output("partial").Bind(b.partial)); err != nil {
		return err
	}
	if err := b.kr.AllocateDevice(); err != nil {
		return err
	}
	if _, err := b.kr.ConfigureKernel("blockmax", b.kr.Param("partial").CopyBack()); err != nil {
		return err
	}
	signature, err := b.kr.GetKernelSignatureForConfig("blockmax")
	if err != nil {
		return err
	}
	return b.compile("blockmax", blockMaxSource(signature))
}

func (b *Backend) compile(name, src string) error {
	if b.kr.HasKernel(name) {
		return nil
	}
	if _, err := b.kr.BuildKernel(src, name); err != nil {
		return fmt.Errorf("occa: %w", err)
	}
	b.log.Debug("built kernel", zap.String("kernel", name))
	return nil
}

// Free releases the kernels and every buffer still held by the backend
func (b *Backend) Free() { b.kr.Free() }

// Shape is the core shape the backend was built for
func (b *Backend) Shape() []int { return b.layout.shapeOf(coreKind) }

func (b *Backend) Name() string { return "occa/" + b.kr.Device.Mode() }

func (b *Backend) malloc(k kind, init []float64) (*Array, error) {
	n := b.layout.size(k)
	if init == nil {
		init = make([]float64, n)
	}
	mem, err := b.kr.Malloc(builder.Float64, n, init)
	if err != nil {
		return nil, fmt.Errorf("occa: %w", err)
	}
	return &Array{mem: mem, kind: k, owned: true}, nil
}

// Upload accepts arrays of the core or padded shape
func (b *Backend) Upload(a *ndarray.Array) (*Array, error) {
	k, ok := b.layout.kindOf(a.Shape())
	if !ok {
		return nil, b.mismatch(a.Shape())
	}
	return b.malloc(k, a.Clone().Data())
}

func (b *Backend) Download(a *Array) (*ndarray.Array, error) {
	src := a
	if a.kind == viewKind {
		tmp, err := b.malloc(coreKind, nil)
		if err != nil {
			return nil, err
		}
		defer b.Release(tmp)
		if err := b.Assign(tmp, a); err != nil {
			return nil, err
		}
		src = tmp
	}
	data := make([]float64, b.layout.size(src.kind))
	if err := b.kr.Read(src.mem, data, builder.Float64); err != nil {
		return nil, fmt.Errorf("occa: %w", err)
	}
	return ndarray.FromSlice(data, b.layout.shapeOf(src.kind)...)
}

func (b *Backend) Allocate(shape []int) (*Array, error) {
	k, ok := b.layout.kindOf(shape)
	if !ok {
		return nil, b.mismatch(shape)
	}
	return b.malloc(k, nil)
}

func (b *Backend) Release(a *Array) {
	if a != nil && a.owned {
		b.kr.Release(a.mem)
		a.owned = false
	}
}

func (b *Backend) Pad(a *Array) (*Array, error) {
	if a.kind == paddedKind {
		return nil, b.mismatch(b.layout.padded)
	}
	p, err := b.malloc(paddedKind, nil)
	if err != nil {
		return nil, err
	}
	if err := b.Assign(b.Core(p), a); err != nil {
		b.Release(p)
		return nil, err
	}
	return p, nil
}

// Core panics unless padded is a padded array
func (b *Backend) Core(padded *Array) *Array {
	if padded.kind != paddedKind {
		panic("occa: core of a non-padded array")
	}
	return &Array{mem: padded.mem, kind: viewKind}
}

func (b *Backend) Assign(dst, src *Array) error { return b.elementwise("copy", dst, src) }

func (b *Backend) Sub(dst, x, y *Array) error { return b.elementwise("sub", dst, x, y) }

func (b *Backend) Abs(a *Array) (*Array, error) { return b.unary("abs", a) }

func (b *Backend) Invert(a *Array) (*Array, error) { return b.unary("invert", a) }

func (b *Backend) unary(op string, a *Array) (*Array, error) {
	k := coreKind
	if a.kind == paddedKind {
		k = paddedKind
	}
	r, err := b.malloc(k, nil)
	if err != nil {
		return nil, err
	}
	if err := b.elementwise(op, r, a); err != nil {
		b.Release(r)
		return nil, err
	}
	return r, nil
}

// elementwise runs op over operands that share a shape, building the kernel
// for their layout combination on first use
func (b *Backend) elementwise(op string, operands ...*Array) error {
	padded := operands[0].kind == paddedKind
	kinds := make([]kind, len(operands))
	args := make([]interface{}, len(operands))
	name := op + "_"
	for j, a := range operands {
		if (a.kind == paddedKind) != padded {
			return fmt.Errorf("%w: %s operands mix core and padded arrays", ndarray.ErrShapeMismatch, op)
		}
		kinds[j] = a.kind
		args[j] = a.mem
		name += a.kind.code()
	}
	if err := b.compile(name, elementwiseSource(b.kr.Builder, name, op, kinds)); err != nil {
		return err
	}
	return b.kr.RunKernel(name, args...)
}

// Max reduces core arrays on the device in blocks and finishes on the host
func (b *Backend) Max(a *Array) (float64, error) {
	if a.kind != coreKind {
		h, err := b.Download(a)
		if err != nil {
			return 0, err
		}
		return ndarray.Max(h), nil
	}
	if err := b.kr.ExecuteKernel("blockmax", a.mem); err != nil {
		return 0, fmt.Errorf("occa: %w", err)
	}
	if floats.HasNaN(b.partial) {
		return math.NaN(), nil
	}
	return floats.Max(b.partial), nil
}

func (b *Backend) Stencil(padded, res *Array) error {
	if padded.kind != paddedKind || res.kind != coreKind {
		return fmt.Errorf("%w: stencil needs a padded input and a core result", ndarray.ErrShapeMismatch)
	}
	return b.kr.RunKernel("stencil", padded.mem, res.mem)
}

// ApplyEdges handles the axes in order, each as a separate kernel
func (b *Backend) ApplyEdges(padded *Array, conds []boundary.Condition) error {
	if len(conds) != len(b.layout.core) {
		return fmt.Errorf("%w: %d conditions for %d axes", boundary.ErrDimensionMismatch, len(conds), len(b.layout.core))
	}
	if padded.kind != paddedKind {
		return fmt.Errorf("%w: edges need a padded array", ndarray.ErrShapeMismatch)
	}
	for d, c := range conds {
		periodic := int64(0)
		if c == boundary.Periodic {
			periodic = 1
		}
		if err := b.kr.RunKernel(edgeKernel(d), padded.mem, periodic); err != nil {
			return err
		}
	}
	return nil
}

// Pin keeps a device copy of padded and a free-cell indicator derived from
// the inverted mask
func (b *Backend) Pin(padded *Array, mask *ndarray.Mask) (fdm.Pins[*Array], error) {
	if padded.kind != paddedKind {
		return nil, fmt.Errorf("%w: pins need a padded array", ndarray.ErrShapeMismatch)
	}
	if !ndarray.SameShape(mask.Shape(), b.layout.padded) {
		return nil, b.mismatch(mask.Shape())
	}
	m, err := b.Upload(ndarray.ToFloat(mask))
	if err != nil {
		return nil, err
	}
	free, err := b.Invert(m)
	b.Release(m)
	if err != nil {
		return nil, err
	}
	values, err := b.malloc(paddedKind, nil)
	if err != nil {
		b.Release(free)
		return nil, err
	}
	if err := b.Assign(values, padded); err != nil {
		b.Release(free)
		b.Release(values)
		return nil, err
	}
	return &pins{b: b, free: free, values: values, n: ndarray.Count(mask)}, nil
}

type pins struct {
	b            *Backend
	free, values *Array
	n            int
}

func (p *pins) Apply(padded *Array) error {
	return p.b.kr.RunKernel("pin", padded.mem, p.free.mem, p.values.mem)
}

func (p *pins) Len() int { return p.n }

func (p *pins) Release() {
	p.b.Release(p.free)
	p.b.Release(p.values)
}

func (b *Backend) mismatch(shape []int) error {
	return fmt.Errorf("%w: %v is neither core %v nor padded %v",
		ndarray.ErrShapeMismatch, shape, b.layout.core, b.layout.padded)
}
