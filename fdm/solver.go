package fdm

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/ndarray"
	"go.uber.org/zap"
)

var (
	// ErrInvalidBudget reports a negative epoch count or an epoch size below one
	ErrInvalidBudget = errors.New("invalid iteration budget")
	// ErrInvalidPrecision reports a negative or NaN precision
	ErrInvalidPrecision = errors.New("invalid precision")
)

// State is the exit path of a solve
type State int

const (
	Running State = iota
	// ConvergedEarly means an epoch ended with max |delta| below the precision
	ConvergedEarly
	// ExhaustedBudget means every epoch ran without meeting the precision
	ExhaustedBudget
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ConvergedEarly:
		return "converged"
	case ExhaustedBudget:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options controls one solve
type Options struct {
	// Conditions holds one edge condition per axis
	Conditions []boundary.Condition
	// Precision stops the solve at the end of the first epoch whose last step
	// changed no cell by precision or more. Zero runs the full budget.
	Precision float64
	// EpochSize is the number of steps between convergence checks
	EpochSize int
	// Epochs is the maximum number of convergence checks
	Epochs int
	Logger *zap.Logger
}

// Result holds host copies of the solution; nothing in it aliases backend storage
type Result struct {
	// Value is the solved field including pinned cells
	Value *ndarray.Array
	// Delta is the change made by the last step of the last completed epoch,
	// zero when no epoch completed
	Delta    *ndarray.Array
	MaxDelta float64
	State    State
	// Steps counts stencil applications
	Steps int
	// Epochs counts completed epochs
	Epochs  int
	Backend string
}

// Budget is the maximum number of stencil applications
func (o Options) Budget() int { return o.EpochSize * o.Epochs }

func (o Options) validate(value *ndarray.Array, mask *ndarray.Mask) error {
	if value == nil || mask == nil {
		return fmt.Errorf("fdm: nil value or mask array")
	}
	if err := boundary.Check(value, o.Conditions); err != nil {
		return err
	}
	if !ndarray.SameShape(value.Shape(), mask.Shape()) {
		return fmt.Errorf("%w: value %v, mask %v", ndarray.ErrShapeMismatch, value.Shape(), mask.Shape())
	}
	if o.EpochSize < 1 || o.Epochs < 0 {
		return fmt.Errorf("%w: epoch size %d, epochs %d", ErrInvalidBudget, o.EpochSize, o.Epochs)
	}
	if o.Precision < 0 || math.IsNaN(o.Precision) {
		return fmt.Errorf("%w: %v", ErrInvalidPrecision, o.Precision)
	}
	return nil
}

// Solve relaxes value towards the discrete Laplace fixed point. Cells where
// mask is true keep their initial values. Inputs are never modified.
//
// Each step applies the stencil to the padded field, writes the result into
// its core, re-imposes the pinned values and refreshes the halo. The last
// step of every epoch is bracketed by a snapshot and a delta measurement.
func Solve[A any](b Backend[A], value *ndarray.Array, mask *ndarray.Mask, opts Options) (*Result, error) {
	if err := opts.validate(value, mask); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("backend", b.Name()))
	shape := value.Shape()

	host, err := b.Upload(value)
	if err != nil {
		return nil, fmt.Errorf("upload initial values: %w", err)
	}
	padded, err := b.Pad(host)
	b.Release(host)
	if err != nil {
		return nil, fmt.Errorf("pad initial values: %w", err)
	}
	defer b.Release(padded)

	pins, err := b.Pin(padded, ndarray.Pad(mask))
	if err != nil {
		return nil, fmt.Errorf("record pinned cells: %w", err)
	}
	defer pins.Release()
	if err := b.ApplyEdges(padded, opts.Conditions); err != nil {
		return nil, fmt.Errorf("initial edge conditions: %w", err)
	}

	tmp, prev, delta, err := allocate3(b, shape)
	if err != nil {
		return nil, err
	}
	defer b.Release(tmp)
	defer b.Release(prev)
	defer b.Release(delta)

	core := b.Core(padded)
	res := &Result{State: Running, Backend: b.Name()}
	log.Debug("fdm start",
		zap.Ints("shape", shape),
		zap.Int("pinned", pins.Len()),
		zap.String("edges", boundary.Format(opts.Conditions)),
		zap.Int("epoch", opts.EpochSize),
		zap.Int("nepochs", opts.Epochs))

epochs:
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		log.Debug("epoch", zap.Int("epoch", epoch), zap.Int("nepochs", opts.Epochs))
		for step := 0; step < opts.EpochSize; step++ {
			last := opts.EpochSize-step == 1
			if last {
				if err := b.Assign(prev, core); err != nil {
					return nil, fmt.Errorf("snapshot: %w", err)
				}
			}
			if err := relax(b, padded, core, tmp, pins, opts.Conditions); err != nil {
				return nil, fmt.Errorf("epoch %d step %d: %w", epoch, step, err)
			}
			res.Steps++
			if !last {
				continue
			}
			res.Epochs++
			if res.MaxDelta, err = measure(b, delta, core, prev); err != nil {
				return nil, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			if opts.Precision > 0 && res.MaxDelta < opts.Precision {
				res.State = ConvergedEarly
				break epochs
			}
		}
	}
	if res.State == Running {
		res.State = ExhaustedBudget
	}

	if res.Value, err = b.Download(core); err != nil {
		return nil, fmt.Errorf("download solution: %w", err)
	}
	if res.Delta, err = b.Download(delta); err != nil {
		return nil, fmt.Errorf("download delta: %w", err)
	}

	fields := []zap.Field{
		zap.Stringer("state", res.State),
		zap.Int("steps", res.Steps),
		zap.Float64("max_delta", res.MaxDelta),
		zap.Float64("precision", opts.Precision),
	}
	if res.State == ConvergedEarly {
		log.Info("fdm reached precision", fields...)
	} else {
		log.Info("fdm reached max epoch", fields...)
	}
	return res, nil
}

// relax performs one full step: stencil, core replace, pin, halo refresh
func relax[A any](b Backend[A], padded, core, tmp A, pins Pins[A], conds []boundary.Condition) error {
	if err := b.Stencil(padded, tmp); err != nil {
		return fmt.Errorf("stencil: %w", err)
	}
	if err := b.Assign(core, tmp); err != nil {
		return fmt.Errorf("update core: %w", err)
	}
	if err := pins.Apply(padded); err != nil {
		return fmt.Errorf("re-impose pinned values: %w", err)
	}
	if err := b.ApplyEdges(padded, conds); err != nil {
		return fmt.Errorf("edge conditions: %w", err)
	}
	return nil
}

// measure stores core - prev into delta and returns max |delta|
func measure[A any](b Backend[A], delta, core, prev A) (float64, error) {
	if err := b.Sub(delta, core, prev); err != nil {
		return 0, fmt.Errorf("delta: %w", err)
	}
	abs, err := b.Abs(delta)
	if err != nil {
		return 0, fmt.Errorf("abs delta: %w", err)
	}
	defer b.Release(abs)
	return b.Max(abs)
}

func allocate3[A any](b Backend[A], shape []int) (x, y, z A, err error) {
	if x, err = b.Allocate(shape); err != nil {
		return
	}
	if y, err = b.Allocate(shape); err != nil {
		b.Release(x)
		return
	}
	if z, err = b.Allocate(shape); err != nil {
		b.Release(x)
		b.Release(y)
	}
	return
}
