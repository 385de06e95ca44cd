// Package config loads relaxation problems from YAML files.
//
// A problem names the grid, the edge condition of every axis, the iteration
// budget, the engine to run on, and a list of index-space regions that set
// initial values and pin cells.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notargets/relax/boundary"
	"github.com/notargets/relax/fdm"
	"github.com/notargets/relax/grid"
	"github.com/notargets/relax/ndarray"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Engines accepted by Problem.Engine
const (
	EngineCPU  = "cpu"
	EngineOCCA = "occa"
)

// Problem is the top-level problem file
type Problem struct {
	Grid GridConfig `yaml:"grid"`

	// Edges is a comma separated condition per axis, e.g. "fixed,periodic".
	// Empty means fixed on every axis.
	Edges string `yaml:"edges,omitempty"`

	Precision float64 `yaml:"precision"`
	Epoch     int     `yaml:"epoch"`
	NEpochs   int     `yaml:"nepochs"`

	Engine  string `yaml:"engine"`
	Workers int    `yaml:"workers,omitempty"`
	Device  string `yaml:"device,omitempty"` // occa engine only

	// Initial fills every cell not covered by a region
	Initial float64  `yaml:"initial,omitempty"`
	Regions []Region `yaml:"regions,omitempty"`
}

// GridConfig mirrors grid.New
type GridConfig struct {
	Shape   []int     `yaml:"shape"`
	Spacing []float64 `yaml:"spacing,omitempty"`
	Origin  []float64 `yaml:"origin,omitempty"`
}

// Region is the half-open index box [Lo, Hi). Negative indices count from
// the end of the axis and the box is cropped to the grid.
type Region struct {
	Lo    []int   `yaml:"lo"`
	Hi    []int   `yaml:"hi"`
	Value float64 `yaml:"value"`
	// Fixed pins the region; nil means true
	Fixed *bool `yaml:"fixed,omitempty"`
}

// IsFixed reports whether the region pins its cells
func (r Region) IsFixed() bool { return r.Fixed == nil || *r.Fixed }

// Default returns a problem carrying the default budget and engine
func Default() *Problem {
	return &Problem{
		Precision: 0,
		Epoch:     1000,
		NEpochs:   1,
		Engine:    EngineCPU,
		Device:    "serial",
	}
}

// Load reads and validates a problem file
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a problem over the defaults and validates it
func Parse(data []byte) (*Problem, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse problem: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the problem as YAML
func (p *Problem) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create problem directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal problem: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write problem: %w", err)
	}
	return nil
}

// Validate checks the problem can be turned into a solve
func (p *Problem) Validate() error {
	g, err := p.Domain()
	if err != nil {
		return err
	}
	if _, err := p.Conditions(); err != nil {
		return err
	}
	if p.Epoch < 1 || p.NEpochs < 0 {
		return fmt.Errorf("%w: epoch %d, nepochs %d", fdm.ErrInvalidBudget, p.Epoch, p.NEpochs)
	}
	if !(p.Precision >= 0) {
		return fmt.Errorf("%w: %v", fdm.ErrInvalidPrecision, p.Precision)
	}
	switch strings.ToLower(p.Engine) {
	case EngineCPU, EngineOCCA:
	default:
		return fmt.Errorf("unknown engine %q", p.Engine)
	}
	if p.Workers < 0 {
		return fmt.Errorf("negative worker count %d", p.Workers)
	}
	for i, r := range p.Regions {
		if len(r.Lo) != g.NDim() || len(r.Hi) != g.NDim() {
			return fmt.Errorf("region %d: %w: lo %v, hi %v for a %d-D grid",
				i, grid.ErrDimensionMismatch, r.Lo, r.Hi, g.NDim())
		}
	}
	return nil
}

// Domain builds the grid
func (p *Problem) Domain() (*grid.Grid, error) {
	spacing := p.Grid.Spacing
	if len(spacing) == 0 {
		spacing = []float64{1}
	}
	return grid.New(p.Grid.Shape, spacing, p.Grid.Origin)
}

// Conditions parses Edges, defaulting to fixed on every axis
func (p *Problem) Conditions() ([]boundary.Condition, error) {
	if strings.TrimSpace(p.Edges) == "" {
		return make([]boundary.Condition, len(p.Grid.Shape)), nil
	}
	conds, err := boundary.Parse(p.Edges)
	if err != nil {
		return nil, err
	}
	if len(conds) != len(p.Grid.Shape) {
		return nil, fmt.Errorf("%w: %d edge conditions for %d axes",
			boundary.ErrDimensionMismatch, len(conds), len(p.Grid.Shape))
	}
	return conds, nil
}

// Arrays builds the initial value and mask arrays. Later regions overwrite
// earlier ones.
func (p *Problem) Arrays() (*ndarray.Array, *ndarray.Mask, error) {
	g, err := p.Domain()
	if err != nil {
		return nil, nil, err
	}
	shape := g.Shape()
	value := ndarray.Full(p.Initial, shape...)
	mask := ndarray.New[bool](shape...)
	for i, r := range p.Regions {
		if len(r.Lo) != len(shape) || len(r.Hi) != len(shape) {
			return nil, nil, fmt.Errorf("region %d: %w", i, grid.ErrDimensionMismatch)
		}
		v, m := value, mask
		empty := false
		for d := range shape {
			c := g.Crop(grid.Range{Start: wrap(r.Lo[d], shape[d]), Stop: wrap(r.Hi[d], shape[d])}, d)
			if c.Len() == 0 {
				empty = true
				break
			}
			v = v.Slice(d, c.Start, c.Stop)
			m = m.Slice(d, c.Start, c.Stop)
		}
		if empty {
			continue
		}
		v.Fill(r.Value)
		m.Fill(r.IsFixed())
	}
	return value, mask, nil
}

// Options builds solver options from the problem
func (p *Problem) Options(log *zap.Logger) (fdm.Options, error) {
	conds, err := p.Conditions()
	if err != nil {
		return fdm.Options{}, err
	}
	return fdm.Options{
		Conditions: conds,
		Precision:  p.Precision,
		EpochSize:  p.Epoch,
		Epochs:     p.NEpochs,
		Logger:     log,
	}, nil
}

func wrap(i, n int) int {
	if i < 0 {
		return i + n
	}
	return i
}
