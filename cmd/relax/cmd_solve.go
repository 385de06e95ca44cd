package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/notargets/relax/config"
	"github.com/notargets/relax/fdm"
	"github.com/notargets/relax/ndarray"
	"github.com/notargets/relax/occa"
	"github.com/notargets/relax/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

type solveFlags struct {
	config    string
	output    string
	edges     string
	precision float64
	epoch     int
	nepochs   int
	engine    string
	workers   int
	device    string
}

// Summary is the machine-readable outcome of one solve
type Summary struct {
	Run      string  `yaml:"run"`
	Backend  string  `yaml:"backend"`
	State    string  `yaml:"state"`
	Steps    int     `yaml:"steps"`
	Epochs   int     `yaml:"epochs"`
	MaxDelta float64 `yaml:"max_delta"`
	Mean     float64 `yaml:"mean"`
	StdDev   float64 `yaml:"stddev"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
}

func newSolveCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Relax a problem file to equilibrium",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(f.config)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, p); err != nil {
				return err
			}
			s, err := runSolve(p, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s after %d steps, max delta %g\n",
				s.Run, s.State, s.Steps, s.MaxDelta)
			if f.output != "" {
				return writeSummary(f.output, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Problem file (YAML)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write a YAML summary to this path")
	cmd.Flags().StringVar(&f.edges, "edges", "", `Edge condition per axis, e.g. "fixed,periodic"`)
	cmd.Flags().Float64Var(&f.precision, "precision", 0, "Stop once an epoch changes no cell by this much (0 runs the full budget)")
	cmd.Flags().IntVar(&f.epoch, "epoch", 1000, "Steps between convergence checks")
	cmd.Flags().IntVar(&f.nepochs, "nepochs", 1, "Maximum number of epochs")
	cmd.Flags().StringVar(&f.engine, "engine", config.EngineCPU, "Engine: cpu or occa")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Stencil workers for the cpu engine")
	cmd.Flags().StringVar(&f.device, "device", "", "OCCA device mode or JSON properties")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// apply overrides problem fields with flags set on the command line
func (f *solveFlags) apply(cmd *cobra.Command, p *config.Problem) error {
	flags := cmd.Flags()
	if flags.Changed("edges") {
		p.Edges = f.edges
	}
	if flags.Changed("precision") {
		p.Precision = f.precision
	}
	if flags.Changed("epoch") {
		p.Epoch = f.epoch
	}
	if flags.Changed("nepochs") {
		p.NEpochs = f.nepochs
	}
	if flags.Changed("engine") {
		p.Engine = f.engine
	}
	if flags.Changed("workers") {
		p.Workers = f.workers
	}
	if flags.Changed("device") {
		p.Device = f.device
	}
	return p.Validate()
}

func runSolve(p *config.Problem, log *zap.Logger) (*Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run", runID))

	value, mask, err := p.Arrays()
	if err != nil {
		return nil, err
	}
	opts, err := p.Options(log)
	if err != nil {
		return nil, err
	}
	log.Info("solve start",
		zap.Ints("shape", value.Shape()),
		zap.String("engine", p.Engine),
		zap.Int("pinned", ndarray.Count(mask)))

	var res *fdm.Result
	switch strings.ToLower(p.Engine) {
	case config.EngineOCCA:
		res, err = solveOCCA(p, value, mask, opts, log)
	default:
		res, err = fdm.Solve[*ndarray.Array](fdm.CPU{Workers: p.Workers}, value, mask, opts)
	}
	if err != nil {
		return nil, err
	}

	s := summarize(runID, res)
	log.Info("solve complete",
		zap.String("backend", s.Backend),
		zap.String("state", s.State),
		zap.Int("steps", s.Steps),
		zap.Float64("max_delta", s.MaxDelta),
		zap.Float64("mean", s.Mean),
		zap.Float64("stddev", s.StdDev),
		zap.Float64("min", s.Min),
		zap.Float64("max", s.Max))
	return s, nil
}

func solveOCCA(p *config.Problem, value *ndarray.Array, mask *ndarray.Mask,
	opts fdm.Options, log *zap.Logger) (*fdm.Result, error) {
	device, err := utils.CreateDevice(p.Device)
	if err != nil {
		return nil, err
	}
	defer device.Free()
	b, err := occa.New(device, value.Shape(), occa.WithLogger(log))
	if err != nil {
		return nil, err
	}
	defer b.Free()
	return fdm.Solve[*occa.Array](b, value, mask, opts)
}

func summarize(runID string, res *fdm.Result) *Summary {
	v := res.Value.Data()
	mean, std := stat.MeanStdDev(v, nil)
	return &Summary{
		Run:      runID,
		Backend:  res.Backend,
		State:    res.State.String(),
		Steps:    res.Steps,
		Epochs:   res.Epochs,
		MaxDelta: res.MaxDelta,
		Mean:     mean,
		StdDev:   std,
		Min:      floats.Min(v),
		Max:      floats.Max(v),
	}
}

func writeSummary(path string, s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
