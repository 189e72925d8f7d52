package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
	"github.com/spf13/cobra"
)

// threads, particles, steps, dt, output frequency, g|i
const legacyArgCount = 6

// resolveConfig layers defaults, preset, config file, legacy positional
// arguments and explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset: %s (available: %v)", dynamo.ErrInvalidConfig, preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadWith(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		if err := applyLegacyArgs(cfg, args); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("freq") {
		cfg.OutputFreq = outputFreq
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("init") {
		cfg.Init = initMode
	}
	if flags.Changed("input") {
		cfg.Input = inputPath
	}
	if flags.Changed("energy") {
		cfg.Diagnostics = diagnostics
	}
	if flags.Changed("snapshots") {
		cfg.Snapshots = snapshots
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLegacyArgs reads <threads> <particles> <steps> <dt> <freq> <g|i>.
func applyLegacyArgs(cfg *config.Config, args []string) error {
	if len(args) != legacyArgCount {
		return fmt.Errorf("%w: expected %d arguments, got %d", dynamo.ErrInvalidConfig, legacyArgCount, len(args))
	}

	threads, err := parsePositive("number of threads", args[0])
	if err != nil {
		return err
	}
	n, err := parsePositive("number of particles", args[1])
	if err != nil {
		return err
	}
	nSteps, err := strconv.Atoi(args[2])
	if err != nil || nSteps < 0 {
		return fmt.Errorf("%w: number of timesteps must be a non-negative integer, got %q", dynamo.ErrInvalidConfig, args[2])
	}
	step, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("%w: size of timestep: %q is not a number", dynamo.ErrInvalidConfig, args[3])
	}
	freq, err := parsePositive("output frequency", args[4])
	if err != nil {
		return err
	}
	mode, err := config.ParseInit(args[5])
	if err != nil {
		return err
	}

	cfg.Workers = threads
	cfg.Particles = n
	cfg.Steps = nSteps
	cfg.Dt = step
	cfg.OutputFreq = freq
	cfg.Init = mode
	return nil
}

func parsePositive(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", dynamo.ErrInvalidConfig, name, s)
	}
	return v, nil
}

// openInput returns the initial-conditions stream, or nil when the init mode
// does not read one.
func openInput(cfg *config.Config) (io.ReadCloser, error) {
	if experiment.ReadsStdin(cfg) {
		logger.Info("reading initial conditions from stdin", "particles", cfg.Particles,
			"format", "mass x y vx vy")
	}
	return experiment.OpenInput(cfg)
}

func setup(cfg *config.Config) (*experiment.Experiment, error) {
	in, err := openInput(cfg)
	if err != nil {
		return nil, err
	}
	if in != nil {
		defer in.Close()
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(in); err != nil {
		return nil, fmt.Errorf("setting up run: %w", err)
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	logger.Debug("configuration",
		"n", cfg.Particles, "n_steps", cfg.Steps, "delta_t", cfg.Dt,
		"output_freq", cfg.OutputFreq, "workers", cfg.Workers, "init", cfg.Init)

	exp, err := setup(cfg)
	if err != nil {
		return err
	}
	defer exp.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	s := exp.GetSimulator()
	s.AddObserver(viz.NewConsole(out, cfg.Snapshots))

	var run *storage.Run
	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		run, err = st.Create(runName, cfg)
		if err != nil {
			return err
		}
		s.AddObserver(run)
	}

	if dbPath != "" {
		db, err := storage.CreateSnapshotDB(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		s.AddObserver(db)
	}

	logger.Info("running simulation", "particles", cfg.Particles, "steps", cfg.Steps, "workers", cfg.Workers)

	result, err := exp.Run()
	if err != nil {
		if run != nil {
			if aerr := run.Abort(result, err); aerr != nil {
				logger.Error("could not save failed run", "id", run.ID, "err", aerr)
			} else {
				logger.Warn("saved failed run", "id", run.ID, "dir", run.Dir())
			}
		}
		return err
	}

	if err := viz.WriteElapsed(out, result.Elapsed); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}

	for name, val := range result.Metrics {
		logger.Debug("metric", "name", name, "value", val)
	}
	for _, e := range result.Errors {
		logger.Error("run stopped early", "err", e)
	}

	if run != nil {
		if err := run.Finish(result); err != nil {
			return err
		}
		logger.Info("saved run", "id", run.ID, "dir", run.Dir())
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.ParticlesToSVG(result.Final, 800, 800)), 0644); err != nil {
			return err
		}
		logger.Info("wrote svg", "path", svgPath)
	}

	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := setup(cfg)
	if err != nil {
		return err
	}
	defer exp.Close()

	m := viz.NewLiveModel(exp.GetSimulator(), cfg.SimConfig(), stepsPerFrame)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(viz.LiveModel); ok && lm.Err() != nil {
		return lm.Err()
	}
	return nil
}

// readInput buffers the initial conditions so that several simulators can
// be built from the same input.
func readInput(cfg *config.Config) ([]byte, error) {
	in, err := openInput(cfg)
	if err != nil || in == nil {
		return nil, err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrIngest, err)
	}
	return data, nil
}

func compareWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(workerCounts) == 0 {
		return fmt.Errorf("%w: no worker counts to compare", dynamo.ErrInvalidConfig)
	}

	input, err := readInput(cfg)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(parallel)
	for _, w := range workerCounts {
		c := *cfg
		c.Workers = w
		ens.Add(sim.Member{
			Name: fmt.Sprintf("workers=%d", w),
			Build: func() (*sim.Simulator, error) {
				return experiment.Build(&c, bytes.NewReader(input))
			},
			Config: c.SimConfig(),
		})
	}

	logger.Info("comparing worker counts", "counts", workerCounts, "particles", cfg.Particles, "steps", cfg.Steps)

	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("comparing worker counts (n=%d, steps=%d, dt=%g)\n\n", cfg.Particles, cfg.Steps, cfg.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tELAPSED\tSTEPS/S\tDRIFT\tSPEEDUP\tIDENTICAL")

	base := results[0]
	for i, res := range results {
		rate := 0.0
		if secs := res.Elapsed.Seconds(); secs > 0 {
			rate = float64(res.StepsTaken) / secs
		}
		speedup := 0.0
		if res.Elapsed > 0 {
			speedup = base.Elapsed.Seconds() / res.Elapsed.Seconds()
		}
		fmt.Fprintf(w, "%d\t%.3fs\t%.1f\t%.2e\t%.2fx\t%v\n",
			workerCounts[i], res.Elapsed.Seconds(), rate, res.EnergyDrift, speedup,
			sameTrajectory(base.Final, res.Final))
	}
	return w.Flush()
}

func estimateChaos(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	input, err := readInput(cfg)
	if err != nil {
		return err
	}

	build := func() (*sim.Simulator, error) {
		return experiment.Build(cfg, bytes.NewReader(input))
	}
	est, err := analysis.LyapunovExponent(build, delta, cfg.Dt, cfg.Steps, renorm)
	if err != nil {
		return err
	}

	fmt.Printf("largest Lyapunov exponent: %.6e 1/s\n", est.Exponent)
	if est.Exponent > 0 {
		fmt.Printf("e-folding time: %.4g s\n", 1/est.Exponent)
	}
	if len(est.Separations) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(est.Separations,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("separation before renormalization (m)"),
		))
	}
	return nil
}

// sameTrajectory compares final states bit for bit.
func sameTrajectory(a, b []dynamo.Particle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		for _, pair := range [][2]float64{
			{a[i].Pos.X, b[i].Pos.X}, {a[i].Pos.Y, b[i].Pos.Y},
			{a[i].Vel.X, b[i].Vel.X}, {a[i].Vel.Y, b[i].Vel.Y},
		} {
			if math.Float64bits(pair[0]) != math.Float64bits(pair[1]) {
				return false
			}
		}
	}
	return true
}
