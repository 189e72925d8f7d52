package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logger   = log.NewWithOptions(os.Stderr, log.Options{Prefix: "gravsim"})

	// Run configuration
	configFile  string
	preset      string
	particles   int
	steps       int
	dt          float64
	outputFreq  int
	workers     int
	initMode    string
	inputPath   string
	diagnostics bool
	snapshots   bool
	gravity     float64
	validate    bool
	genMass     float64
	genGap      float64
	genSpeed    float64

	// Outputs
	saveRun bool
	runName string
	dbPath  string
	svgPath string
	outPath string

	// watch / compare / chaos
	stepsPerFrame int
	delta         float64
	renorm        int
	workerCounts  []int
	parallel      int
	components    bool

	// batch / sweep / montecarlo / tune
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	trials       int
	perturbation float64
	seed         int64
	grid         []string
	objective    string
)

// main registers commands and flags and executes the root command. Errors
// are logged and exit the process with status 1.
func main() {
	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "direct-summation 2-D gravitational n-body simulator",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [threads particles steps dt freq g|i]",
		Short: "run a simulation and print energies and snapshots",
		Long: "Run a simulation. The six positional arguments of the classic driver\n" +
			"(threads, particles, steps, step size, output frequency, g|i) are accepted\n" +
			"in place of the equivalent flags.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != legacyArgCount {
				return fmt.Errorf("expected 0 or %d arguments, got %d", legacyArgCount, len(args))
			}
			return nil
		},
		RunE: runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run under the data directory")
	runCmd.Flags().StringVar(&runName, "name", "nbody", "name of the saved run")
	runCmd.Flags().StringVar(&dbPath, "db", "", "write every output snapshot to this sqlite file")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final positions to this svg file")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "step a simulation in a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addConfigFlags(watchCmd)
	watchCmd.Flags().IntVar(&stepsPerFrame, "speed", 10, "steps per frame")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run one configuration with several worker counts and compare trajectories",
		Args:  cobra.NoArgs,
		RunE:  compareWorkers,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().IntSliceVar(&workerCounts, "counts", []int{1, 2, 4, 8}, "worker counts to compare")
	compareCmd.Flags().IntVar(&parallel, "parallel", 1, "members run at once (0 = all)")

	chaosCmd := &cobra.Command{
		Use:   "chaos",
		Short: "estimate the largest Lyapunov exponent of a configuration",
		Args:  cobra.NoArgs,
		RunE:  estimateChaos,
	}
	addConfigFlags(chaosCmd)
	chaosCmd.Flags().Float64Var(&delta, "delta", 1.0, "initial x offset of particle 0 (m)")
	chaosCmd.Flags().IntVar(&renorm, "renorm", 10, "steps between renormalizations")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of the energy history of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one configuration across evenly spaced values of a parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "dt", fmt.Sprintf("parameter to sweep %v", config.Params))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.001, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.01, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 1, "members run at once (0 = all)")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "count stable runs under random perturbations of the initial positions",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 10, "number of perturbed runs")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 1.0, "largest offset per axis (m)")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = from the clock)")
	monteCarloCmd.Flags().IntVar(&parallel, "parallel", 1, "members run at once (0 = all)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search for the configuration minimizing an objective",
		Example: "  gravsim tune -n 200 --grid workers=1,2,4,8 --objective elapsed\n" +
			"  gravsim tune --grid dt=0.01,0.005 --grid steps=100,200 --objective energy_drift",
		Args: cobra.NoArgs,
		RunE: runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "energy_drift", "elapsed, energy_drift or a metric name")

	genCmd := &cobra.Command{
		Use:   "gen [particles]",
		Short: "print generated initial conditions in the ingest format",
		Args:  cobra.ExactArgs(1),
		RunE:  generateInitial,
	}
	genCmd.Flags().Float64Var(&genMass, "mass", physics.DefaultMass, "particle mass (kg)")
	genCmd.Flags().Float64Var(&genGap, "gap", physics.DefaultGap, "spacing along x (m)")
	genCmd.Flags().Float64Var(&genSpeed, "speed", physics.DefaultSpeed, "speed along y (m/s)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy history of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&components, "components", false, "plot kinetic and potential energy as well")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also draw the final positions to this svg file")

	traceCmd := &cobra.Command{
		Use:   "trace [db.sqlite]",
		Short: "draw particle trajectories from a snapshot database",
		Args:  cobra.ExactArgs(1),
		RunE:  traceDB,
	}
	traceCmd.Flags().StringVarP(&outPath, "out", "o", "trajectories.svg", "output svg file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tSTEPS\tDT\tFREQ\tWORKERS\tINIT")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%d\t%d\t%s\n", name, p.Particles, p.Steps, p.Dt, p.OutputFreq, p.Workers, p.Init)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, watchCmd, compareCmd, chaosCmd, analyzeCmd, batchCmd, sweepCmd, monteCarloCmd, tuneCmd, genCmd, listCmd, plotCmd, exportCmd, traceCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVarP(&particles, "particles", "n", defaults.Particles, "number of particles")
	f.IntVar(&steps, "steps", defaults.Steps, "number of timesteps")
	f.Float64Var(&dt, "dt", defaults.Dt, "timestep (s)")
	f.IntVar(&outputFreq, "freq", defaults.OutputFreq, "output every this many steps")
	f.IntVarP(&workers, "workers", "w", defaults.Workers, "worker goroutines")
	f.StringVar(&initMode, "init", defaults.Init, "initial conditions (generate|ingest, g|i)")
	f.StringVar(&inputPath, "input", defaults.Input, "initial conditions file for ingest (- = stdin)")
	f.BoolVar(&diagnostics, "energy", defaults.Diagnostics, "measure and print energy at output steps")
	f.BoolVar(&snapshots, "snapshots", defaults.Snapshots, "print particle snapshots at output steps")
	f.Float64Var(&gravity, "gravity", defaults.Gravity, "gravitational constant")
	f.BoolVar(&validate, "validate", defaults.ValidateState, "stop when the state becomes non-finite")
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tSTEPS\tDT\tWORKERS\tELAPSED\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%g\t%d\t%.3fs\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.StepsTaken,
			run.Steps,
			run.Dt,
			run.Workers,
			run.Elapsed,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}

	if len(samples) < 2 {
		return fmt.Errorf("no energy history to plot (was the run made with --energy=false?)")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  dt: %g  samples: %d\n\n", meta.Particles, meta.Dt, len(samples))

	graph := viz.EnergyPlot(samples, 80, 10)
	if components {
		graph = viz.ComponentsPlot(samples, 80, 15)
	}
	fmt.Println(graph)
	fmt.Println()

	drift := make([]float64, len(samples))
	e0 := samples[0].Energy.Total()
	for i, s := range samples {
		if e0 != 0 {
			drift[i] = (s.Energy.Total() - e0) / e0
		}
	}
	fmt.Println(asciigraph.Plot(drift,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("relative energy drift"),
	))

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}

	sp, err := analysis.EnergySpectrum(samples)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("samples: %d\n", len(samples))
	fmt.Printf("dominant period: %g s\n\n", sp.DominantPeriod())

	graph := asciigraph.Plot(sp.Power[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (total energy)"),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	final, err := st.LoadFinal(runID)
	if err != nil {
		return err
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.ParticlesToSVG(final, 800, 800)), 0644); err != nil {
			return err
		}
		logger.Info("wrote svg", "path", svgPath)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.ExportJSON(out, export.NewExportData(*meta, samples, final))
}

func traceDB(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenSnapshotDB(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	stepList, err := db.Steps()
	if err != nil {
		return err
	}
	frames := make([][]dynamo.Particle, 0, len(stepList))
	for _, step := range stepList {
		ps, err := db.Snapshot(step)
		if err != nil {
			return err
		}
		frames = append(frames, ps)
	}

	if err := os.WriteFile(outPath, []byte(export.TrajectoriesToSVG(frames, 800, 800)), 0644); err != nil {
		return err
	}
	logger.Info("wrote trajectories", "path", outPath, "frames", len(frames))
	return nil
}

func generateInitial(cmd *cobra.Command, args []string) error {
	n, err := parsePositive("particles", args[0])
	if err != nil {
		return err
	}
	if !(genMass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrInvalidConfig, genMass)
	}
	ps := physics.Generate(n, physics.GeneratorParams{Mass: genMass, Gap: genGap, Speed: genSpeed})
	return storage.WriteInitial(os.Stdout, ps)
}
