package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/gravsim/internal/automation"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/optim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/spf13/cobra"
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	r := &automation.Runner{Store: st, Logger: logger}

	if sc.Description != "" {
		logger.Info(sc.Name, "description", sc.Description)
	}
	results, err := r.RunScenario(cmd.Context(), sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTEPS\tELAPSED\tDRIFT\tRUN ID")
	for _, res := range results {
		id := res.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%.3fs\t%.3e\t%s\n", res.Name, res.Result.StepsTaken,
			res.Result.Elapsed.Seconds(), res.Result.EnergyDrift, id)
	}
	w.Flush()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	input, err := readInput(cfg)
	if err != nil {
		return err
	}

	r := &automation.Runner{Logger: logger, Parallel: parallel}
	results, err := r.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:   cfg,
		Input:  input,
		Param:  sweepParam,
		Min:    sweepMin,
		Max:    sweepMax,
		Points: sweepPoints,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tELAPSED\tDRIFT\tMIN E\tMAX E\tSTABILITY\n", strings.ToUpper(sweepParam))
	for _, res := range results {
		fmt.Fprintf(w, "%g\t%d\t%.3fs\t%.3e\t%.4e\t%.4e\t%.2f\n", res.Value, res.StepsTaken,
			res.Elapsed.Seconds(), res.EnergyDrift, res.MinEnergy, res.MaxEnergy, res.Metrics["stability"])
		for _, e := range res.Errors {
			logger.Warn("sweep point reported an error", sweepParam, res.Value, "err", e)
		}
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	input, err := readInput(cfg)
	if err != nil {
		return err
	}

	r := &automation.Runner{Logger: logger, Parallel: parallel}
	results, err := r.RunMonteCarlo(cmd.Context(), &automation.MonteCarlo{
		Base:         cfg,
		Input:        input,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTEPS\tSTABILITY\tDRIFT\tSTABLE")
	for _, res := range results {
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.3e\t%t\n", res.Trial, res.StepsTaken, res.Stability, res.EnergyDrift, res.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	input, err := readInput(cfg)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(names, ranges)
	best, all, err := g.Search(cmd.Context(), cfg, input, optim.MetricObjective(objective))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(objective))
	for _, p := range all {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", p.Params[n])
		}
		if p.Err != nil {
			fmt.Fprintf(w, "error: %v\n", p.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest:")
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Printf(" (%s = %.6g)\n", objective, best.Value)
	return nil
}

// parseGrid reads repeated name=v1,v2,... flags. Names come back sorted so
// the search order does not depend on flag order.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one --grid is required", dynamo.ErrInvalidConfig)
	}

	byName := make(map[string][]float64, len(specs))
	for _, s := range specs {
		name, list, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("%w: grid %q is not name=v1,v2,...", dynamo.ErrInvalidConfig, s)
		}
		if _, dup := byName[name]; dup {
			return nil, nil, fmt.Errorf("%w: grid parameter %s given twice", dynamo.ErrInvalidConfig, name)
		}

		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: grid %s: %q is not a number", dynamo.ErrInvalidConfig, name, f)
			}
			values = append(values, v)
		}
		byName[name] = values
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	ranges := make([][]float64, len(names))
	for i, n := range names {
		ranges[i] = byName[n]
	}
	return names, ranges, nil
}
