// Package automation runs batches of simulations: scripted scenarios,
// parameter sweeps and randomized stability trials.
package automation

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
)

// Runner holds what every batch shares. A nil Store skips saving and a nil
// Logger discards progress messages.
type Runner struct {
	Store    *storage.Store
	Logger   *log.Logger
	Parallel int
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}

func runOnce(cfg *config.Config) (*sim.Result, error) {
	in, err := experiment.OpenInput(cfg)
	if err != nil {
		return nil, err
	}
	if in != nil {
		defer in.Close()
	}

	exp := experiment.New(cfg)
	defer exp.Close()
	if err := exp.Setup(in); err != nil {
		return nil, err
	}
	return exp.Run()
}
