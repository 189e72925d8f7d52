package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Member is one run of an Ensemble. Build must return a simulator that
// shares no mutable state with any other member.
type Member struct {
	Name   string
	Build  func() (*Simulator, error)
	Config Config
}

// Ensemble runs independent simulations concurrently in one process.
type Ensemble struct {
	members []Member
	limit   int
}

// NewEnsemble returns an ensemble running at most limit members at a time.
// A limit below one means no limit.
func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

func (e *Ensemble) Add(m Member) { e.members = append(e.members, m) }

func (e *Ensemble) Len() int { return len(e.members) }

// Run returns one result per member, in the order they were added. The first
// failure stops members that have not started yet.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.members))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for idx, m := range e.members {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			s, err := m.Build()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			defer s.Close()

			res, err := s.Run(m.Config)
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
