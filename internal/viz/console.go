package viz

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Console prints each output step the way the classic n-body driver does:
// an energy line when energy was measured, then optionally the particle
// snapshot.
type Console struct {
	w         io.Writer
	snapshots bool
}

func NewConsole(w io.Writer, snapshots bool) *Console {
	return &Console{w: w, snapshots: snapshots}
}

func (c *Console) OnOutput(sys *dynamo.System, s dynamo.Sample) error {
	if s.Measured {
		if _, err := io.WriteString(c.w, FormatEnergy(s)); err != nil {
			return err
		}
	}
	if c.snapshots {
		return WriteSnapshot(c.w, s.Time, sys)
	}
	return nil
}

// FormatEnergy renders the energy line for s. Step 0 is the initial line and
// carries no step label.
func FormatEnergy(s dynamo.Sample) string {
	e := s.Energy
	if s.Step == 0 {
		return fmt.Sprintf("   PE = %e, KE = %e, Total Energy = %e\n", e.Potential, e.Kinetic, e.Total())
	}
	return fmt.Sprintf(" istep = %d, PE = %e, KE = %e, Total Energy = %e\n", s.Step, e.Potential, e.Kinetic, e.Total())
}

// WriteSnapshot writes the time, one row per particle and a blank line.
func WriteSnapshot(w io.Writer, t float64, sys *dynamo.System) error {
	if _, err := fmt.Fprintf(w, "%.2f\n", t); err != nil {
		return err
	}
	for i := 0; i < sys.Len(); i++ {
		p := sys.At(i)
		if _, err := fmt.Fprintf(w, "%3d %10.3e   %10.3e   %10.3e   %10.3e\n", i, p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func WriteElapsed(w io.Writer, d time.Duration) error {
	_, err := fmt.Fprintf(w, "Elapsed time = %e seconds\n", d.Seconds())
	return err
}
