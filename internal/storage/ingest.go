package storage

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

var ingestFields = [...]string{"mass", "position-x", "position-y", "velocity-x", "velocity-y"}

// ReadInitial reads n particles from r. Each particle is five
// whitespace-separated reals: mass, x, y, vx, vy. Line breaks carry no
// meaning. Either all n particles are returned or none.
func ReadInitial(r io.Reader, n int) ([]dynamo.Particle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: particle count must be positive, got %d", dynamo.ErrInvalidConfig, n)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	ps := make([]dynamo.Particle, n)
	var vals [len(ingestFields)]float64

	for i := 0; i < n; i++ {
		for f, name := range ingestFields {
			if !sc.Scan() {
				err := sc.Err()
				if err == nil {
					err = io.ErrUnexpectedEOF
				}
				return nil, &dynamo.IngestError{Particle: i, Field: name, Err: fmt.Errorf("%w: %v", dynamo.ErrIngest, err)}
			}
			v, err := strconv.ParseFloat(sc.Text(), 64)
			if err != nil {
				return nil, &dynamo.IngestError{Particle: i, Field: name, Err: fmt.Errorf("%w: %q is not a number", dynamo.ErrIngest, sc.Text())}
			}
			if f > 0 && (math.IsNaN(v) || math.IsInf(v, 0)) {
				return nil, &dynamo.IngestError{Particle: i, Field: name, Err: fmt.Errorf("%w: %q is not finite", dynamo.ErrIngest, sc.Text())}
			}
			vals[f] = v
		}

		if !(vals[0] > 0) || math.IsInf(vals[0], 0) {
			return nil, &dynamo.IngestError{Particle: i, Field: ingestFields[0], Err: fmt.Errorf("%w: got %g", dynamo.ErrNonPositiveMass, vals[0])}
		}

		ps[i] = dynamo.Particle{
			Mass: vals[0],
			Pos:  r2.Vec{X: vals[1], Y: vals[2]},
			Vel:  r2.Vec{X: vals[3], Y: vals[4]},
		}
	}

	return ps, nil
}

// WriteInitial writes ps in the layout ReadInitial accepts, one particle per
// line.
func WriteInitial(w io.Writer, ps []dynamo.Particle) error {
	bw := bufio.NewWriter(w)
	for _, p := range ps {
		if _, err := fmt.Fprintf(bw, "%s %s %s %s %s\n",
			formatFloat(p.Mass),
			formatFloat(p.Pos.X), formatFloat(p.Pos.Y),
			formatFloat(p.Vel.X), formatFloat(p.Vel.Y)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
