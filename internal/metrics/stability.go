package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Stability is the fraction of output steps at which every coordinate was
// finite and no particle was farther than threshold from the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	buf        []float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sys *dynamo.System, _ dynamo.Sample) {
	s.samples++

	s.buf = s.buf[:0]
	for i := 0; i < sys.Len(); i++ {
		p := sys.At(i)
		s.buf = append(s.buf, p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y)
	}

	if floats.HasNaN(s.buf) {
		s.violations++
		return
	}
	for i := 0; i < len(s.buf); i += 4 {
		if math.IsInf(s.buf[i], 0) || math.IsInf(s.buf[i+2], 0) || math.IsInf(s.buf[i+3], 0) ||
			math.Hypot(s.buf[i], s.buf[i+1]) > s.threshold {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
