package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Momentum records the largest centre-of-mass speed seen at any output step.
// Gravity is internal to the system, so in exact arithmetic it stays at its
// initial value.
type Momentum struct {
	name    string
	maxComV float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "com_speed"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(sys *dynamo.System, s dynamo.Sample) {
	m.maxComV = math.Max(m.maxComV, r2.Norm(sys.CenterOfMassVelocity()))
}

func (m *Momentum) Value() float64 { return m.maxComV }

func (m *Momentum) Reset() { m.maxComV = 0 }
