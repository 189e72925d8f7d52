package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/storage"
)

type EnergyPoint struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Total     float64 `json:"total"`
}

type ParticleState struct {
	Mass float64    `json:"mass"`
	Pos  [2]float64 `json:"pos"`
	Vel  [2]float64 `json:"vel"`
}

type ExportData struct {
	Run    storage.RunMetadata `json:"run"`
	Energy []EnergyPoint       `json:"energy"`
	Final  []ParticleState     `json:"final,omitempty"`
}

func NewExportData(meta storage.RunMetadata, samples []dynamo.Sample, final []dynamo.Particle) ExportData {
	data := ExportData{
		Run:    meta,
		Energy: make([]EnergyPoint, 0, len(samples)),
		Final:  make([]ParticleState, len(final)),
	}
	for _, s := range samples {
		if !s.Measured {
			continue
		}
		data.Energy = append(data.Energy, EnergyPoint{
			Step:      s.Step,
			Time:      s.Time,
			Kinetic:   s.Energy.Kinetic,
			Potential: s.Energy.Potential,
			Total:     s.Energy.Total(),
		})
	}
	for i, p := range final {
		data.Final[i] = ParticleState{
			Mass: p.Mass,
			Pos:  [2]float64{p.Pos.X, p.Pos.Y},
			Vel:  [2]float64{p.Vel.X, p.Vel.Y},
		}
	}
	return data
}

func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
