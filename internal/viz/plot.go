package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// EnergySeries splits the measured samples into kinetic, potential and total
// series.
func EnergySeries(samples []dynamo.Sample) (ke, pe, total []float64) {
	for _, s := range samples {
		if !s.Measured {
			continue
		}
		ke = append(ke, s.Energy.Kinetic)
		pe = append(pe, s.Energy.Potential)
		total = append(total, s.Energy.Total())
	}
	return ke, pe, total
}

// EnergyPlot charts total energy. It returns "" when fewer than two samples
// were measured.
func EnergyPlot(samples []dynamo.Sample, width, height int) string {
	_, _, total := EnergySeries(samples)
	if len(total) < 2 {
		return ""
	}
	return asciigraph.Plot(total,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("total energy (J)"),
	)
}

// ComponentsPlot charts kinetic, potential and total energy together.
func ComponentsPlot(samples []dynamo.Sample, width, height int) string {
	ke, pe, total := EnergySeries(samples)
	if len(total) < 2 {
		return ""
	}
	return asciigraph.PlotMany([][]float64{ke, pe, total},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Default),
		asciigraph.SeriesLegends("KE", "PE", "total"),
		asciigraph.Caption("energy (J)"),
	)
}
