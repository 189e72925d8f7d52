package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
)

func TestEnergySeries(t *testing.T) {
	samples := []dynamo.Sample{
		{Energy: dynamo.EnergyReport{Kinetic: 1, Potential: -3}, Measured: true},
		{Step: 1},
		{Step: 2, Energy: dynamo.EnergyReport{Kinetic: 2, Potential: -3}, Measured: true},
	}

	ke, pe, total := EnergySeries(samples)
	if len(ke) != 2 || len(pe) != 2 || len(total) != 2 {
		t.Fatalf("expected 2 points per series, got %d %d %d", len(ke), len(pe), len(total))
	}
	if total[0] != -2 || total[1] != -1 {
		t.Errorf("unexpected totals %v", total)
	}
}

func TestEnergyPlot(t *testing.T) {
	if EnergyPlot([]dynamo.Sample{{Measured: true}}, 40, 5) != "" {
		t.Error("expected empty plot for a single sample")
	}

	samples := []dynamo.Sample{
		{Energy: dynamo.EnergyReport{Kinetic: 1}, Measured: true},
		{Energy: dynamo.EnergyReport{Kinetic: 2}, Measured: true},
		{Energy: dynamo.EnergyReport{Kinetic: 4}, Measured: true},
	}
	if out := EnergyPlot(samples, 40, 5); !strings.Contains(out, "total energy") {
		t.Errorf("missing caption:\n%s", out)
	}
	if out := ComponentsPlot(samples, 40, 5); !strings.Contains(out, "KE") {
		t.Errorf("missing legend:\n%s", out)
	}
}
