package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

const minSpectrumSamples = 4

// Spectrum is the one-sided power spectrum of an evenly sampled series.
// Freq is in cycles per unit of simulated time.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// EnergySpectrum transforms the total energy of the measured samples, with
// the mean removed. Samples must be evenly spaced in time, which holds for
// any history produced by a single run.
func EnergySpectrum(samples []dynamo.Sample) (*Spectrum, error) {
	times := make([]float64, 0, len(samples))
	series := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Measured {
			times = append(times, s.Time)
			series = append(series, s.Energy.Total())
		}
	}
	if len(series) < minSpectrumSamples {
		return nil, fmt.Errorf("%w: %d measured samples, need %d", ErrInsufficientData, len(series), minSpectrumSamples)
	}

	interval := times[1] - times[0]
	if !(interval > 0) {
		return nil, fmt.Errorf("%w: samples are not increasing in time", dynamo.ErrInvalidConfig)
	}

	mean := stat.Mean(series, nil)
	for i := range series {
		series[i] -= mean
	}

	fft := fourier.NewFFT(len(series))
	coeff := fft.Coefficients(nil, series)

	sp := &Spectrum{
		Freq:  make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		sp.Freq[i] = fft.Freq(i) / interval
		a := cmplx.Abs(c)
		sp.Power[i] = a * a
	}
	return sp, nil
}

// DominantPeriod returns the period of the strongest non-zero frequency, or
// +Inf when the spectrum is flat.
func (s *Spectrum) DominantPeriod() float64 {
	best := -1
	for i := 1; i < len(s.Power); i++ {
		if best < 0 || s.Power[i] > s.Power[best] {
			best = i
		}
	}
	if best < 0 || s.Power[best] == 0 {
		return math.Inf(1)
	}
	return 1 / s.Freq[best]
}
