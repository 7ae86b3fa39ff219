package analysis

import (
	"math/cmplx"

	dsp "github.com/mjibson/go-dsp/fft"
)

// FFT zero pads the input to the next power of two so bins line up with
// BinFrequency.
func FFT(data []float64) []complex128 {
	padded := make([]float64, nextPow2(len(data)))
	copy(padded, data)
	return dsp.FFTReal(padded)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// the mean-removed signal. Bin k corresponds to k/(N*dt) Hz where N is the
// padded length.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := FFT(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// BinFrequency converts a spectrum bin to Hz for a signal of n samples.
func BinFrequency(bin, n int, dt float64) float64 {
	return float64(bin) / (float64(nextPow2(n)) * dt)
}

// DominantFrequency returns the strongest non-DC component of a signal
// sampled every dt seconds. A flat signal yields zero.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	ps := PowerSpectrum(data)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			best = i
		}
	}
	if best == 0 {
		return 0, 0
	}
	return BinFrequency(best, len(data), dt), power
}
