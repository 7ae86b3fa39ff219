package analysis

import (
	"math"
	"math/cmplx"
	"strings"
	"testing"
)

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestFFTPadsToPowerOfTwo(t *testing.T) {
	if got := len(FFT(make([]float64, 100))); got != 128 {
		t.Errorf("expected 128 bins, got %d", got)
	}
	if got := len(FFT([]float64{1})); got != 1 {
		t.Errorf("expected 1 bin, got %d", got)
	}
}

func TestFFTImpulse(t *testing.T) {
	spectrum := FFT([]float64{1, 0, 0, 0, 0, 0, 0, 0})
	for k, c := range spectrum {
		if math.Abs(real(c)-1) > 1e-12 || math.Abs(imag(c)) > 1e-12 {
			t.Errorf("bin %d: expected 1, got %v", k, c)
		}
	}
}

func TestFFTMatchesDFT(t *testing.T) {
	data := sine(3, 0.02, 50)
	spectrum := FFT(data)
	n := len(spectrum)
	if n != 64 {
		t.Fatalf("expected 64 bins, got %d", n)
	}

	for k := 0; k < n; k++ {
		var want complex128
		for i, v := range data {
			angle := -2 * math.Pi * float64(k*i) / float64(n)
			want += complex(v*math.Cos(angle), v*math.Sin(angle))
		}
		if cmplx.Abs(spectrum[k]-want) > 1e-9 {
			t.Errorf("bin %d: got %v want %v", k, spectrum[k], want)
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	dt := 0.02
	// 1.5625 Hz falls exactly on bin 32 of a 1024-sample window.
	freq, power := DominantFrequency(sine(1.5625, dt, 1024), dt)
	if math.Abs(freq-1.5625) > 1e-9 {
		t.Errorf("expected 1.5625 Hz, got %f", freq)
	}
	if power <= 0 {
		t.Error("expected positive power")
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 4
	}
	freq, power := DominantFrequency(flat, 0.02)
	if freq != 0 || power != 0 {
		t.Errorf("flat signal should have no dominant frequency, got %f/%f", freq, power)
	}
	if PowerSpectrum(nil) != nil {
		t.Error("empty signal should yield nil spectrum")
	}
}

func TestCrossings(t *testing.T) {
	dt := 0.01
	s := sine(1, dt, 500)
	got := Crossings(s, 0.3)
	// five periods, the first upward crossing at t=0 is not counted
	if len(got) != 4 && len(got) != 5 {
		t.Fatalf("expected 4 or 5 crossings, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if d := got[i] - got[i-1]; d < 99 || d > 101 {
			t.Errorf("crossing spacing %d, expected about 100 samples", d)
		}
	}
}

func TestPortraitASCII(t *testing.T) {
	xs := []float64{-1, 0, 1}
	ys := []float64{-1, 0, 1, 5}
	p := NewPortrait("speed", xs, "brake", ys)
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}

	out := p.ASCII(20, 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Errorf("expected 10 rows, got %d", len(lines))
	}
	if strings.Count(out, "•") < 2 {
		t.Errorf("expected plotted points:\n%s", out)
	}
	if (&Portrait{}).ASCII(20, 10) != "" {
		t.Error("empty portrait should render nothing")
	}
}
