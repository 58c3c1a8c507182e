package audio

import "math"

// humHarmonics is how many mains harmonics the notch removes (fundamental + 2nd)
const humHarmonics = 2

// humNotchQ sets the notch bandwidth; Q=30 at 50 Hz is roughly 1.7 Hz wide
const humNotchQ = 30.0

// RemoveHum applies cascaded biquad notch filters at the mains frequency and
// its second harmonic. Frequencies at or above Nyquist are skipped.
func RemoveHum(w Waveform, mainsHz int) Waveform {
	if mainsHz <= 0 || len(w.Samples) == 0 || w.SampleRate <= 0 {
		return w
	}

	out := append([]float64(nil), w.Samples...)
	nyquist := float64(w.SampleRate) / 2
	for h := 1; h <= humHarmonics; h++ {
		freq := float64(mainsHz * h)
		if freq >= nyquist {
			break
		}
		newNotch(freq, float64(w.SampleRate), humNotchQ).process(out)
	}

	return Waveform{Samples: out, SampleRate: w.SampleRate, Channels: w.Channels}
}

// HumRatio returns the fraction of signal energy found at the mains
// frequency and its second harmonic, measured with the Goertzel algorithm.
// Returns 0 for silent input.
func HumRatio(w Waveform, mainsHz int) float64 {
	if mainsHz <= 0 || len(w.Samples) == 0 || w.SampleRate <= 0 {
		return 0
	}

	total := 0.0
	for _, s := range w.Samples {
		total += s * s
	}
	if total == 0 {
		return 0
	}

	n := float64(len(w.Samples))
	hum := 0.0
	for h := 1; h <= humHarmonics; h++ {
		freq := float64(mainsHz * h)
		if freq >= float64(w.SampleRate)/2 {
			break
		}
		// Goertzel power is |X(k)|^2; a pure sinusoid of energy E yields
		// roughly E*N/2, so scale back to energy units
		hum += goertzelPower(w.Samples, freq, float64(w.SampleRate)) * 2 / n
	}

	ratio := hum / total
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func goertzelPower(samples []float64, freq, sampleRate float64) float64 {
	coeff := 2 * math.Cos(2*math.Pi*freq/sampleRate)
	var s1, s2 float64
	for _, x := range samples {
		s0 := x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

// notch is an RBJ cookbook biquad notch filter in direct form I
type notch struct {
	b0, b1, b2, a1, a2 float64
}

func newNotch(freq, sampleRate, q float64) notch {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha

	return notch{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func (n notch) process(samples []float64) {
	var x1, x2, y1, y2 float64
	for i, x := range samples {
		y := n.b0*x + n.b1*x1 + n.b2*x2 - n.a1*y1 - n.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		samples[i] = y
	}
}
