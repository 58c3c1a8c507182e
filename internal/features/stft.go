package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// frameSignal slices samples into frames of frameLen, hop apart. Frames lie
// entirely inside the signal so that a constant input yields identical
// frames; an input shorter than one frame is zero-padded to a single frame.
func frameSignal(samples []float64, frameLen, hop int) [][]float64 {
	if len(samples) < frameLen {
		frame := make([]float64, frameLen)
		copy(frame, samples)
		return [][]float64{frame}
	}

	numFrames := (len(samples)-frameLen)/hop + 1
	frames := make([][]float64, numFrames)
	for t := range frames {
		start := t * hop
		frames[t] = samples[start : start+frameLen]
	}
	return frames
}

// hannWindow generates a periodic Hann window
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// spectrogram holds per-frame magnitude and power spectra, [frames][bins]
// with bins = frameLen/2 + 1
type spectrogram struct {
	magnitude [][]float64
	power     [][]float64
}

func computeSpectrogram(frames [][]float64, frameLen int) spectrogram {
	fft := fourier.NewFFT(frameLen)
	window := hannWindow(frameLen)
	bins := frameLen/2 + 1

	sg := spectrogram{
		magnitude: make([][]float64, len(frames)),
		power:     make([][]float64, len(frames)),
	}

	windowed := make([]float64, frameLen)
	coeffs := make([]complex128, bins)
	for t, frame := range frames {
		for i, s := range frame {
			windowed[i] = s * window[i]
		}
		coeffs = fft.Coefficients(coeffs, windowed)

		mag := make([]float64, bins)
		pow := make([]float64, bins)
		for k, c := range coeffs {
			a := cmplx.Abs(c)
			mag[k] = a
			pow[k] = a * a
		}
		sg.magnitude[t] = mag
		sg.power[t] = pow
	}
	return sg
}

// binFrequency returns the centre frequency of FFT bin k
func binFrequency(k, sampleRate, frameLen int) float64 {
	return float64(k) * float64(sampleRate) / float64(frameLen)
}
