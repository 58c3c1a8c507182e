package features

import "math"

// pitchClasses is the number of chroma bins, C through B
const pitchClasses = 12

// chromaClasses maps each FFT bin to its pitch class (C=0). Bins below
// minHz, including DC, map to -1 and are ignored.
func chromaClasses(frameLen, sampleRate int, minHz float64) []int {
	bins := frameLen/2 + 1
	classes := make([]int, bins)
	for k := range classes {
		f := binFrequency(k, sampleRate, frameLen)
		if f < minHz || f <= 0 {
			classes[k] = -1
			continue
		}
		midi := 12*math.Log2(f/440) + 69
		c := int(math.Round(midi)) % pitchClasses
		if c < 0 {
			c += pitchClasses
		}
		classes[k] = c
	}
	return classes
}

// chromaAggregate folds each power spectrum into 12 pitch classes, normalises
// the frame so its strongest class is 1, and returns the per-frame mean.
// Frames with no energy report 0.
func chromaAggregate(power [][]float64, classes []int) []float64 {
	out := make([]float64, len(power))
	var chroma [pitchClasses]float64
	for t, frame := range power {
		chroma = [pitchClasses]float64{}
		for k, p := range frame {
			if c := classes[k]; c >= 0 {
				chroma[c] += p
			}
		}

		peak := 0.0
		for _, v := range chroma {
			peak = math.Max(peak, v)
		}
		if peak <= 0 {
			continue
		}

		sum := 0.0
		for _, v := range chroma {
			sum += v / peak
		}
		out[t] = sum / pitchClasses
	}
	return out
}
