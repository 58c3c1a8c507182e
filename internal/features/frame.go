package features

import "math"

// zeroThreshold is the magnitude at or below which a sample counts as zero
const zeroThreshold = 1e-10

// frameRMS returns the root-mean-square amplitude of each frame
func frameRMS(frames [][]float64) []float64 {
	out := make([]float64, len(frames))
	for t, frame := range frames {
		sum := 0.0
		for _, s := range frame {
			sum += s * s
		}
		out[t] = math.Sqrt(sum / float64(len(frame)))
	}
	return out
}

// frameZeroCrossingRate returns, per frame, the fraction of samples at which
// the sign changes. Near-zero samples are treated as zero and zero counts as
// positive, so silence has no crossings.
func frameZeroCrossingRate(frames [][]float64) []float64 {
	out := make([]float64, len(frames))
	for t, frame := range frames {
		crossings := 0
		prev := signBit(frame[0])
		for _, s := range frame[1:] {
			cur := signBit(s)
			if cur != prev {
				crossings++
			}
			prev = cur
		}
		out[t] = float64(crossings) / float64(len(frame))
	}
	return out
}

func signBit(s float64) bool {
	if math.Abs(s) <= zeroThreshold {
		return false
	}
	return s < 0
}

// spectralCentroid returns the magnitude-weighted mean frequency per frame;
// silent frames report 0
func spectralCentroid(magnitude [][]float64, sampleRate, frameLen int) []float64 {
	out := make([]float64, len(magnitude))
	for t, frame := range magnitude {
		var weighted, total float64
		for k, m := range frame {
			weighted += binFrequency(k, sampleRate, frameLen) * m
			total += m
		}
		if total > 0 {
			out[t] = weighted / total
		}
	}
	return out
}

// spectralRolloff returns per frame the lowest bin frequency below which
// percent of the magnitude total is contained; silent frames report 0
func spectralRolloff(magnitude [][]float64, sampleRate, frameLen int, percent float64) []float64 {
	out := make([]float64, len(magnitude))
	for t, frame := range magnitude {
		total := 0.0
		for _, m := range frame {
			total += m
		}
		if total <= 0 {
			continue
		}

		threshold := percent * total
		cumulative := 0.0
		for k, m := range frame {
			cumulative += m
			if cumulative >= threshold {
				out[t] = binFrequency(k, sampleRate, frameLen)
				break
			}
		}
	}
	return out
}
