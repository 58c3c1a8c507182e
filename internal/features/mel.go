package features

import (
	"math"
	"sync"
)

// Slaney mel scale constants: linear below 1 kHz, logarithmic above
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// hzToMel converts frequency in Hz to the Slaney mel scale
func hzToMel(hz float64) float64 {
	if hz < melMinLogHz {
		return hz / melFSp
	}
	return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
}

// melToHz converts Slaney mel back to Hz
func melToHz(mel float64) float64 {
	if mel < melMinLogMel {
		return mel * melFSp
	}
	return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
}

// melFilterBank creates area-normalised triangular filters spanning 0 Hz to
// Nyquist. Returns [numMels][frameLen/2+1].
func melFilterBank(numMels, frameLen, sampleRate int) [][]float64 {
	bins := frameLen/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = binFrequency(k, sampleRate, frameLen)
	}

	// numMels + 2 mel-spaced edge frequencies
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2)
	edges := make([]float64, numMels+2)
	for i := range edges {
		edges[i] = melToHz(lowMel + (highMel-lowMel)*float64(i)/float64(numMels+1))
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		left, centre, right := edges[m], edges[m+1], edges[m+2]
		norm := 2.0 / (right - left)
		filter := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - left) / (centre - left)
			upper := (right - f) / (right - centre)
			w := math.Min(lower, upper)
			if w > 0 {
				filter[k] = w * norm
			}
		}
		bank[m] = filter
	}
	return bank
}

// dctBasis returns an orthonormal DCT-II matrix of shape [numCoeffs][n]
func dctBasis(numCoeffs, n int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	for k := range basis {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[k] = row
	}
	return basis
}

// filterBanks are the per-sample-rate tables used by the spectral families
type filterBanks struct {
	mel         [][]float64
	dct         [][]float64
	chromaClass []int
}

type bankKey struct {
	sampleRate int
	frameLen   int
	numMels    int
	numMFCC    int
}

type bankCache struct {
	mu    sync.Mutex
	banks map[bankKey]*filterBanks
}

func newBankCache() *bankCache {
	return &bankCache{banks: make(map[bankKey]*filterBanks)}
}

func (c *bankCache) get(sampleRate int, cfg Config) *filterBanks {
	key := bankKey{sampleRate, cfg.FrameLength, cfg.NumMels, cfg.NumMFCC}

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.banks[key]; ok {
		return b
	}
	b := &filterBanks{
		mel:         melFilterBank(cfg.NumMels, cfg.FrameLength, sampleRate),
		dct:         dctBasis(cfg.NumMFCC, cfg.NumMels),
		chromaClass: chromaClasses(cfg.FrameLength, sampleRate, cfg.ChromaMinHz),
	}
	c.banks[key] = b
	return b
}

// powerToDBFloor is the power floor before log conversion (-100 dB)
const powerToDBFloor = 1e-10

// cepstralAggregate computes MFCCs per frame and returns the mean of each
// frame's coefficients. The log-mel spectrogram is clamped to TopDB below
// its global maximum before the DCT.
func cepstralAggregate(power [][]float64, banks *filterBanks, cfg Config) []float64 {
	logMel := make([][]float64, len(power))
	maxDB := math.Inf(-1)
	for t, frame := range power {
		row := make([]float64, len(banks.mel))
		for m, filter := range banks.mel {
			sum := 0.0
			for k, w := range filter {
				if w != 0 {
					sum += w * frame[k]
				}
			}
			db := 10 * math.Log10(math.Max(sum, powerToDBFloor))
			row[m] = db
			if db > maxDB {
				maxDB = db
			}
		}
		logMel[t] = row
	}

	floor := maxDB - cfg.TopDB
	out := make([]float64, len(logMel))
	for t, row := range logMel {
		for m := range row {
			if row[m] < floor {
				row[m] = floor
			}
		}
		total := 0.0
		for _, basis := range banks.dct {
			c := 0.0
			for m, b := range basis {
				c += b * row[m]
			}
			total += c
		}
		out[t] = total / float64(len(banks.dct))
	}
	return out
}
