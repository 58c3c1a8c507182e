package risk

import "slices"

// Band is a coarse risk category used to select advice
type Band string

const (
	BandElevated Band = "elevated"
	BandTypical  Band = "typical"
)

// BandFor places a probability in a band. Elevated matches the
// irregular-speech threshold.
func BandFor(p float64) Band {
	if p > IrregularThreshold {
		return BandElevated
	}
	return BandTypical
}

// AdviceTable maps a band to speech practice recommendations. Tables are
// treated as read-only once built.
type AdviceTable map[Band][]string

// DefaultAdvice returns the built-in speech practice recommendations.
// Each call returns a fresh table.
func DefaultAdvice() AdviceTable {
	return AdviceTable{
		BandElevated: {
			"Practice speech exercises regularly",
			"Focus on breath control during speech",
			"Consider speech therapy sessions",
		},
		BandTypical: {
			"Continue monitoring speech patterns",
			"Maintain regular voice exercises",
			"Record speech samples periodically",
		},
	}
}

// Advise returns the recommendations for a probability. The result is a
// copy and may be modified by the caller.
func Advise(p float64, table AdviceTable) []string {
	return slices.Clone(table[BandFor(p)])
}
