package model

import "errors"

var (
	// ErrUntrained is returned when inference is attempted without a fitted model
	ErrUntrained = errors.New("model is not trained")

	// ErrScalerMismatch is returned when a vector, scaler and forest disagree
	// on dimensionality or feature order
	ErrScalerMismatch = errors.New("feature layout does not match trained model")

	// ErrDegenerateCorpus is returned when a training corpus cannot produce a
	// useful classifier, such as one containing a single class
	ErrDegenerateCorpus = errors.New("degenerate training corpus")
)
