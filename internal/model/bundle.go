package model

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/linuxmatters/voxrisk/internal/features"
)

// Metrics records how a bundle was trained
type Metrics struct {
	TrainAccuracy float64 `msgpack:"train_accuracy" json:"train_accuracy" yaml:"train_accuracy"`
	TestAccuracy  float64 `msgpack:"test_accuracy" json:"test_accuracy" yaml:"test_accuracy"`
	TrainSamples  int     `msgpack:"train_samples" json:"train_samples" yaml:"train_samples"`
	TestSamples   int     `msgpack:"test_samples" json:"test_samples" yaml:"test_samples"`
	Positives     int     `msgpack:"positives" json:"positives" yaml:"positives"`
	Source        string  `msgpack:"source" json:"source" yaml:"source"`
	Synthetic     bool    `msgpack:"synthetic" json:"synthetic" yaml:"synthetic"`
}

// Bundle pairs a scaler with the forest trained on its output. It is the
// unit of persistence and replacement: the two halves are always stored,
// loaded and swapped together.
type Bundle struct {
	ID        string
	CreatedAt time.Time
	Scaler    *Scaler
	Forest    *Forest
	Metrics   Metrics
}

// Validate checks both halves are present and agree on the feature layout
func (b *Bundle) Validate() error {
	if b == nil || b.Scaler == nil || b.Forest == nil {
		return ErrUntrained
	}
	names := features.Names()
	if err := b.Scaler.Check(names); err != nil {
		return fmt.Errorf("bundle %s scaler: %w", b.ID, err)
	}
	if err := b.Forest.Check(names); err != nil {
		return fmt.Errorf("bundle %s forest: %w", b.ID, err)
	}
	return nil
}

// Predict scales a raw feature vector and classifies it
func (b *Bundle) Predict(raw features.Vector) (Prediction, error) {
	if b == nil || b.Scaler == nil || b.Forest == nil {
		return Prediction{}, ErrUntrained
	}
	scaled, err := b.Scaler.Transform(raw)
	if err != nil {
		return Prediction{}, fmt.Errorf("scale: %w", err)
	}
	return b.Forest.Predict(scaled)
}

// scalerBlob and classifierBlob are the two persisted halves. Each carries
// the bundle ID and feature names so a mixed pair can be detected on load.
type scalerBlob struct {
	BundleID string   `msgpack:"bundle_id"`
	Names    []string `msgpack:"names"`
	Scaler   *Scaler  `msgpack:"scaler"`
}

type classifierBlob struct {
	BundleID  string    `msgpack:"bundle_id"`
	CreatedAt time.Time `msgpack:"created_at"`
	Names     []string  `msgpack:"names"`
	Forest    *Forest   `msgpack:"forest"`
	Metrics   Metrics   `msgpack:"metrics"`
}

// Encode serialises the bundle into its scaler and classifier blobs
func (b *Bundle) Encode() (scaler, classifier []byte, err error) {
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}
	names := features.Names()

	scaler, err = msgpack.Marshal(&scalerBlob{BundleID: b.ID, Names: names, Scaler: b.Scaler})
	if err != nil {
		return nil, nil, fmt.Errorf("encode scaler: %w", err)
	}
	classifier, err = msgpack.Marshal(&classifierBlob{
		BundleID:  b.ID,
		CreatedAt: b.CreatedAt,
		Names:     names,
		Forest:    b.Forest,
		Metrics:   b.Metrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode classifier: %w", err)
	}
	return scaler, classifier, nil
}

// DecodeBundle rebuilds a bundle from its two blobs. Blobs from different
// bundles, or written for a different feature layout, fail with
// ErrScalerMismatch.
func DecodeBundle(scaler, classifier []byte) (*Bundle, error) {
	var sb scalerBlob
	if err := msgpack.Unmarshal(scaler, &sb); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	var cb classifierBlob
	if err := msgpack.Unmarshal(classifier, &cb); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}

	if sb.BundleID != cb.BundleID {
		return nil, fmt.Errorf("%w: scaler from bundle %q, classifier from %q", ErrScalerMismatch, sb.BundleID, cb.BundleID)
	}

	b := &Bundle{
		ID:        cb.BundleID,
		CreatedAt: cb.CreatedAt,
		Scaler:    sb.Scaler,
		Forest:    cb.Forest,
		Metrics:   cb.Metrics,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
