package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for callers
type Kind string

const (
	// KindBadInput means the recording could not be analysed; retrying with
	// the same input will fail again
	KindBadInput Kind = "bad_input"
	// KindNoModel means no model could be loaded or trained
	KindNoModel Kind = "no_model"
	// KindInternal means the model and features disagree or another
	// invariant broke
	KindInternal Kind = "internal"
)

// ErrorClassifier is implemented by errors that declare their Kind
type ErrorClassifier interface {
	ErrorKind() string
}

// Error is a classified pipeline failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind returns the classification as a string
func (e *Error) ErrorKind() string { return string(e.Kind) }

// KindOf returns the classification of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return Kind(classifier.ErrorKind())
	}
	return KindInternal
}

func wrap(kind Kind, op string, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
