// Package provider loads the price model and exposes it as a Provider. The
// model is opaque to the rest of the service: it takes a feature record and
// returns a price.
package provider

import (
	"context"
	"errors"

	"estimator/internal/features"
)

// Provider predicts a price from a record aligned with ExpectedColumns.
type Provider interface {
	// Predict returns the price estimate for one feature record.
	Predict(ctx context.Context, in features.Record) (float64, error)

	// ExpectedColumns returns the model's column order, or nil when the
	// model carries no column names.
	ExpectedColumns() []string

	// Info describes the loaded model.
	Info() ModelInfo
}

// ModelInfo describes a loaded model.
type ModelInfo struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Source    string  `json:"source,omitempty"`
	Columns   int     `json:"columns"`
	Metrics   Metrics `json:"metrics"`
	TrainedOn int     `json:"trained_on,omitempty"`
	Updated   string  `json:"updated,omitempty"`
}

// Metrics are the quality figures published with a model.
type Metrics struct {
	R2       float64 `json:"r2,omitempty"`
	MAE      float64 `json:"mae,omitempty"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// ErrUnavailable matches every error caused by a model that cannot be
// loaded or queried.
var ErrUnavailable = errors.New("model provider unavailable")

// ErrDimension is returned when a record's width does not match the model.
var ErrDimension = errors.New("feature vector width does not match the model")

// UnavailableError reports a failed load or predict call.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return "model provider unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnavailable) hold for any UnavailableError.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(op string, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
