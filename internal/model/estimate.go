package model

import (
	"time"

	"github.com/google/uuid"

	"estimator/internal/features"
	"estimator/internal/provider"
)

// EstimateRequest is the apartment description submitted by the form.
// Numeric bounds are checked by Validate; categorical values are not, they
// encode to 0 when unknown.
type EstimateRequest struct {
	TotalArea          *float64 `json:"total_area,omitempty" yaml:"total_area,omitempty" validate:"omitempty,gte=10,lte=500"`
	Rooms              *int     `json:"numbere_of_rooms,omitempty" yaml:"numbere_of_rooms,omitempty" validate:"omitempty,gte=1"`
	CeilingHeight      *float64 `json:"ceiling_height,omitempty" yaml:"ceiling_height,omitempty" validate:"omitempty,gte=2,lte=5"`
	MetroMinutes       *int     `json:"Time_metro,omitempty" yaml:"Time_metro,omitempty" validate:"omitempty,gte=1,lte=60"`
	PassengerElevators *int     `json:"pass_elevators,omitempty" yaml:"pass_elevators,omitempty" validate:"omitempty,gte=0,lte=10"`
	CargoElevators     *int     `json:"cargo_elevators,omitempty" yaml:"cargo_elevators,omitempty" validate:"omitempty,gte=0,lte=10"`

	Renovation   *string `json:"renovation,omitempty" yaml:"renovation,omitempty"`
	Windows      *string `json:"windows,omitempty" yaml:"windows,omitempty"`
	ChildrenPets *string `json:"children_pets,omitempty" yaml:"children_pets,omitempty"`
	Balcony      *string `json:"balcony,omitempty" yaml:"balcony,omitempty"`
	Parking      *string `json:"parking,omitempty" yaml:"parking,omitempty"`
	Bathroom     *string `json:"bathroom,omitempty" yaml:"bathroom,omitempty"`
	PropertyType *string `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	Metro        *string `json:"metro,omitempty" yaml:"metro,omitempty"`
}

// Raw converts the request into encoder input.
func (r EstimateRequest) Raw() features.RawInput {
	return features.RawInput{
		TotalArea:          r.TotalArea,
		Rooms:              r.Rooms,
		CeilingHeight:      r.CeilingHeight,
		MetroMinutes:       r.MetroMinutes,
		PassengerElevators: r.PassengerElevators,
		CargoElevators:     r.CargoElevators,
		Renovation:         r.Renovation,
		Windows:            r.Windows,
		ChildrenPets:       r.ChildrenPets,
		Balcony:            r.Balcony,
		Parking:            r.Parking,
		Bathroom:           r.Bathroom,
		PropertyType:       r.PropertyType,
		Metro:              r.Metro,
	}
}

// Estimate is a price estimate together with everything that produced it
type Estimate struct {
	ID         uuid.UUID            `json:"id"`
	Price      float64              `json:"price"`
	RangeLow   float64              `json:"range_low"`
	RangeHigh  float64              `json:"range_high"`
	Input      features.RawInput    `json:"input"`
	Features   features.Record      `json:"features"`
	ModelInput features.Record      `json:"model_input"`
	SchemaDiff *features.SchemaDiff `json:"schema_diff,omitempty"`
	Model      provider.ModelInfo   `json:"model"`
	CreatedAt  time.Time            `json:"created_at"`
}

// SimilarEstimate is a past estimate close to a reference one in feature space
type SimilarEstimate struct {
	Estimate
	Distance float64 `json:"distance"`
}

// EncodeResult is the output of encoding without predicting
type EncodeResult struct {
	Features   features.Record      `json:"features"`
	ModelInput features.Record      `json:"model_input"`
	SchemaDiff *features.SchemaDiff `json:"schema_diff,omitempty"`
	Columns    []string             `json:"expected_columns"`
}

// EstimateEvent is one progress step of a streamed estimate
type EstimateEvent struct {
	Stage      string               `json:"stage"`
	Message    string               `json:"message"`
	ModelInput features.Record      `json:"model_input,omitempty"`
	SchemaDiff *features.SchemaDiff `json:"schema_diff,omitempty"`
}

// Stream stages
const (
	StageEncoding   = "encoding"
	StageReconciled = "reconciled"
	StagePredicting = "predicting"
)
