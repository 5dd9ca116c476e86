package model

import "estimator/internal/features"

// NumericField describes the bounds and form default of a numeric input.
// The bounds match the validate tags on EstimateRequest.
type NumericField struct {
	Field   string   `json:"field"`
	Label   string   `json:"label"`
	Min     float64  `json:"min"`
	Max     *float64 `json:"max,omitempty"`
	Step    float64  `json:"step"`
	Integer bool     `json:"integer"`
	Default float64  `json:"default"`
}

// Options is everything the form needs to render its inputs
type Options struct {
	Numeric     []NumericField    `json:"numeric"`
	Categorical []features.Domain `json:"categorical"`
}

// Preset is a named, prefilled form template
type Preset struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Input       EstimateRequest `json:"input" yaml:"input"`
}

func bound(v float64) *float64 { return &v }

// NumericFields returns the numeric inputs in form order.
func NumericFields() []NumericField {
	return []NumericField{
		{Field: features.ColTotalArea, Label: "Общая площадь (м²)", Min: 10, Max: bound(500), Step: 0.5, Default: 65},
		{Field: features.ColRooms, Label: "Количество комнат", Min: 1, Step: 1, Integer: true, Default: 2},
		{Field: features.ColCeilingHeight, Label: "Высота потолков (м)", Min: 2, Max: bound(5), Step: 0.1, Default: 2.7},
		{Field: features.ColMetroMinutes, Label: "Время до метро (мин пешком)", Min: 1, Max: bound(60), Step: 1, Integer: true, Default: 10},
		{Field: features.ColPassengerElevators, Label: "Пассажирских лифтов", Min: 0, Max: bound(10), Step: 1, Integer: true, Default: 1},
		{Field: features.ColCargoElevators, Label: "Грузовых лифтов", Min: 0, Max: bound(10), Step: 1, Integer: true, Default: 0},
	}
}

// NewOptions assembles the form options.
func NewOptions() Options {
	return Options{
		Numeric:     NumericFields(),
		Categorical: features.Domains(),
	}
}
