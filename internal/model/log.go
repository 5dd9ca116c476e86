package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"estimator/internal/features"
	"estimator/internal/provider"
)

// EstimateLog is a stored estimate, one row of the estimates table
type EstimateLog struct {
	ID            uuid.UUID       `db:"id"`
	Price         float64         `db:"price"`
	RangeLow      float64         `db:"range_low"`
	RangeHigh     float64         `db:"range_high"`
	Input         JSONMap         `db:"input"`
	Features      pgvector.Vector `db:"features"` // encoder columns as float32, for similarity search
	ModelColumns  pq.StringArray  `db:"model_columns"`
	ModelValues   pq.Float64Array `db:"model_values"`
	ModelName     string          `db:"model_name"`
	ModelKind     string          `db:"model_kind"`
	SchemaMissing pq.StringArray  `db:"schema_missing"`
	SchemaExtra   pq.StringArray  `db:"schema_extra"`
	CreatedAt     time.Time       `db:"created_at"`
}

// SimilarLog is a stored estimate with its distance to a reference vector
type SimilarLog struct {
	EstimateLog
	Distance float64 `db:"distance"`
}

// NewEstimateLog flattens an estimate into its stored form.
func NewEstimateLog(e *Estimate) (*EstimateLog, error) {
	input, err := toJSONMap(e.Input)
	if err != nil {
		return nil, err
	}

	values := e.Features.Values()
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}

	l := &EstimateLog{
		ID:           e.ID,
		Price:        e.Price,
		RangeLow:     e.RangeLow,
		RangeHigh:    e.RangeHigh,
		Input:        input,
		Features:     pgvector.NewVector(vec),
		ModelColumns: e.ModelInput.Names(),
		ModelValues:  e.ModelInput.Values(),
		ModelName:    e.Model.Name,
		ModelKind:    e.Model.Kind,
		CreatedAt:    e.CreatedAt,
	}
	if e.SchemaDiff != nil {
		l.SchemaMissing = e.SchemaDiff.Missing
		l.SchemaExtra = e.SchemaDiff.Extra
	}
	return l, nil
}

// Estimate rebuilds the estimate from its stored form. Model metrics are
// not stored.
func (l *EstimateLog) Estimate() (*Estimate, error) {
	var input features.RawInput
	data, err := json.Marshal(l.Input)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	// The vector is float32 and only serves the similarity search; the
	// input is stored exactly, so the record is encoded again.
	rec := features.Encode(input)

	modelInput := make(features.Record, 0, len(l.ModelColumns))
	for i, name := range l.ModelColumns {
		var v float64
		if i < len(l.ModelValues) {
			v = l.ModelValues[i]
		}
		modelInput = append(modelInput, features.Column{Name: name, Value: v})
	}

	e := &Estimate{
		ID:         l.ID,
		Price:      l.Price,
		RangeLow:   l.RangeLow,
		RangeHigh:  l.RangeHigh,
		Input:      input,
		Features:   rec,
		ModelInput: modelInput,
		Model:      provider.ModelInfo{Name: l.ModelName, Kind: l.ModelKind, Columns: len(l.ModelColumns)},
		CreatedAt:  l.CreatedAt,
	}
	if len(l.SchemaMissing) > 0 || len(l.SchemaExtra) > 0 {
		e.SchemaDiff = &features.SchemaDiff{Missing: l.SchemaMissing, Extra: l.SchemaExtra}
	}
	return e, nil
}

func toJSONMap(v any) (JSONMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
