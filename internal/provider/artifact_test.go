package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/features"
)

func TestReadArtifactFile_Forest(t *testing.T) {
	a, err := ReadArtifactFile("testdata/forest.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"total_area", "numbere_of_rooms", "property_Квартира"}, a.ExpectedColumns())

	info := a.Info()
	assert.Equal(t, "real-estate-random-forest", info.Name)
	assert.Equal(t, KindForest, info.Kind)
	assert.Equal(t, 3, info.Columns)
	assert.Equal(t, "testdata/forest.json", info.Source)
	assert.InDelta(t, 0.79, info.Metrics.R2, 1e-9)
	assert.Equal(t, 20000, info.TrainedOn)

	tests := []struct {
		name string
		in   features.Record
		want float64
	}{
		{"small", features.Record{{Name: "total_area", Value: 40}, {Name: "numbere_of_rooms", Value: 1}, {Name: "property_Квартира", Value: 1}}, (60000 + 70000) / 2},
		{"large apartment", features.Record{{Name: "total_area", Value: 65}, {Name: "numbere_of_rooms", Value: 2}, {Name: "property_Квартира", Value: 1}}, (110000 + 100000) / 2},
		{"large studio", features.Record{{Name: "total_area", Value: 65}, {Name: "numbere_of_rooms", Value: 2}, {Name: "property_Квартира", Value: 0}}, (90000 + 100000) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Predict(context.Background(), tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestArtifact_PredictAfterReconcile(t *testing.T) {
	a, err := ReadArtifactFile("testdata/forest.json")
	require.NoError(t, err)

	area, rooms, apartment := 65.0, 2, features.PropertyApartment
	rec := features.Encode(features.RawInput{TotalArea: &area, Rooms: &rooms, PropertyType: &apartment})
	aligned := features.Reconcile(rec, a.ExpectedColumns())

	got, err := a.Predict(context.Background(), aligned)
	require.NoError(t, err)
	assert.InDelta(t, 105000, got, 1e-9)
}

func TestArtifact_Linear(t *testing.T) {
	a, err := ParseArtifact([]byte(`{
		"name": "ols", "kind": "linear",
		"feature_names": ["a", "b"],
		"intercept": 1000, "coefficients": [10, -2]
	}`))
	require.NoError(t, err)

	got, err := a.Predict(context.Background(), features.Record{{Name: "a", Value: 5}, {Name: "b", Value: 3}})
	require.NoError(t, err)
	assert.InDelta(t, 1000+50-6, got, 1e-9)

	_, err = a.Predict(context.Background(), features.Record{{Name: "a", Value: 5}})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestArtifact_TreeWithoutNames(t *testing.T) {
	a, err := ParseArtifact([]byte(`{
		"kind": "tree",
		"trees": [{"feature": 3, "threshold": 1, "left": {"leaf": true, "value": 1}, "right": {"leaf": true, "value": 2}}]
	}`))
	require.NoError(t, err)
	assert.Nil(t, a.ExpectedColumns())

	got, err := a.Predict(context.Background(), features.Encode(features.RawInput{}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	_, err = a.Predict(context.Background(), features.Record{{Name: "x", Value: 1}})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestParseArtifact_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `pickle`},
		{"unknown kind", `{"kind": "svm"}`},
		{"linear without coefficients", `{"kind": "linear"}`},
		{"names and coefficients disagree", `{"kind": "linear", "feature_names": ["a"], "coefficients": [1, 2]}`},
		{"forest without trees", `{"kind": "forest"}`},
		{"missing branch", `{"kind": "tree", "trees": [{"feature": 0, "threshold": 1, "left": {"leaf": true}}]}`},
		{"feature outside names", `{"kind": "tree", "feature_names": ["a"], "trees": [{"feature": 4, "threshold": 1, "left": {"leaf": true}, "right": {"leaf": true}}]}`},
		{"negative feature", `{"kind": "tree", "trees": [{"feature": -1, "threshold": 1, "left": {"leaf": true}, "right": {"leaf": true}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
