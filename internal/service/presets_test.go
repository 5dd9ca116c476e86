package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/features"
)

func TestLoadPresets(t *testing.T) {
	p, err := LoadPresets()
	require.NoError(t, err)

	list := p.List()
	require.Len(t, list, 3)
	assert.Equal(t, "Стандартная 2-комнатная", list[0].Name)
	assert.Equal(t, "Студия в центре", list[1].Name)
	assert.Equal(t, "Премиум 3-комнатная", list[2].Name)

	studio, ok := p.Get("central-studio")
	require.True(t, ok)
	require.NotNil(t, studio.Input.TotalArea)
	assert.Equal(t, 40.0, *studio.Input.TotalArea)
	require.NotNil(t, studio.Input.MetroMinutes)
	assert.Equal(t, 5, *studio.Input.MetroMinutes)

	rec := features.Encode(studio.Input.Raw())
	v, _ := rec.Get(features.ColApartment)
	assert.Equal(t, 0.0, v, "a studio is not an apartment")
	v, _ = rec.Get(features.ColRenovation)
	assert.Equal(t, 2.0, v)

	_, ok = p.Get("penthouse")
	assert.False(t, ok)
}

func TestPresets_ListIsACopy(t *testing.T) {
	p, err := LoadPresets()
	require.NoError(t, err)

	list := p.List()
	list[0].Name = "changed"
	assert.Equal(t, "Стандартная 2-комнатная", p.List()[0].Name)
}

func TestParsePresets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not a list", "id: x"},
		{"missing id", "- name: no id"},
		{"duplicate id", "- id: a\n- id: a"},
		{"out of range input", "- id: tiny\n  input:\n    total_area: 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePresets([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
