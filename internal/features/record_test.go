package features

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_MarshalKeepsOrder(t *testing.T) {
	rec := Record{{"z", 1}, {"a", 2.5}, {"property_Квартира", 0}}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2.5,"property_Квартира":0}`, string(data))
}

func TestRecord_UnmarshalKeepsOrder(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"b": 2, "a": 1}`), &rec)
	require.NoError(t, err)
	assert.Equal(t, Record{{"b", 2}, {"a", 1}}, rec)
}

func TestRecord_UnmarshalErrors(t *testing.T) {
	var rec Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`{"a": "x"}`), &rec))
}

func TestRecord_NilRoundTrip(t *testing.T) {
	var rec Record
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Nil(t, rec)
}

func TestRecord_Accessors(t *testing.T) {
	rec := Record{{"a", 1}, {"b", 2}}

	v, ok := rec.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = rec.Get("c")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, rec.Names())
	assert.Equal(t, []float64{1, 2}, rec.Values())
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, rec.Map())
}
