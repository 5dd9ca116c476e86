package features

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Column is a single named numeric feature.
type Column struct {
	Name  string
	Value float64
}

// Record is an ordered set of named numeric features. Order matters: it is
// the column order handed to the model.
type Record []Column

// Get returns the value of the named column.
func (r Record) Get(name string) (float64, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// Names returns the column names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Values returns the column values in order.
func (r Record) Values() []float64 {
	values := make([]float64, len(r))
	for i, c := range r {
		values[i] = c.Value
	}
	return values
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, c := range r {
		m[c.Name] = c.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object keeping column order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the record, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("features: expected JSON object, got %v", tok)
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("features: expected column name, got %v", tok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("features: column %s: %w", name, err)
		}
		out = append(out, Column{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}
