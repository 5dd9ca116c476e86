// Package features turns apartment attributes chosen on the form into the
// fixed numeric column set the price model was trained on.
//
// Encoding never fails: absent fields and values outside a field's domain
// encode to 0. All tables are immutable, so every function here is safe for
// concurrent use.
package features

// RawInput is one form submission. Nil fields were not supplied.
type RawInput struct {
	TotalArea          *float64 `json:"total_area,omitempty"`
	Rooms              *int     `json:"numbere_of_rooms,omitempty"`
	CeilingHeight      *float64 `json:"ceiling_height,omitempty"`
	MetroMinutes       *int     `json:"Time_metro,omitempty"`
	PassengerElevators *int     `json:"pass_elevators,omitempty"`
	CargoElevators     *int     `json:"cargo_elevators,omitempty"`

	Renovation   *string `json:"renovation,omitempty"`
	Windows      *string `json:"windows,omitempty"`
	ChildrenPets *string `json:"children_pets,omitempty"`
	Balcony      *string `json:"balcony,omitempty"`
	Parking      *string `json:"parking,omitempty"`
	Bathroom     *string `json:"bathroom,omitempty"`
	PropertyType *string `json:"property_type,omitempty"`
	Metro        *string `json:"metro,omitempty"`
}

// Encode converts raw into the encoder's 15 columns.
func Encode(raw RawInput) Record {
	return Record{
		{ColTotalArea, floatOrZero(raw.TotalArea)},
		{ColRooms, intOrZero(raw.Rooms)},
		{ColCeilingHeight, floatOrZero(raw.CeilingHeight)},
		{ColMetroMinutes, intOrZero(raw.MetroMinutes)},
		{ColPassengerElevators, intOrZero(raw.PassengerElevators)},
		{ColCargoElevators, intOrZero(raw.CargoElevators)},
		{ColRenovation, encodeWith(renovationTable, raw.Renovation)},
		{ColWindows, encodeWith(windowsTable, raw.Windows)},
		{ColChildrenPets, encodeWith(childrenPetsTable, raw.ChildrenPets)},
		{ColBalcony, encodeWith(balconyTable, raw.Balcony)},
		{ColParking, encodeWith(parkingTable, raw.Parking)},
		{ColBathroom, encodeWith(bathroomTable, raw.Bathroom)},
		{ColMetro, encodeWith(metroTable, raw.Metro)},
		{ColApartment, encodeWith(propertyTable, raw.PropertyType)},
		// No address-level data is collected.
		{ColAddress, 0},
	}
}

// Reconcile aligns rec with the columns a model expects. A nil expected
// slice means the model published no schema and rec is returned as is.
// Otherwise the result holds exactly the expected columns in that order:
// columns rec lacks are zero, columns the model does not expect are dropped.
func Reconcile(rec Record, expected []string) Record {
	if expected == nil {
		return rec
	}

	values := rec.Map()
	out := make(Record, len(expected))
	for i, name := range expected {
		out[i] = Column{Name: name, Value: values[name]}
	}
	return out
}

// SchemaDiff lists the differences between an encoded record and a model's
// expected columns.
type SchemaDiff struct {
	Missing []string `json:"missing,omitempty"` // expected by the model, not produced
	Extra   []string `json:"extra,omitempty"`   // produced, not expected by the model
}

// Empty reports whether the record and the schema agree on the column set.
func (d SchemaDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// Diff compares rec with expected. A nil expected slice never differs.
func Diff(rec Record, expected []string) SchemaDiff {
	var diff SchemaDiff
	if expected == nil {
		return diff
	}

	produced := make(map[string]struct{}, len(rec))
	for _, c := range rec {
		produced[c.Name] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		wanted[name] = struct{}{}
		if _, ok := produced[name]; !ok {
			diff.Missing = append(diff.Missing, name)
		}
	}
	for _, c := range rec {
		if _, ok := wanted[c.Name]; !ok {
			diff.Extra = append(diff.Extra, c.Name)
		}
	}
	return diff
}

func encodeWith(t table, value *string) float64 {
	if value == nil {
		return 0
	}
	code, _ := t.lookup(*value)
	return float64(code)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
