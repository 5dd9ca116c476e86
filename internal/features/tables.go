package features

// Column names produced by Encode. They match the training columns of the
// deployed model, spelling included.
const (
	ColTotalArea          = "total_area"
	ColRooms              = "numbere_of_rooms"
	ColCeilingHeight      = "ceiling_height"
	ColMetroMinutes       = "Time_metro"
	ColPassengerElevators = "pass_elevators"
	ColCargoElevators     = "cargo_elevators"
	ColRenovation         = "renovation_encoded"
	ColWindows            = "windows_encoded"
	ColChildrenPets       = "children_pets_encoded"
	ColBalcony            = "balcony_encoded"
	ColParking            = "parking_encoded"
	ColBathroom           = "bathroom_encoded"
	ColMetro              = "metro_encoder"
	ColApartment          = "property_Квартира"
	ColAddress            = "address_encod"
)

// columnOrder is the encoder-defined column order.
var columnOrder = [...]string{
	ColTotalArea,
	ColRooms,
	ColCeilingHeight,
	ColMetroMinutes,
	ColPassengerElevators,
	ColCargoElevators,
	ColRenovation,
	ColWindows,
	ColChildrenPets,
	ColBalcony,
	ColParking,
	ColBathroom,
	ColMetro,
	ColApartment,
	ColAddress,
}

// ColumnNames returns the encoder's output columns in order.
func ColumnNames() []string {
	names := make([]string, len(columnOrder))
	copy(names, columnOrder[:])
	return names
}

// Field keys of the categorical inputs.
const (
	FieldRenovation   = "renovation"
	FieldWindows      = "windows"
	FieldChildrenPets = "children_pets"
	FieldBalcony      = "balcony"
	FieldParking      = "parking"
	FieldBathroom     = "bathroom"
	FieldPropertyType = "property_type"
	FieldMetro        = "metro"
)

// Category values accepted by the form.
const (
	RenovationNone     = "без ремонта"
	RenovationCosmetic = "косметический"
	RenovationEuro     = "евроремонт"
	RenovationDesigner = "дизайнерский"

	WindowsCourtyard = "во двор"
	WindowsStreet    = "на улицу"
	WindowsBoth      = "на улицу и двор"

	PetsOnly         = "Можно с животными"
	ChildrenOnly     = "Можно с детьми"
	ChildrenAndPets  = "Можно с детьми, Можно с животными"

	BalconyNone      = "нет"
	BalconyOne       = "1 балкон"
	BalconyTwo       = "2 балкона"
	BalconyLoggia    = "лоджия"
	BalconyTwoLoggia = "2 лоджии"

	ParkingNone        = "нет"
	ParkingGround      = "наземная"
	ParkingUnderground = "подземная"
	ParkingMultiLevel  = "многоуровневая"
	ParkingRooftop     = "на крыше"

	BathroomCombined = "совмещенный"
	BathroomSeparate = "раздельный"
	BathroomTwo      = "2 санузла"

	PropertyApartment         = "Квартира"
	PropertyStudio            = "Студия"
	PropertyServicedApartment = "Апартаменты"
	PropertyPenthouse         = "Пентхаус"

	MetroCenter    = "Центр"
	MetroSatellite = "Спутник"
	MetroEast      = "Восточный"
	MetroWest      = "Западный"
	MetroNorth     = "Северный"
	MetroSouth     = "Южный"
)

// entry is one value of an ordinal table.
type entry struct {
	value string
	code  int
}

// table is an ordered value -> code mapping. Order is kept for the form.
type table []entry

func (t table) lookup(value string) (int, bool) {
	for _, e := range t {
		if e.value == value {
			return e.code, true
		}
	}
	return 0, false
}

func (t table) values() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.value
	}
	return out
}

var (
	renovationTable = table{
		{RenovationNone, 0},
		{RenovationCosmetic, 1},
		{RenovationEuro, 2},
		{RenovationDesigner, 3},
	}
	windowsTable = table{
		{WindowsCourtyard, 0},
		{WindowsStreet, 1},
		{WindowsBoth, 2},
	}
	childrenPetsTable = table{
		{PetsOnly, 0},
		{ChildrenOnly, 1},
		{ChildrenAndPets, 2},
	}
	balconyTable = table{
		{BalconyNone, 0},
		{BalconyOne, 1},
		{BalconyTwo, 2},
		{BalconyLoggia, 3},
		{BalconyTwoLoggia, 4},
	}
	parkingTable = table{
		{ParkingNone, 0},
		{ParkingGround, 1},
		{ParkingUnderground, 2},
		{ParkingMultiLevel, 3},
		{ParkingRooftop, 4},
	}
	bathroomTable = table{
		{BathroomCombined, 0},
		{BathroomSeparate, 1},
		{BathroomTwo, 2},
	}
	// Collapsed one-hot: only the apartment type is switched on.
	propertyTable = table{
		{PropertyApartment, 1},
		{PropertyStudio, 0},
		{PropertyServicedApartment, 0},
		{PropertyPenthouse, 0},
	}
	// Sparse on purpose. Zones missing here encode the same as unknown ones.
	metroTable = table{
		{MetroCenter, 1},
		{MetroSatellite, 0},
		{MetroEast, 0},
		{MetroWest, 0},
		{MetroNorth, 0},
		{MetroSouth, 0},
	}
)

// Domain describes the selectable values of one categorical input.
type Domain struct {
	Field  string   `json:"field"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Domains returns the categorical option lists in form order.
func Domains() []Domain {
	return []Domain{
		{Field: FieldPropertyType, Label: "Тип недвижимости", Values: propertyTable.values()},
		{Field: FieldMetro, Label: "Район/станция метро", Values: metroTable.values()},
		{Field: FieldRenovation, Label: "Качество ремонта", Values: renovationTable.values()},
		{Field: FieldBalcony, Label: "Балкон/лоджия", Values: balconyTable.values()},
		{Field: FieldWindows, Label: "Вид из окон", Values: windowsTable.values()},
		{Field: FieldParking, Label: "Парковка", Values: parkingTable.values()},
		{Field: FieldBathroom, Label: "Санузел", Values: bathroomTable.values()},
		{Field: FieldChildrenPets, Label: "Можно с детьми/животными", Values: childrenPetsTable.values()},
	}
}

// Code returns the code of value in the named categorical field. Unknown
// fields and values report false.
func Code(field, value string) (int, bool) {
	t, ok := tablesByField[field]
	if !ok {
		return 0, false
	}
	return t.lookup(value)
}

var tablesByField = map[string]table{
	FieldRenovation:   renovationTable,
	FieldWindows:      windowsTable,
	FieldChildrenPets: childrenPetsTable,
	FieldBalcony:      balconyTable,
	FieldParking:      parkingTable,
	FieldBathroom:     bathroomTable,
	FieldPropertyType: propertyTable,
	FieldMetro:        metroTable,
}
