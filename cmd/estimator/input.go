package main

import (
	"github.com/spf13/cobra"

	"estimator/internal/features"
	"estimator/internal/model"
	"estimator/internal/service"
)

// inputFlags mirror the form fields. Only flags set on the command line
// reach the request; the rest stay absent.
type inputFlags struct {
	preset string

	totalArea          float64
	rooms              int
	ceilingHeight      float64
	metroMinutes       int
	passengerElevators int
	cargoElevators     int

	renovation   string
	windows      string
	childrenPets string
	balcony      string
	parking      string
	bathroom     string
	propertyType string
	metro        string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "start from a preset id, e.g. central-studio")

	fs.Float64Var(&f.totalArea, "total-area", 0, "total area, m²")
	fs.IntVar(&f.rooms, "rooms", 0, "number of rooms")
	fs.Float64Var(&f.ceilingHeight, "ceiling-height", 0, "ceiling height, m")
	fs.IntVar(&f.metroMinutes, "metro-minutes", 0, "walk to the metro, minutes")
	fs.IntVar(&f.passengerElevators, "pass-elevators", 0, "passenger elevators")
	fs.IntVar(&f.cargoElevators, "cargo-elevators", 0, "cargo elevators")

	fs.StringVar(&f.renovation, features.FieldRenovation, "", "renovation quality")
	fs.StringVar(&f.windows, features.FieldWindows, "", "window view")
	fs.StringVar(&f.childrenPets, "children-pets", "", "children/pets policy")
	fs.StringVar(&f.balcony, features.FieldBalcony, "", "balcony or loggia")
	fs.StringVar(&f.parking, features.FieldParking, "", "parking")
	fs.StringVar(&f.bathroom, features.FieldBathroom, "", "bathroom layout")
	fs.StringVar(&f.propertyType, "property-type", "", "property type")
	fs.StringVar(&f.metro, features.FieldMetro, "", "district / metro zone")
}

// request builds and validates the request from the flags that were set.
func (f *inputFlags) request(cmd *cobra.Command) (model.EstimateRequest, error) {
	var req model.EstimateRequest
	if f.preset != "" {
		presets, err := service.LoadPresets()
		if err != nil {
			return req, err
		}
		p, ok := presets.Get(f.preset)
		if !ok {
			return req, &model.ValidationError{Fields: []model.FieldError{{Field: "preset", Message: "unknown preset " + f.preset}}}
		}
		req = p.Input
	}

	changed := cmd.Flags().Changed
	setFloat := func(name string, dst **float64, v float64) {
		if changed(name) {
			*dst = &v
		}
	}
	setInt := func(name string, dst **int, v int) {
		if changed(name) {
			*dst = &v
		}
	}
	setString := func(name string, dst **string, v string) {
		if changed(name) {
			*dst = &v
		}
	}

	setFloat("total-area", &req.TotalArea, f.totalArea)
	setInt("rooms", &req.Rooms, f.rooms)
	setFloat("ceiling-height", &req.CeilingHeight, f.ceilingHeight)
	setInt("metro-minutes", &req.MetroMinutes, f.metroMinutes)
	setInt("pass-elevators", &req.PassengerElevators, f.passengerElevators)
	setInt("cargo-elevators", &req.CargoElevators, f.cargoElevators)

	setString(features.FieldRenovation, &req.Renovation, f.renovation)
	setString(features.FieldWindows, &req.Windows, f.windows)
	setString("children-pets", &req.ChildrenPets, f.childrenPets)
	setString(features.FieldBalcony, &req.Balcony, f.balcony)
	setString(features.FieldParking, &req.Parking, f.parking)
	setString(features.FieldBathroom, &req.Bathroom, f.bathroom)
	setString("property-type", &req.PropertyType, f.propertyType)
	setString(features.FieldMetro, &req.Metro, f.metro)

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
