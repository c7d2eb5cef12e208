package models

import "strings"

// SearchRecord is the flattened projection of a Car held by the search
// index. It is derived data keyed by the car's id, never a source of truth.
type SearchRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Type         string   `json:"type"`
	FuelType     string   `json:"fuelType"`
	Transmission string   `json:"transmission"`
	Year         int      `json:"year"`
	Rating       float64  `json:"rating"`
	DailyPrice   float64  `json:"dailyPrice"`
	Mileage      float64  `json:"mileage"`
	Images       []string `json:"images"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	IsAvailable  bool     `json:"isAvailable"`
	IsFeatured   bool     `json:"isFeatured"`
}

const (
	unknownType  = "Unknown"
	notSpecified = "Not specified"
)

// NewSearchRecord projects a car into its search record. Every optional
// field gets a concrete default so the index never receives a null.
func NewSearchRecord(c Car) SearchRecord {
	r := SearchRecord{
		ID:           c.ID,
		Name:         strings.TrimSpace(c.Brand + " " + c.Name),
		Brand:        c.Brand,
		Model:        orDefault(c.Model, c.Name),
		Type:         orDefault(c.Category, unknownType),
		FuelType:     orDefault(c.Fuel, notSpecified),
		Transmission: orDefault(c.Transmission, notSpecified),
		Year:         c.Year,
		Rating:       c.Rating,
		DailyPrice:   c.DailyPrice,
		Mileage:      c.Mileage,
		Images:       c.Images,
		Description:  c.Description,
		Features:     c.Features,
		IsAvailable:  c.IsAvailable,
		IsFeatured:   c.IsFeatured,
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Features == nil {
		r.Features = []string{}
	}
	return r
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
