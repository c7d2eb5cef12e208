package models

import "time"

type Car struct {
	ID           string    `json:"id" bson:"_id"`
	Brand        string    `json:"brand" bson:"brand"`
	Model        string    `json:"model" bson:"model"`
	Name         string    `json:"name" bson:"name"`
	Year         int       `json:"year" bson:"year"`
	Transmission string    `json:"transmission" bson:"transmission"`
	Fuel         string    `json:"fuel" bson:"fuel"`
	Mileage      float64   `json:"mileage" bson:"mileage"`
	DailyPrice   float64   `json:"dailyPrice" bson:"dailyPrice"`
	Images       []string  `json:"images" bson:"images"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Features     []string  `json:"features" bson:"features"`
	Category     string    `json:"category,omitempty" bson:"category,omitempty"`
	Rating       float64   `json:"rating,omitempty" bson:"rating,omitempty"`
	IsAvailable  bool      `json:"isAvailable" bson:"isAvailable"`
	IsFeatured   bool      `json:"isFeatured" bson:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CarInput is the admin write payload for cars. Pointer fields distinguish
// "not sent" from a zero value, so the same type serves create and update.
type CarInput struct {
	Brand        *string   `json:"brand" validate:"required,notblank"`
	Model        *string   `json:"model" validate:"required,notblank"`
	Name         *string   `json:"name" validate:"required,notblank"`
	Year         *int      `json:"year" validate:"required,gt=0"`
	Transmission *string   `json:"transmission" validate:"required,notblank"`
	Fuel         *string   `json:"fuel" validate:"required,notblank"`
	Mileage      *float64  `json:"mileage" validate:"omitempty,gte=0"`
	DailyPrice   *float64  `json:"dailyPrice" validate:"required,gte=0"`
	Images       *[]string `json:"images"`
	Description  *string   `json:"description"`
	Features     *[]string `json:"features"`
	Category     *string   `json:"category"`
	Rating       *float64  `json:"rating" validate:"omitempty,gte=0"`
	IsAvailable  *bool     `json:"isAvailable"`
	IsFeatured   *bool     `json:"isFeatured"`
}

// Fields returns the document fields present in the input, keyed by their
// stored name. Absent fields are not included.
func (in CarInput) Fields() map[string]any {
	set := make(map[string]any)
	putString(set, "brand", in.Brand)
	putString(set, "model", in.Model)
	putString(set, "name", in.Name)
	if in.Year != nil {
		set["year"] = *in.Year
	}
	putString(set, "transmission", in.Transmission)
	putString(set, "fuel", in.Fuel)
	if in.Mileage != nil {
		set["mileage"] = *in.Mileage
	}
	if in.DailyPrice != nil {
		set["dailyPrice"] = *in.DailyPrice
	}
	putList(set, "images", in.Images)
	putString(set, "description", in.Description)
	putList(set, "features", in.Features)
	putString(set, "category", in.Category)
	if in.Rating != nil {
		set["rating"] = *in.Rating
	}
	putBool(set, "isAvailable", in.IsAvailable)
	putBool(set, "isFeatured", in.IsFeatured)
	return set
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putBool(m map[string]any, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}

// putList never stores a nil slice: an explicit JSON null becomes an empty list.
func putList(m map[string]any, key string, v *[]string) {
	if v == nil {
		return
	}
	if *v == nil {
		m[key] = []string{}
		return
	}
	m[key] = *v
}
