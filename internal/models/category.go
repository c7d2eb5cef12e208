package models

import "time"

// Category types. The set is closed and checked on every write.
const (
	CategoryCarType  = "carType"
	CategoryFuelType = "fuelType"
	CategoryTag      = "tag"
)

type Category struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Type        string    `json:"type" bson:"type"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Featured    bool      `json:"featured" bson:"featured"`
	CarCount    int       `json:"carCount" bson:"carCount"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CategoryInput struct {
	Name        *string `json:"name" validate:"required,notblank"`
	Slug        *string `json:"slug" validate:"required,notblank"`
	Type        *string `json:"type" validate:"required,oneof=carType fuelType tag"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	Featured    *bool   `json:"featured"`
	CarCount    *int    `json:"carCount" validate:"omitempty,gte=0"`
}

func (in CategoryInput) Fields() map[string]any {
	set := make(map[string]any)
	putString(set, "name", in.Name)
	putString(set, "slug", in.Slug)
	putString(set, "type", in.Type)
	putString(set, "image", in.Image)
	putString(set, "description", in.Description)
	putBool(set, "featured", in.Featured)
	if in.CarCount != nil {
		set["carCount"] = *in.CarCount
	}
	return set
}

// ValidCategoryType reports whether t is one of the closed set of types.
func ValidCategoryType(t string) bool {
	switch t {
	case CategoryCarType, CategoryFuelType, CategoryTag:
		return true
	}
	return false
}
