package models

import "time"

type Brand struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Logo      string    `json:"logo" bson:"logo"`
	Slug      string    `json:"slug" bson:"slug"`
	Featured  bool      `json:"featured" bson:"featured"`
	CarCount  int       `json:"carCount" bson:"carCount"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type BrandInput struct {
	Name     *string `json:"name" validate:"required,notblank"`
	Logo     *string `json:"logo" validate:"required,notblank"`
	Slug     *string `json:"slug" validate:"required,notblank"`
	Featured *bool   `json:"featured"`
	CarCount *int    `json:"carCount" validate:"omitempty,gte=0"`
}

func (in BrandInput) Fields() map[string]any {
	set := make(map[string]any)
	putString(set, "name", in.Name)
	putString(set, "logo", in.Logo)
	putString(set, "slug", in.Slug)
	putBool(set, "featured", in.Featured)
	if in.CarCount != nil {
		set["carCount"] = *in.CarCount
	}
	return set
}
