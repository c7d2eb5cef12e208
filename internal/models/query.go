package models

// CarQuery holds the exact-match constraints a document store can evaluate.
// Range constraints such as price bounds are not part of it on purpose: the
// catalog applies them in-process after retrieval.
type CarQuery struct {
	Brand        string
	Transmission string
	Category     string
	Fuel         string
	IsAvailable  *bool
	IsFeatured   *bool
	Limit        int
}

// Equals returns the equality constraints keyed by stored field name.
func (q CarQuery) Equals() map[string]any {
	eq := make(map[string]any)
	if q.Brand != "" {
		eq["brand"] = q.Brand
	}
	if q.Transmission != "" {
		eq["transmission"] = q.Transmission
	}
	if q.Category != "" {
		eq["category"] = q.Category
	}
	if q.Fuel != "" {
		eq["fuel"] = q.Fuel
	}
	if q.IsAvailable != nil {
		eq["isAvailable"] = *q.IsAvailable
	}
	if q.IsFeatured != nil {
		eq["isFeatured"] = *q.IsFeatured
	}
	return eq
}

type BrandQuery struct {
	Name     string
	Slug     string
	Featured *bool
	Limit    int
}

func (q BrandQuery) Equals() map[string]any {
	eq := make(map[string]any)
	if q.Name != "" {
		eq["name"] = q.Name
	}
	if q.Slug != "" {
		eq["slug"] = q.Slug
	}
	if q.Featured != nil {
		eq["featured"] = *q.Featured
	}
	return eq
}

type CategoryQuery struct {
	Type     string
	Slug     string
	Featured *bool
	Limit    int
}

func (q CategoryQuery) Equals() map[string]any {
	eq := make(map[string]any)
	if q.Type != "" {
		eq["type"] = q.Type
	}
	if q.Slug != "" {
		eq["slug"] = q.Slug
	}
	if q.Featured != nil {
		eq["featured"] = *q.Featured
	}
	return eq
}

// CarFilter is the storefront list filter: store-side equality constraints
// plus in-process price bounds and paging.
type CarFilter struct {
	CarQuery
	MinPrice *float64
	MaxPrice *float64
	Page     int // 1-based; 0 means no paging
}

// CarPage is one page of a filtered car listing.
type CarPage struct {
	Cars  []Car `json:"cars"`
	Total int   `json:"total"`
	Page  int   `json:"page"`
}

type Analytics struct {
	TotalCars       int64 `json:"totalCars"`
	TotalBrands     int64 `json:"totalBrands"`
	TotalCategories int64 `json:"totalCategories"`
	AvailableCars   int64 `json:"availableCars"`
	FeaturedCars    int64 `json:"featuredCars"`
}

// Landing is the storefront home page payload.
type Landing struct {
	FeaturedCars       []Car      `json:"featuredCars"`
	FeaturedBrands     []Brand    `json:"featuredBrands"`
	FeaturedCategories []Category `json:"featuredCategories"`
}

// Bool returns a pointer to b; handy for optional query flags.
func Bool(b bool) *bool { return &b }
