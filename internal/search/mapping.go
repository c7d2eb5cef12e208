package search

// searchableFields are matched by free-text queries. Boosts favour the
// display name and the brand.
var searchableFields = []string{
	"name^3",
	"brand^2",
	"model",
	"type",
	"fuelType",
	"description",
	"features",
}

// rankingSort orders hits by relevance, then featured first, then by rating
// and daily price, both descending.
var rankingSort = []any{
	"_score",
	map[string]any{"isFeatured": map[string]string{"order": "desc"}},
	map[string]any{"rating": map[string]string{"order": "desc"}},
	map[string]any{"dailyPrice": map[string]string{"order": "desc"}},
}

var indexSettings = map[string]any{
	"number_of_shards":   1,
	"number_of_replicas": 0,
}

func textWithKeyword() map[string]any {
	return map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
}

// indexMappings declares every SearchRecord field. Re-applying it is a no-op
// when nothing changed.
var indexMappings = map[string]any{
	"dynamic": "strict",
	"_meta": map[string]any{
		"ranking": []string{"isFeatured:desc", "rating:desc", "dailyPrice:desc"},
		"facets":  []string{"brand", "type", "fuelType", "transmission"},
	},
	"properties": map[string]any{
		"id":           map[string]any{"type": "keyword"},
		"name":         map[string]any{"type": "text"},
		"brand":        textWithKeyword(),
		"model":        map[string]any{"type": "text"},
		"type":         textWithKeyword(),
		"fuelType":     textWithKeyword(),
		"transmission": map[string]any{"type": "keyword"},
		"year":         map[string]any{"type": "integer"},
		"rating":       map[string]any{"type": "float"},
		"dailyPrice":   map[string]any{"type": "float"},
		"mileage":      map[string]any{"type": "float"},
		"images":       map[string]any{"type": "keyword", "index": false},
		"description":  map[string]any{"type": "text"},
		"features":     map[string]any{"type": "text"},
		"isAvailable":  map[string]any{"type": "boolean"},
		"isFeatured":   map[string]any{"type": "boolean"},
	},
}
