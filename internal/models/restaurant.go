package models

// City is the type for the supported-city enum.
type City string

// City enum values.
const (
	CityTbilisi City = "tbilisi"
	CityBatumi  City = "batumi"
	CityKutaisi City = "kutaisi"
)

// DisplayName returns the human-readable city name used in prompts.
func (c City) DisplayName() string {
	switch c {
	case CityTbilisi:
		return "Tbilisi"
	case CityBatumi:
		return "Batumi"
	case CityKutaisi:
		return "Kutaisi"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the supported cities.
func (c City) Valid() bool {
	switch c {
	case CityTbilisi, CityBatumi, CityKutaisi:
		return true
	}
	return false
}

// LocationDescriptor is an immutable coordinate value. IsLive=false means
// the coordinates are unset and city-name search applies; IsLive=true means
// the coordinates are authoritative and take precedence over the city
// selector. It is replaced wholesale on each geolocation success or city
// change.
type LocationDescriptor struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsLive    bool    `json:"is_live"`
}

// SearchCriteria holds the five input dimensions of a search. FreeText,
// when non-empty after trimming, fully overrides Category for query
// purposes, but both are retained independently.
type SearchCriteria struct {
	City     City               `json:"city"`
	Category string             `json:"category"`
	FreeText string             `json:"free_text"`
	Location LocationDescriptor `json:"location"`
}

// Restaurant is a single discovered place. Produced only by the response
// normalizer, never hand-constructed, and treated as immutable once parsed.
// Field names match the schema the upstream model is instructed to emit.
type Restaurant struct {
	Name              string   `json:"name"`
	Rating            float64  `json:"rating"`
	ReviewCount       int      `json:"reviewCount"`
	PriceLevel        string   `json:"priceLevel"` // one of "$", "$$", "$$$"
	Cuisine           string   `json:"cuisine"`
	Address           string   `json:"address"`
	Lat               *float64 `json:"lat,omitempty"`
	Lng               *float64 `json:"lng,omitempty"`
	PhoneNumber       *string  `json:"phoneNumber,omitempty"`
	AISummary         string   `json:"aiSummary"`
	LikelyAggregators []string `json:"likelyAggregators"`
}

// Aggregators returns the delivery platforms for display. When the upstream
// inferred none, the canonical platform list is substituted at read time;
// the stored entity is not mutated.
func (r *Restaurant) Aggregators() []string {
	if len(r.LikelyAggregators) > 0 {
		return r.LikelyAggregators
	}
	return DefaultAggregators()
}

// DefaultAggregators returns the canonical delivery platform list used when
// the upstream could not infer availability.
func DefaultAggregators() []string {
	return []string{"Wolt", "Glovo", "Bolt Food", "Yandex Eats"}
}
