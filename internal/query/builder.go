package query

import (
	"fmt"
	"strings"

	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/forkcast/forkcast-api/internal/models"
)

// Fixed output-shape contract embedded in every request.
const (
	ResultCount = 30
	MinRating   = 4.0
	RadiusKM    = 8
)

// Fallbacks used when a prompt template is missing or fails to render, so
// Build stays total.
const (
	defaultSystem   = "You are a local dining expert with access to live map data."
	defaultTrending = "popular, currently trending restaurants"
)

// GeoHint is the structured grounding parameter attached to radius-bounded
// requests. It biases the upstream's map retrieval toward the coordinates.
type GeoHint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RequestSpec is a finalized request specification: prompt text plus an
// optional geospatial grounding hint. Built deterministically from
// SearchCriteria; identical criteria always yield an identical spec.
type RequestSpec struct {
	System  string
	Prompt  string
	GeoHint *GeoHint
}

// expansion describes category-specific subject broadening. Broadening is
// table-driven so new categories can be enumerated without touching the
// derivation logic.
type expansion struct {
	Districts []string
	Variants  string
}

var categoryExpansions = map[string]expansion{
	"Chinese": {
		Districts: []string{"Saburtalo", "Gldani", "Didi Digomi"},
		Variants:  "including fusion and regional Chinese variants",
	},
}

// Builder derives a RequestSpec from SearchCriteria. It is a pure
// function over its inputs: no I/O, no hidden state.
type Builder struct {
	prompts config.SearchPrompts
}

// NewBuilder creates a Builder using the loaded prompt templates. A nil
// Prompts is tolerated; built-in fallbacks apply.
func NewBuilder(prompts *config.Prompts) *Builder {
	b := &Builder{}
	if prompts != nil {
		b.prompts = prompts.Search
	}
	return b
}

// Build derives the finalized request specification for the given
// criteria. It is total: missing or invalid fields are clamped, never
// rejected.
func (b *Builder) Build(criteria models.SearchCriteria) RequestSpec {
	subject := b.subject(criteria)

	var scope string
	var hint *GeoHint
	if criteria.Location.IsLive {
		scope = render(b.prompts.Scope.Radius, map[string]interface{}{
			"Subject":  subject,
			"RadiusKM": RadiusKM,
			"Lat":      criteria.Location.Latitude,
			"Lng":      criteria.Location.Longitude,
		}, fmt.Sprintf("Find %s within %d km of latitude %v, longitude %v.",
			subject, RadiusKM, criteria.Location.Latitude, criteria.Location.Longitude))
		hint = &GeoHint{
			Latitude:  criteria.Location.Latitude,
			Longitude: criteria.Location.Longitude,
		}
	} else {
		city := criteria.City
		if !city.Valid() {
			city = models.CityTbilisi
		}
		scope = render(b.prompts.Scope.City, map[string]interface{}{
			"Subject": subject,
			"City":    city.DisplayName(),
		}, fmt.Sprintf("Find %s in %s, Georgia.", subject, city.DisplayName()))
	}

	contract := render(b.prompts.Contract, map[string]interface{}{
		"Count":     ResultCount,
		"MinRating": fmt.Sprintf("%.1f", MinRating),
	}, fmt.Sprintf("Return exactly %d distinct restaurants rated at least %.1f as a single JSON array with no surrounding prose.",
		ResultCount, MinRating))

	system := strings.TrimSpace(b.prompts.System)
	if system == "" {
		system = defaultSystem
	}

	return RequestSpec{
		System:  system,
		Prompt:  scope + "\n\n" + contract,
		GeoHint: hint,
	}
}

// subject derives the natural-language query subject. Priority: trimmed
// free text, then the trending template, then table-driven category
// broadening, then "<category> restaurants".
func (b *Builder) subject(criteria models.SearchCriteria) string {
	if freeText := strings.TrimSpace(criteria.FreeText); freeText != "" {
		return freeText
	}

	category := strings.TrimSpace(criteria.Category)
	if category == "" || category == "Trending" {
		if t := strings.TrimSpace(b.prompts.Trending); t != "" {
			return t
		}
		return defaultTrending
	}

	if exp, ok := categoryExpansions[category]; ok {
		return fmt.Sprintf("%s restaurants, %s, also covering the %s districts",
			category, exp.Variants, strings.Join(exp.Districts, ", "))
	}

	return category + " restaurants"
}

// render interpolates a prompt template, falling back to the given plain
// text when the template is empty or does not render. Keeps Build total.
func render(tmpl string, data map[string]interface{}, fallback string) string {
	if strings.TrimSpace(tmpl) == "" {
		return fallback
	}
	out, err := config.RenderPrompt(tmpl, data)
	if err != nil {
		return fallback
	}
	return out
}
