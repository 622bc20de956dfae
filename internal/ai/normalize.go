package ai

import (
	"encoding/json"
	"strings"

	"github.com/forkcast/forkcast-api/internal/models"
)

// Normalize recovers a list of restaurants from a raw upstream reply. The
// reply is supposed to be a bare JSON array but may arrive wrapped in code
// fences, prefixed or suffixed with prose, or not at all.
//
// An empty reply normalizes to an empty list, not an error. A reply that
// cannot be coerced into a parseable array fails with
// *MalformedResponseError.
func Normalize(raw string) ([]models.Restaurant, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return []models.Restaurant{}, nil
	}

	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	// Slice to the outermost bracket span when both brackets are present;
	// this discards any commentary the model wrapped around the array. If
	// either bracket is missing, parse the text as-is.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end != -1 && start < end {
		text = text[start : end+1]
	}

	var parsed []models.Restaurant
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	// Elements missing the name/rating core are dropped at this boundary
	// rather than propagated. Absent optional fields never cause rejection.
	kept := make([]models.Restaurant, 0, len(parsed))
	for _, r := range parsed {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		if r.Rating < 0 || r.Rating > 5 {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}
