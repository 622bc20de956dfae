package handlers

import (
	"fmt"
	"strconv"
)

// maxHistoryLimit caps how many history rows a single request may ask for.
const maxHistoryLimit = 100

// parseLimitParam parses a positive list limit, capped at maxHistoryLimit.
func parseLimitParam(param string) (int, error) {
	parsed, err := strconv.Atoi(param)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("limit must be positive: %d", parsed)
	}
	if parsed > maxHistoryLimit {
		parsed = maxHistoryLimit
	}
	return parsed, nil
}
