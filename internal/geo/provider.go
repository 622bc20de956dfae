package geo

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the position could not be acquired: the
// capability is missing, permission was denied, or acquisition timed out.
var ErrUnavailable = errors.New("location unavailable")

// Position is a one-shot geolocation fix.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Options controls a single position request.
type Options struct {
	// HighAccuracy requests the most precise fix the provider can give.
	HighAccuracy bool
	// Timeout is the hard acquisition deadline.
	Timeout time.Duration
	// MaximumAge is the oldest acceptable cached fix; zero forbids caching.
	MaximumAge time.Duration
}

// DefaultOptions matches the acquisition policy used for GPS searches:
// high accuracy, 10s hard timeout, no cached fix.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   0,
	}
}

// LocationProvider acquires the caller's position. One-shot; there is no
// subscription or streaming. Implementations return an error wrapping
// ErrUnavailable when the position cannot be acquired.
type LocationProvider interface {
	RequestPosition(ctx context.Context, opts Options) (*Position, error)
}
