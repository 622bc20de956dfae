package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const ipLocateEndpoint = "http://ip-api.com/json/"

// IPLocateProvider implements LocationProvider by resolving the caller's
// approximate position from its public IP. It is the server-side stand-in
// for a device GPS fix; accuracy is city-level regardless of the
// HighAccuracy option.
type IPLocateProvider struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPLocateProvider creates a provider against the given endpoint. An
// empty endpoint selects the public ip-api.com service.
func NewIPLocateProvider(endpoint string) *IPLocateProvider {
	if endpoint == "" {
		endpoint = ipLocateEndpoint
	}
	return &IPLocateProvider{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type ipLocateResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// RequestPosition performs a single lookup bounded by opts.Timeout.
func (p *IPLocateProvider) RequestPosition(ctx context.Context, opts Options) (*Position, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read lookup response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lookup returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var loc ipLocateResponse
	if err := json.Unmarshal(body, &loc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse lookup response: %v", ErrUnavailable, err)
	}

	if loc.Status != "success" {
		return nil, fmt.Errorf("%w: lookup failed: %s", ErrUnavailable, loc.Message)
	}

	return &Position{Latitude: loc.Lat, Longitude: loc.Lon}, nil
}
