package ai

import (
	"context"
	"time"

	"github.com/forkcast/forkcast-api/internal/logger"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/query"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultUpstreamTimeout = 30 * time.Second

// geminiTemperature is kept low; the reply must stay close to the
// requested JSON contract.
const geminiTemperature = float32(0.3)

// GeminiProvider implements RecommendationProvider using Gemini with the
// Google Maps grounding tool.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a GeminiProvider with the given API key and
// model name. The timeout bounds each generation call; zero selects the
// default of 30s.
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// FetchRecommendations performs a single generation call and normalizes
// the reply. When the request carries a geospatial hint, the hint's
// coordinates are passed to the Maps retrieval config so grounding is
// centred on the caller's live position.
func (p *GeminiProvider) FetchRecommendations(ctx context.Context, spec query.RequestSpec) ([]models.Restaurant, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(geminiTemperature),
		SystemInstruction: genai.NewContentFromText(spec.System, genai.RoleUser),
		Tools: []*genai.Tool{
			{GoogleMaps: &genai.GoogleMaps{}},
		},
	}
	if spec.GeoHint != nil {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(spec.GeoHint.Latitude),
					Longitude: genai.Ptr(spec.GeoHint.Longitude),
				},
			},
		}
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(callCtx, p.model, genai.Text(spec.Prompt), cfg)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	text := extractText(resp)
	logger.Get().Debug("gemini reply received",
		zap.Int("reply_length", len(text)),
		zap.Duration("latency", time.Since(start)),
		zap.Bool("grounded_on_position", spec.GeoHint != nil),
	)

	return Normalize(text)
}

// extractText concatenates the text parts of the first candidate that has
// any. An absent or empty candidate yields "", which normalizes to an
// empty result.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var text string
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		if text != "" {
			return text
		}
	}
	return ""
}
