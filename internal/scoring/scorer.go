package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNoProbability is returned when the model response lacks a probability.
var ErrNoProbability = errors.New("response has no probability")

// Config configures the scorer.
type Config struct {
	// Endpoint of the model server. Empty selects the static scorer.
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Static is the fixed probability returned when no endpoint is configured.
	Static float64 `mapstructure:"static"`
}

// DefaultConfig returns scorer defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 3 * time.Second,
		Static:  0.65,
	}
}

// HTTPScorer posts feature vectors to an external model server.
type HTTPScorer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPScorer creates a scorer for endpoint.
func NewHTTPScorer(endpoint string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Features []float64 `json:"features"`
}

// ScoreProbability returns the model's acquisition probability clamped to [0,1].
func (s *HTTPScorer) ScoreProbability(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(scoreRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	p := gjson.GetBytes(respBody, "probability")
	if !p.Exists() || p.Type != gjson.Number {
		return 0, ErrNoProbability
	}
	return clamp01(p.Float()), nil
}

// StaticScorer returns the same probability for every candidate.
type StaticScorer struct {
	Probability float64
}

// ScoreProbability returns the fixed probability.
func (s StaticScorer) ScoreProbability(context.Context, []float64) (float64, error) {
	return clamp01(s.Probability), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
