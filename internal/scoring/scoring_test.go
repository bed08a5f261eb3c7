package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestFeatures_Layout(t *testing.T) {
	c := &domain.Candidate{
		Channel:       domain.ChannelEarlyLaunch,
		AgeMinutes:    ptr(12),
		LiquidityUSD:  ptr(10000),
		Volume24hUSD:  ptr(48000),
		PriceChange5m: ptr(0.05),
		Holders:       40,
		Txns5m:        10,
		Sells5m:       4,
		HasSocials:    true,
	}

	f := Features(c, 70)
	require.Len(t, f, len(FeatureNames))

	assert.Equal(t, 12.0, f[0])
	assert.Greater(t, f[1], 0.0)
	assert.Equal(t, 0.0, f[4], "unknown market cap")
	assert.InDelta(t, 0.4, f[7], 1e-9)
	assert.InDelta(t, 5, f[8], 1e-9, "fraction normalized to percent")
	assert.Equal(t, 1.0, f[11])
	assert.Equal(t, 1.0, f[13])
	assert.Equal(t, 70.0, f[14])
}

func TestFeatures_Empty(t *testing.T) {
	f := Features(&domain.Candidate{}, 0)
	for i, v := range f {
		assert.Zerof(t, v, "feature %s", FeatureNames[i])
	}
}

func TestHTTPScorer(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    float64
		wantErr bool
	}{
		{"probability", `{"probability":0.73}`, http.StatusOK, 0.73, false},
		{"clamped", `{"probability":1.4}`, http.StatusOK, 1, false},
		{"missing", `{"score":0.5}`, http.StatusOK, 0, true},
		{"string value", `{"probability":"0.5"}`, http.StatusOK, 0, true},
		{"server error", `oops`, http.StatusInternalServerError, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req scoreRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, []float64{1, 2}, req.Features)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := NewHTTPScorer(server.URL, time.Second)
			got, err := s.ScoreProbability(context.Background(), []float64{1, 2})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestStaticScorer(t *testing.T) {
	p, err := StaticScorer{Probability: 0.6}.ScoreProbability(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.6, p)

	p, _ = StaticScorer{Probability: -1}.ScoreProbability(context.Background(), nil)
	assert.Equal(t, 0.0, p)
}
