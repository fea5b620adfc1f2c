package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// santimentSlugs maps the major symbols onto Santiment asset slugs. The
// asset endpoint is slug-addressed; symbols outside this map are skipped.
var santimentSlugs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binance-coin",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"SOL":   "solana",
	"AVAX":  "avalanche",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"MATIC": "polygon",
	"LTC":   "litecoin",
}

const (
	// A spike is a jump between the two latest datapoints: social dominance
	// up more than half a percentage point, or a surge of 100+ active
	// wallets.
	dominanceSpikeDelta = 0.5
	addressSpikeDelta   = 100
)

// SantimentClient flags per-coin social-activity spikes from the Santiment
// social volume feed. Without an API key the source is disabled and always
// reports no spikes.
type SantimentClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewSantimentClient(endpoint, apiKey string) *SantimentClient {
	return &SantimentClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SantimentClient) SocialSpikes(ctx context.Context, symbol string) (domain.SocialSpikes, error) {
	var spikes domain.SocialSpikes
	if s.apiKey == "" {
		return spikes, nil
	}
	slug, ok := santimentSlugs[strings.ToUpper(symbol)]
	if !ok {
		return spikes, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/"+slug+"/social_volume", nil)
	if err != nil {
		return spikes, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return spikes, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return spikes, err
	}
	if resp.StatusCode >= 400 {
		return spikes, fmt.Errorf("santiment http %d", resp.StatusCode)
	}

	var result struct {
		SocialDominance []struct {
			Dominance float64 `json:"dominance"`
		} `json:"socialDominance"`
		ActiveAddresses []struct {
			ActiveAddresses float64 `json:"activeAddresses"`
		} `json:"activeAddresses"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return spikes, err
	}

	if n := len(result.SocialDominance); n >= 2 {
		delta := result.SocialDominance[n-1].Dominance - result.SocialDominance[n-2].Dominance
		spikes.DominanceSpike = delta > dominanceSpikeDelta
	}
	if n := len(result.ActiveAddresses); n >= 2 {
		delta := result.ActiveAddresses[n-1].ActiveAddresses - result.ActiveAddresses[n-2].ActiveAddresses
		spikes.AddressSpike = delta > addressSpikeDelta
	}
	return spikes, nil
}
