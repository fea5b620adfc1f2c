package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// FearGreedClient fetches the global Fear & Greed index from
// alternative.me.
type FearGreedClient struct {
	endpoint string
	client   *http.Client
}

func NewFearGreedClient(endpoint string) *FearGreedClient {
	return &FearGreedClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *FearGreedClient) Index(ctx context.Context) (*domain.FearGreed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fear & greed http %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			Value               string `json:"value"`
			ValueClassification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("fear & greed: empty response")
	}

	score, err := strconv.Atoi(result.Data[0].Value)
	if err != nil {
		return nil, fmt.Errorf("fear & greed: bad value %q", result.Data[0].Value)
	}
	return &domain.FearGreed{
		Score:          score,
		Classification: result.Data[0].ValueClassification,
	}, nil
}
