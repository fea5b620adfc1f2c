package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// WhaleAlertClient flags large stablecoin transfers onto exchanges as a
// market-wide risk signal. Without an API key the source is disabled and
// always reports no spike.
type WhaleAlertClient struct {
	endpoint    string
	apiKey      string
	minValueUSD float64
	client      *http.Client
}

func NewWhaleAlertClient(endpoint, apiKey string, minValueUSD float64) *WhaleAlertClient {
	return &WhaleAlertClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		minValueUSD: minValueUSD,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WhaleAlertClient) BTCInflowSpike(ctx context.Context) (bool, error) {
	if w.apiKey == "" {
		return false, nil
	}

	params := url.Values{}
	params.Set("api_key", w.apiKey)
	params.Set("min_value", strconv.FormatFloat(w.minValueUSD, 'f', 0, 64))
	params.Set("currency", "usdt")
	params.Set("limit", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("whale alert http %d", resp.StatusCode)
	}

	var result struct {
		Transactions []struct {
			AmountUSD float64 `json:"amount_usd"`
			To        struct {
				OwnerType string `json:"owner_type"`
			} `json:"to"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, err
	}

	// Spike when the total flowing onto exchanges exceeds the per-transfer
	// threshold several times over.
	var exchangeInflow float64
	for _, tx := range result.Transactions {
		if tx.To.OwnerType == "exchange" {
			exchangeInflow += tx.AmountUSD
		}
	}
	return exchangeInflow >= 3*w.minValueUSD, nil
}
