package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// CoinGeckoClient implements domain.TrendingSource and
// domain.CoinMetricsSource against the CoinGecko public API. Every
// per-coin metrics call goes through a shared rate limiter and the
// slug/detail cache, the free tier tolerates very few calls per minute.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cache   domain.MetricsCache
	logger  *zap.Logger

	slugListTTL   time.Duration
	coinDetailTTL time.Duration
}

func NewCoinGeckoClient(baseURL string, ratePerSec float64, cache domain.MetricsCache, slugListTTL, coinDetailTTL time.Duration, logger *zap.Logger) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "coingecko",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		cache:         cache,
		logger:        logger,
		slugListTTL:   slugListTTL,
		coinDetailTTL: coinDetailTTL,
	}
}

func (c *CoinGeckoClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		httpResp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		if httpResp.StatusCode >= 400 {
			return nil, fmt.Errorf("coingecko http %d", httpResp.StatusCode)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.([]byte), nil
}

func (c *CoinGeckoClient) TrendingSymbols(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/search/trending")
	if err != nil {
		return nil, err
	}

	var result struct {
		Coins []struct {
			Item struct {
				Symbol string `json:"symbol"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(result.Coins))
	for _, coin := range result.Coins {
		if coin.Item.Symbol != "" {
			symbols = append(symbols, strings.ToUpper(coin.Item.Symbol))
		}
	}
	return symbols, nil
}

// SectorLookup maps base symbol to category for the top market-cap coins.
// Coins without a category come back as "Unknown".
func (c *CoinGeckoClient) SectorLookup(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, "/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=250&page=1&sparkline=false")
	if err != nil {
		return nil, err
	}

	var result []struct {
		Symbol   string `json:"symbol"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	lookup := make(map[string]string, len(result))
	for _, item := range result {
		category := item.Category
		if category == "" {
			category = "Unknown"
		}
		lookup[strings.ToUpper(item.Symbol)] = category
	}
	return lookup, nil
}

// CoinMetrics resolves the symbol to its CoinGecko slug and returns the
// community/developer proxy scores, served from the cache when fresh.
func (c *CoinGeckoClient) CoinMetrics(ctx context.Context, symbol string) (*domain.CoinMetrics, error) {
	if err := c.ensureSlugList(ctx); err != nil {
		return nil, err
	}

	slug, ok, err := c.cache.SlugFor(ctx, strings.ToLower(symbol))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no coingecko slug for %s", symbol)
	}

	if cached, hit, err := c.cache.CachedMetrics(ctx, slug, int64(c.coinDetailTTL.Seconds())); err == nil && hit {
		c.logger.Debug("coin metrics cache hit", zap.String("symbol", symbol), zap.String("slug", slug))
		return cached, nil
	}

	path := "/coins/" + slug + "?localization=false&tickers=false&market_data=false&community_data=true&developer_data=true&sparkline=false"
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var detail struct {
		SentimentVotesUpPct *float64 `json:"sentiment_votes_up_percentage"`
		CommunityScore      *float64 `json:"community_score"`
		DeveloperScore      *float64 `json:"developer_score"`
		PublicInterestScore *float64 `json:"public_interest_score"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, err
	}

	metrics := &domain.CoinMetrics{
		SentimentVotesUpPct: detail.SentimentVotesUpPct,
		CommunityScore:      detail.CommunityScore,
		DeveloperScore:      detail.DeveloperScore,
		PublicInterestScore: detail.PublicInterestScore,
	}
	if err := c.cache.SaveMetrics(ctx, slug, metrics); err != nil {
		c.logger.Warn("failed to cache coin metrics", zap.String("slug", slug), zap.Error(err))
	}
	return metrics, nil
}

// ensureSlugList refreshes the symbol -> slug map when it is older than
// the slug list TTL. Ambiguous symbols keep the first listing, matching
// CoinGecko's own ordering.
func (c *CoinGeckoClient) ensureSlugList(ctx context.Context) error {
	updatedAt, err := c.cache.SlugsUpdatedAt(ctx)
	if err != nil {
		return err
	}
	if updatedAt > 0 && time.Since(time.Unix(updatedAt, 0)) < c.slugListTTL {
		return nil
	}

	body, err := c.get(ctx, "/coins/list?include_platform=false")
	if err != nil {
		// A stale map is still usable; only fail when we never had one.
		if updatedAt > 0 {
			c.logger.Warn("slug list refresh failed, keeping stale map", zap.Error(err))
			return nil
		}
		return err
	}

	var coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(body, &coins); err != nil {
		return err
	}

	slugs := make(map[string]string, len(coins))
	for _, coin := range coins {
		sym := strings.ToLower(coin.Symbol)
		if sym == "" || coin.ID == "" {
			continue
		}
		if _, exists := slugs[sym]; !exists {
			slugs[sym] = coin.ID
		}
	}
	c.logger.Info("refreshed coingecko slug list", zap.Int("entries", len(slugs)))
	return c.cache.ReplaceSlugs(ctx, slugs)
}
