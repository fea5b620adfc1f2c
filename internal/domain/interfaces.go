package domain

import (
	"context"
	"errors"
)

// ErrUninitialized is returned by read paths before the first successful
// cycle has published a snapshot. The API layer maps it to 404/503, never
// to a 500.
var ErrUninitialized = errors.New("no analysis snapshot published yet")

// MarketDataSource is the fetch contract over the spot exchange.
type MarketDataSource interface {
	GetTickers(ctx context.Context) (map[string]MarketTick, error)
	GetOrderbook(ctx context.Context, symbol string, depth int) (*OrderbookSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) (*CandleSeries, error)

	// OnTickerUpdate registers a callback for streamed last-price updates.
	OnTickerUpdate(callback func(symbol string, price float64))
	Subscribe(symbols []string) error
}

// TrendingSource yields the current universe of trending symbols.
type TrendingSource interface {
	TrendingSymbols(ctx context.Context) ([]string, error)
}

// CoinMetricsSource provides per-coin community/developer proxy metrics
// and the symbol -> sector mapping.
type CoinMetricsSource interface {
	CoinMetrics(ctx context.Context, symbol string) (*CoinMetrics, error)
	SectorLookup(ctx context.Context) (map[string]string, error)
}

type FearGreedSource interface {
	Index(ctx context.Context) (*FearGreed, error)
}

// MentionsSource counts recent social mentions per symbol.
type MentionsSource interface {
	Mentions(ctx context.Context, symbols []string) (map[string]int, error)
}

// NewsSource classifies recent headline sentiment per symbol.
type NewsSource interface {
	NewsSentiment(ctx context.Context, symbol string) (NewsSentiment, error)
}

// InflowSource reports whether large exchange inflows were observed
// recently, a market-wide risk flag.
type InflowSource interface {
	BTCInflowSpike(ctx context.Context) (bool, error)
}

// SocialMetricsSource reports per-symbol social-activity spikes.
type SocialMetricsSource interface {
	SocialSpikes(ctx context.Context, symbol string) (SocialSpikes, error)
}

// MetricsCache is the storage contract for the coin metrics cache:
// the symbol -> slug map and the per-coin detail records, both with TTLs.
// Cache state is process-scoped operational data, not analysis state.
type MetricsCache interface {
	SlugFor(ctx context.Context, symbol string) (string, bool, error)
	ReplaceSlugs(ctx context.Context, slugs map[string]string) error
	SlugsUpdatedAt(ctx context.Context) (int64, error)

	CachedMetrics(ctx context.Context, slug string, maxAgeSec int64) (*CoinMetrics, bool, error)
	SaveMetrics(ctx context.Context, slug string, m *CoinMetrics) error
}
