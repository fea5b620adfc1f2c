package usecase_test

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/indicator"
	"github.com/dmarkov/spot_sentiment/internal/metrics"
	"github.com/dmarkov/spot_sentiment/internal/usecase"
)

var errFetch = errors.New("fetch failed")

type MockMarketSource struct {
	Tickers      map[string]domain.MarketTick
	TickersErr   error
	Orderbooks   map[string]*domain.OrderbookSnapshot
	OrderbookErr map[string]error
	Candles      map[string]*domain.CandleSeries // keyed pair|interval
	CandlesErr   map[string]error

	TickerCallback func(symbol string, price float64)
	Subscribed     []string
}

func (m *MockMarketSource) GetTickers(ctx context.Context) (map[string]domain.MarketTick, error) {
	if m.TickersErr != nil {
		return nil, m.TickersErr
	}
	return m.Tickers, nil
}

func (m *MockMarketSource) GetOrderbook(ctx context.Context, symbol string, depth int) (*domain.OrderbookSnapshot, error) {
	if err := m.OrderbookErr[symbol]; err != nil {
		return nil, err
	}
	book, ok := m.Orderbooks[symbol]
	if !ok {
		return nil, errFetch
	}
	return book, nil
}

func (m *MockMarketSource) GetCandles(ctx context.Context, symbol, interval string, limit int) (*domain.CandleSeries, error) {
	key := symbol + "|" + interval
	if err := m.CandlesErr[key]; err != nil {
		return nil, err
	}
	series, ok := m.Candles[key]
	if !ok {
		return nil, errFetch
	}
	return series, nil
}

func (m *MockMarketSource) OnTickerUpdate(callback func(symbol string, price float64)) {
	m.TickerCallback = callback
}

func (m *MockMarketSource) Subscribe(symbols []string) error {
	m.Subscribed = append(m.Subscribed, symbols...)
	return nil
}

type MockTrendingSource struct {
	Symbols []string
	Err     error
}

func (m *MockTrendingSource) TrendingSymbols(ctx context.Context) ([]string, error) {
	return m.Symbols, m.Err
}

type MockMetricsSource struct {
	Metrics map[string]*domain.CoinMetrics
	Sectors map[string]string
	Err     error
}

func (m *MockMetricsSource) CoinMetrics(ctx context.Context, symbol string) (*domain.CoinMetrics, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Metrics[symbol], nil
}

func (m *MockMetricsSource) SectorLookup(ctx context.Context) (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Sectors, nil
}

type MockFearGreedSource struct {
	Value *domain.FearGreed
	Err   error
}

func (m *MockFearGreedSource) Index(ctx context.Context) (*domain.FearGreed, error) {
	return m.Value, m.Err
}

type MockMentionsSource struct {
	Counts map[string]int
	Err    error
}

func (m *MockMentionsSource) Mentions(ctx context.Context, symbols []string) (map[string]int, error) {
	return m.Counts, m.Err
}

type MockSocialSource struct {
	Spikes map[string]domain.SocialSpikes
	Err    error
}

func (m *MockSocialSource) SocialSpikes(ctx context.Context, symbol string) (domain.SocialSpikes, error) {
	if m.Err != nil {
		return domain.SocialSpikes{}, m.Err
	}
	return m.Spikes[symbol], nil
}

func newTestAnalyzer() *usecase.Analyzer {
	return usecase.NewAnalyzer(
		indicator.DefaultZoneThresholds(),
		indicator.DefaultBreakoutWeights(),
		70, 5, 50000)
}

func newTestScheduler(market *MockMarketSource, sources usecase.SchedulerSources, store *usecase.SnapshotStore) *usecase.UpdateScheduler {
	sources.Market = market
	cfg := usecase.SchedulerConfig{
		BasicInterval:  time.Minute,
		FullInterval:   time.Hour,
		SymbolTimeout:  time.Second,
		RetryBackoff:   time.Millisecond,
		MaxRetries:     1,
		Timeframes:     map[string]string{"15m": "15", "1h": "60", "4h": "240"},
		CandleLimit:    20,
		OrderbookDepth: 5,
	}
	met := metrics.New(prometheus.NewRegistry())
	return usecase.NewUpdateScheduler(sources, newTestAnalyzer(), store, cfg, met, zap.NewNop())
}

// risingSeries returns candles that trend steadily upwards with growing
// volume.
func risingSeries(symbol, interval string, n int) *domain.CandleSeries {
	s := &domain.CandleSeries{Symbol: symbol, Interval: interval}
	for i := 0; i < n; i++ {
		s.Closes = append(s.Closes, 100+float64(i))
		s.Volumes = append(s.Volumes, 1000+float64(i)*100)
	}
	return s
}

func deepBook(symbol string, mid float64) *domain.OrderbookSnapshot {
	book := &domain.OrderbookSnapshot{Symbol: symbol}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, domain.OrderbookLevel{Price: mid - float64(i+1), Size: 500})
		book.Asks = append(book.Asks, domain.OrderbookLevel{Price: mid + float64(i+1), Size: 500})
	}
	return book
}
