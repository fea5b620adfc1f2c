package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/metrics"
)

// cycle states, logged on every transition
const (
	stateIdle       = "idle"
	stateFetching   = "fetching"
	stateComputing  = "computing"
	statePublishing = "publishing"
)

const quotePair = "USDT"

// SchedulerSources groups the external data sources the cycles pull from.
// Every source except the market data source is optional: a nil source
// degrades its fields instead of failing the cycle.
type SchedulerSources struct {
	Market    domain.MarketDataSource
	Trending  domain.TrendingSource
	Metrics   domain.CoinMetricsSource
	FearGreed domain.FearGreedSource
	Mentions  domain.MentionsSource
	News      domain.NewsSource
	Inflow    domain.InflowSource
	Social    domain.SocialMetricsSource
}

type SchedulerConfig struct {
	BasicInterval time.Duration
	FullInterval  time.Duration
	SymbolTimeout time.Duration
	RetryBackoff  time.Duration
	MaxRetries    int

	ExtraSymbols   []string
	Timeframes     map[string]string // label -> exchange interval
	CandleLimit    int
	OrderbookDepth int
}

// UpdateScheduler drives the two refresh cycles over the tracked universe.
// The basic cycle refreshes the cheap fields (price, volume, spread) often;
// the full cycle recomputes everything, sentiment included, rarely. The
// cycles communicate only through the snapshot store.
type UpdateScheduler struct {
	sources  SchedulerSources
	analyzer *Analyzer
	store    *SnapshotStore
	cfg      SchedulerConfig
	log      *zap.Logger
	met      *metrics.Metrics

	basicRunning atomic.Bool
	fullRunning  atomic.Bool

	liveMu     sync.RWMutex
	livePrices map[string]float64

	timeNow func() time.Time
}

func NewUpdateScheduler(sources SchedulerSources, analyzer *Analyzer, store *SnapshotStore, cfg SchedulerConfig, met *metrics.Metrics, log *zap.Logger) *UpdateScheduler {
	u := &UpdateScheduler{
		sources:    sources,
		analyzer:   analyzer,
		store:      store,
		cfg:        cfg,
		log:        log,
		met:        met,
		livePrices: make(map[string]float64),
		timeNow:    time.Now,
	}
	if sources.Market != nil {
		sources.Market.OnTickerUpdate(u.recordLivePrice)
	}
	return u
}

func (u *UpdateScheduler) recordLivePrice(symbol string, price float64) {
	u.liveMu.Lock()
	u.livePrices[symbol] = price
	u.liveMu.Unlock()
}

// Run starts both cycle loops. Each loop fires immediately, then on its
// own ticker; failed runs are retried with exponential backoff. Returns
// once the loops are started.
func (u *UpdateScheduler) Run(ctx context.Context) {
	go u.loop(ctx, "full", u.cfg.FullInterval, u.RunFullCycle)
	go u.loop(ctx, "basic", u.cfg.BasicInterval, u.RunBasicCycle)
}

func (u *UpdateScheduler) loop(ctx context.Context, cycle string, interval time.Duration, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	u.runWithRetry(ctx, cycle, run)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.runWithRetry(ctx, cycle, run)
		}
	}
}

func (u *UpdateScheduler) runWithRetry(ctx context.Context, cycle string, run func(context.Context) error) {
	backoff := u.cfg.RetryBackoff
	for attempt := 0; attempt <= u.cfg.MaxRetries; attempt++ {
		err := run(ctx)
		if err == nil {
			return
		}
		u.log.Warn("cycle failed, snapshot retained",
			zap.String("cycle", cycle),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		u.met.CycleRuns.WithLabelValues(cycle, "failure").Inc()

		if attempt == u.cfg.MaxRetries {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (u *UpdateScheduler) setState(cycle, state string) {
	u.log.Debug("cycle state", zap.String("cycle", cycle), zap.String("state", state))
}

// RunFullCycle recomputes the entire analysis set: market data, sentiment,
// multi-timeframe indicators, for the whole tracked universe. A failure for
// one symbol never aborts the cycle for the others; a cycle that could not
// process any symbol returns an error and leaves the prior snapshot in
// place.
func (u *UpdateScheduler) RunFullCycle(ctx context.Context) error {
	if !u.fullRunning.CompareAndSwap(false, true) {
		return nil // previous full cycle still in flight
	}
	defer u.fullRunning.Store(false)
	defer u.setState("full", stateIdle)

	started := u.timeNow()
	timer := u.met.CycleDuration.WithLabelValues("full")

	u.setState("full", stateFetching)

	tickers, err := u.sources.Market.GetTickers(ctx)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("market").Inc()
		return fmt.Errorf("full cycle: tickers unavailable: %w", err)
	}

	universe := u.universe(ctx, tickers)
	if len(universe) == 0 {
		return fmt.Errorf("full cycle: no tracked symbols resolvable against the tickers")
	}

	fearGreed := u.fetchFearGreed(ctx)
	sectors := u.fetchSectors(ctx)
	mentions := u.fetchMentions(ctx, universe)
	inflowSpike := u.fetchInflowSpike(ctx)

	u.setState("full", stateComputing)

	coins := make(map[string]*domain.CoinAnalysis, len(universe))
	now := u.timeNow()
	for _, base := range universe {
		pair := base + quotePair
		tick, ok := tickers[pair]
		if !ok {
			continue
		}

		inputs, err := u.gatherCoinInputs(ctx, base, tick, fearGreed, mentions, inflowSpike, sectors)
		if err != nil {
			// symbol abandoned (timeout or cancellation), cycle continues
			u.met.SymbolsSkipped.WithLabelValues("full").Inc()
			u.log.Warn("symbol abandoned", zap.String("symbol", base), zap.Error(err))
			continue
		}
		coins[base] = u.analyzer.Analyze(inputs, now)
	}

	if len(coins) == 0 {
		return fmt.Errorf("full cycle: no symbols could be processed")
	}

	u.setState("full", statePublishing)

	snap := &domain.Snapshot{
		Coins:           coins,
		Tickers:         tickers,
		FearGreed:       fearGreed,
		LastBasicUpdate: &now,
		LastFullUpdate:  &now,
		FullStartedAt:   started,
	}
	if !u.store.PublishFull(snap) {
		u.met.PublishRejected.Inc()
		u.log.Warn("full publish rejected by ordering guard", zap.Time("started", started))
	} else {
		u.met.SnapshotCoins.Set(float64(len(coins)))
	}

	u.subscribeUniverse(universe)

	u.met.CycleRuns.WithLabelValues("full", "success").Inc()
	timer.Observe(u.timeNow().Sub(started).Seconds())
	u.log.Info("full cycle published",
		zap.Int("coins", len(coins)),
		zap.Int("universe", len(universe)),
		zap.Duration("took", u.timeNow().Sub(started)))
	return nil
}

// RunBasicCycle refreshes the cheap fields only: last price, volume and
// spread for every coin already in the snapshot. Records are replaced
// wholesale, never edited in place.
func (u *UpdateScheduler) RunBasicCycle(ctx context.Context) error {
	if !u.basicRunning.CompareAndSwap(false, true) {
		return nil
	}
	defer u.basicRunning.Store(false)
	defer u.setState("basic", stateIdle)

	started := u.timeNow()
	timer := u.met.CycleDuration.WithLabelValues("basic")

	u.setState("basic", stateFetching)

	tickers, err := u.sources.Market.GetTickers(ctx)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("market").Inc()
		tickers = u.tickersFromStream()
		if len(tickers) == 0 {
			return fmt.Errorf("basic cycle: tickers unavailable: %w", err)
		}
		u.log.Warn("basic cycle using streamed prices, REST tickers unavailable", zap.Error(err))
	}

	snap, _ := u.store.Read()
	books := u.fetchOrderbooks(ctx, snap)

	u.setState("basic", stateComputing)
	now := u.timeNow()

	u.setState("basic", statePublishing)
	u.store.PublishBasic(func(next *domain.Snapshot) {
		next.Tickers = tickers
		for base, prior := range next.Coins {
			tick, ok := tickers[base+quotePair]
			if !ok {
				continue // keep the prior record untouched
			}
			tick.Symbol = base
			next.Coins[base] = u.analyzer.RefreshBasic(prior, tick, books[base], now)
		}
		next.LastBasicUpdate = &now
	})

	u.met.CycleRuns.WithLabelValues("basic", "success").Inc()
	timer.Observe(u.timeNow().Sub(started).Seconds())
	return nil
}

// universe resolves the tracked symbol set: trending coins plus the
// configured extras, kept only when a matching USDT pair trades on the
// exchange.
func (u *UpdateScheduler) universe(ctx context.Context, tickers map[string]domain.MarketTick) []string {
	var bases []string
	seen := make(map[string]bool)

	if u.sources.Trending != nil {
		trending, err := u.sources.Trending.TrendingSymbols(ctx)
		if err != nil {
			u.met.FetchErrors.WithLabelValues("trending").Inc()
			u.log.Warn("trending universe unavailable", zap.Error(err))
		}
		bases = append(bases, trending...)
	}
	bases = append(bases, u.cfg.ExtraSymbols...)

	var out []string
	for _, b := range bases {
		base := strings.ToUpper(strings.TrimSpace(b))
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		if _, ok := tickers[base+quotePair]; ok {
			out = append(out, base)
		}
	}
	return out
}

// gatherCoinInputs fetches the per-symbol inputs with a per-symbol
// deadline. Sub-fetch failures degrade the matching fields; only running
// out of the symbol budget abandons the symbol.
func (u *UpdateScheduler) gatherCoinInputs(ctx context.Context, base string, tick domain.MarketTick, fearGreed domain.FearGreed, mentions map[string]int, inflowSpike bool, sectors map[string]string) (CoinInputs, error) {
	symCtx, cancel := context.WithTimeout(ctx, u.cfg.SymbolTimeout)
	defer cancel()

	pair := base + quotePair
	tick.Symbol = base

	inputs := CoinInputs{
		Tick:    tick,
		Candles: make(map[string]*domain.CandleSeries, len(u.cfg.Timeframes)),
		Sentiment: domain.SentimentInputs{
			FearGreed:      fearGreed,
			News:           domain.NewsNeutral,
			BTCInflowSpike: inflowSpike,
		},
		Sector: sectors[base],
	}
	if inputs.Sector == "" {
		inputs.Sector = "Unknown"
	}
	if mentions != nil {
		if count, ok := mentions[base]; ok {
			inputs.Sentiment.RedditMentions = &count
		}
	}

	book, err := u.sources.Market.GetOrderbook(symCtx, pair, u.cfg.OrderbookDepth)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("orderbook").Inc()
		if symCtx.Err() != nil {
			return inputs, symCtx.Err()
		}
	} else {
		inputs.Orderbook = book
	}

	for label, interval := range u.cfg.Timeframes {
		series, err := u.sources.Market.GetCandles(symCtx, pair, interval, u.cfg.CandleLimit)
		if err != nil {
			u.met.FetchErrors.WithLabelValues("candles").Inc()
			if symCtx.Err() != nil {
				return inputs, symCtx.Err()
			}
			continue
		}
		inputs.Candles[label] = series
	}

	if u.sources.Metrics != nil {
		m, err := u.sources.Metrics.CoinMetrics(symCtx, base)
		if err != nil {
			u.met.FetchErrors.WithLabelValues("coingecko").Inc()
		} else if m != nil {
			inputs.Sentiment.Metrics = *m
		}
	}
	if u.sources.News != nil {
		sentiment, err := u.sources.News.NewsSentiment(symCtx, base)
		if err != nil {
			u.met.FetchErrors.WithLabelValues("news").Inc()
		} else if sentiment != "" {
			inputs.Sentiment.News = sentiment
		}
	}
	if u.sources.Social != nil {
		spikes, err := u.sources.Social.SocialSpikes(symCtx, base)
		if err != nil {
			u.met.FetchErrors.WithLabelValues("santiment").Inc()
		} else {
			inputs.Sentiment.Social = spikes
		}
	}

	if err := symCtx.Err(); err != nil {
		return inputs, err
	}
	return inputs, nil
}

func (u *UpdateScheduler) fetchFearGreed(ctx context.Context) domain.FearGreed {
	if u.sources.FearGreed == nil {
		return domain.FearGreed{Score: 50, Classification: "Neutral"}
	}
	fg, err := u.sources.FearGreed.Index(ctx)
	if err != nil || fg == nil {
		u.met.FetchErrors.WithLabelValues("fear_greed").Inc()
		u.log.Warn("fear & greed unavailable, defaulting to neutral", zap.Error(err))
		return domain.FearGreed{Score: 50, Classification: "Neutral"}
	}
	return *fg
}

func (u *UpdateScheduler) fetchSectors(ctx context.Context) map[string]string {
	if u.sources.Metrics == nil {
		return nil
	}
	sectors, err := u.sources.Metrics.SectorLookup(ctx)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("sectors").Inc()
		u.log.Warn("sector lookup unavailable", zap.Error(err))
		return nil
	}
	return sectors
}

func (u *UpdateScheduler) fetchMentions(ctx context.Context, universe []string) map[string]int {
	if u.sources.Mentions == nil {
		return nil
	}
	mentions, err := u.sources.Mentions.Mentions(ctx, universe)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("reddit").Inc()
		u.log.Warn("reddit mentions unavailable", zap.Error(err))
		return nil
	}
	return mentions
}

func (u *UpdateScheduler) fetchInflowSpike(ctx context.Context) bool {
	if u.sources.Inflow == nil {
		return false
	}
	spike, err := u.sources.Inflow.BTCInflowSpike(ctx)
	if err != nil {
		u.met.FetchErrors.WithLabelValues("whale_alert").Inc()
		return false
	}
	return spike
}

// fetchOrderbooks refreshes the books for the coins already tracked by the
// snapshot. Failures degrade to a missing book for that symbol.
func (u *UpdateScheduler) fetchOrderbooks(ctx context.Context, snap *domain.Snapshot) map[string]*domain.OrderbookSnapshot {
	books := make(map[string]*domain.OrderbookSnapshot)
	if snap == nil {
		return books
	}
	for base := range snap.Coins {
		symCtx, cancel := context.WithTimeout(ctx, u.cfg.SymbolTimeout)
		book, err := u.sources.Market.GetOrderbook(symCtx, base+quotePair, u.cfg.OrderbookDepth)
		cancel()
		if err != nil {
			u.met.FetchErrors.WithLabelValues("orderbook").Inc()
			continue
		}
		books[base] = book
	}
	return books
}

// tickersFromStream rebuilds a ticker table from the live websocket prices
// on top of the last published one. Used when REST tickers are down.
func (u *UpdateScheduler) tickersFromStream() map[string]domain.MarketTick {
	snap, ok := u.store.Read()
	if !ok {
		return nil
	}

	u.liveMu.RLock()
	defer u.liveMu.RUnlock()
	if len(u.livePrices) == 0 {
		return nil
	}

	tickers := make(map[string]domain.MarketTick, len(snap.Tickers))
	for pair, tick := range snap.Tickers {
		if price, ok := u.livePrices[pair]; ok {
			tick.LastPrice = price
		}
		tickers[pair] = tick
	}
	return tickers
}

func (u *UpdateScheduler) subscribeUniverse(universe []string) {
	pairs := make([]string, len(universe))
	for i, base := range universe {
		pairs[i] = base + quotePair
	}
	if err := u.sources.Market.Subscribe(pairs); err != nil {
		u.log.Warn("ticker stream subscription failed", zap.Error(err))
	}
}
