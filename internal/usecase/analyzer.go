package usecase

import (
	"sort"
	"time"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/indicator"
)

// CoinInputs is everything the analyzer needs for one symbol. The analyzer
// itself performs no I/O; the scheduler gathers these from the source
// adapters and degrades any failed fetch to a nil/zero field.
type CoinInputs struct {
	Tick      domain.MarketTick
	Orderbook *domain.OrderbookSnapshot
	Candles   map[string]*domain.CandleSeries // keyed by timeframe label
	Sentiment domain.SentimentInputs
	Sector    string
}

// Analyzer turns one symbol's raw inputs into a CoinAnalysis. Pure
// transform: same inputs, same record.
type Analyzer struct {
	zones          indicator.ZoneThresholds
	weights        indicator.BreakoutWeights
	buyScore       int
	thinBookLevels int
	thinBookMinUSD float64
	rsiTimeframe   string
}

func NewAnalyzer(zones indicator.ZoneThresholds, weights indicator.BreakoutWeights, buyScore, thinBookLevels int, thinBookMinUSD float64) *Analyzer {
	return &Analyzer{
		zones:          zones,
		weights:        weights,
		buyScore:       buyScore,
		thinBookLevels: thinBookLevels,
		thinBookMinUSD: thinBookMinUSD,
		rsiTimeframe:   "1h",
	}
}

// zoneProfile pairs each volatility zone with its templated strategy text,
// time-to-TP estimate and example TP/SL distances.
type zoneProfile struct {
	strategy string
	timeToTP string
	tpPct    float64
	slPct    float64
}

var zoneProfiles = map[domain.VolatilityZone]zoneProfile{
	domain.ZoneVeryLow:  {"Micro Scalping Strategy", "1-2 hours", 1.0, 0.5},
	domain.ZoneLow:      {"Short-Term Tight Strategy", "2-6 hours", 2.0, 1.0},
	domain.ZoneMedium:   {"Balanced Normal Strategy", "6-12 hours", 4.0, 2.0},
	domain.ZoneHigh:     {"Flexible Swing Strategy", "12-24 hours", 7.0, 3.5},
	domain.ZoneVeryHigh: {"Big Swing Survival Strategy", "1-3 days", 12.0, 6.0},
	domain.ZoneUnknown:  {"Wait and Observe", "unknown", 0, 0},
}

// signalFacts are the derived facts the decision table evaluates.
type signalFacts struct {
	BreakoutScore    int
	Momentum         domain.MomentumHealth
	BullishConfirmed bool
	BearishConfirmed bool
	ThinBook         bool
}

// signalRule is one row of the classification table. Rows are evaluated in
// order and the first match wins, which keeps every branch independently
// testable and the evaluation order auditable.
type signalRule struct {
	Name   string
	Signal domain.Signal
	When   func(f signalFacts) bool
}

func (a *Analyzer) signalRules() []signalRule {
	return []signalRule{
		{
			Name:   "bearish_confirmation",
			Signal: domain.SignalSellAvoid,
			When: func(f signalFacts) bool {
				return f.BearishConfirmed &&
					(f.Momentum == domain.MomentumWeak || f.Momentum == domain.MomentumUnknown)
			},
		},
		{
			Name:   "thin_orderbook",
			Signal: domain.SignalCaution,
			When:   func(f signalFacts) bool { return f.ThinBook },
		},
		{
			Name:   "confirmed_breakout",
			Signal: domain.SignalBuy,
			When: func(f signalFacts) bool {
				return f.BreakoutScore >= a.buyScore && f.BullishConfirmed &&
					(f.Momentum == domain.MomentumStrong || f.Momentum == domain.MomentumOversoldHealthy)
			},
		},
		{
			Name:   "unconfirmed_breakout",
			Signal: domain.SignalCaution,
			When: func(f signalFacts) bool {
				return f.BreakoutScore >= a.buyScore && !f.BullishConfirmed
			},
		},
		{
			Name:   "weak_momentum_rally",
			Signal: domain.SignalCaution,
			When: func(f signalFacts) bool {
				return f.BullishConfirmed && f.Momentum == domain.MomentumWeak
			},
		},
	}
}

func (a *Analyzer) classify(f signalFacts) (domain.Signal, string) {
	for _, rule := range a.signalRules() {
		if rule.When(f) {
			return rule.Signal, rule.Name
		}
	}
	return domain.SignalNeutral, "default"
}

// Analyze produces one CoinAnalysis record. Missing inputs degrade the
// corresponding fields to nil; the record itself is always produced.
func (a *Analyzer) Analyze(in CoinInputs, now time.Time) *domain.CoinAnalysis {
	tick := in.Tick

	volatility := indicator.Volatility(tick.HighPrice24h, tick.LowPrice24h, tick.LastPrice)
	zone := indicator.Zone(volatility, a.zones)
	profile := zoneProfiles[zone]

	var spread *float64
	var top5Bids, top5Asks []domain.OrderbookLevel
	thin := true
	if in.Orderbook != nil {
		spread = indicator.Spread(in.Orderbook)
		thin = indicator.IsThin(in.Orderbook, a.thinBookLevels, a.thinBookMinUSD)
		top5Bids = topLevels(in.Orderbook.Bids, 5)
		top5Asks = topLevels(in.Orderbook.Asks, 5)
	}

	timeframes, bullishConfirmed, bearishConfirmed := a.analyzeTimeframes(tick.LastPrice, in.Candles)

	var rsi *float64
	divergence := false
	rising := false
	if series := in.Candles[a.rsiTimeframe]; series != nil {
		rsi = indicator.RSI(series.Closes)
		divergence = indicator.VolumeDivergence(series.Volumes)
		rising = indicator.VolumeRising(series.Volumes)
	}
	momentum := indicator.MomentumHealth(rsi, divergence, rising)

	score := indicator.BreakoutScore(indicator.BreakoutInputs{
		Zone:             zone,
		VolumeRising:     rising,
		VolumeDivergence: divergence,
		MTFConfirmed:     bullishConfirmed,
		OrderbookThin:    thin,
		RSI:              rsi,
		SpreadPercent:    spread,
		Metrics:          in.Sentiment.Metrics,
		News:             in.Sentiment.News,
		BTCInflowSpike:   in.Sentiment.BTCInflowSpike,
	}, a.weights)

	signal, _ := a.classify(signalFacts{
		BreakoutScore:    score,
		Momentum:         momentum,
		BullishConfirmed: bullishConfirmed,
		BearishConfirmed: bearishConfirmed,
		ThinBook:         thin,
	})

	analysis := &domain.CoinAnalysis{
		Symbol:                     tick.Symbol,
		Price:                      tick.LastPrice,
		Volume:                     tick.Volume24h,
		VolatilityPercent:          volatility,
		VolatilityZone:             zone,
		SpreadPercent:              spread,
		MultiTimeframeConfirmation: bullishConfirmed,
		TimeframesStatus:           timeframes,
		RSI1h:                      rsi,
		VolumeDivergence:           divergence,
		MomentumHealth:             momentum,
		BreakoutScore:              score,
		Signal:                     signal,
		StrategyDescription:        profile.strategy,
		EstimatedTimeToTP:          profile.timeToTP,
		Sector:                     in.Sector,
		RedditMentions:             in.Sentiment.RedditMentions,
		CoinMetrics:                in.Sentiment.Metrics,
		NewsSentiment:              in.Sentiment.News,
		BTCInflowSpike:             in.Sentiment.BTCInflowSpike,
		SocialDominanceSpike:       in.Sentiment.Social.DominanceSpike,
		ActiveAddressSpike:         in.Sentiment.Social.AddressSpike,
		Top5Bids:                   top5Bids,
		Top5Asks:                   top5Asks,
		ThinBook:                   thin,
		LastFullUpdate:             &now,
		BasicUpdateTimestamp:       &now,
	}
	if analysis.NewsSentiment == "" {
		analysis.NewsSentiment = domain.NewsNeutral
	}

	if profile.tpPct > 0 && tick.LastPrice > 0 {
		entry := tick.LastPrice
		tp := entry * (1 + profile.tpPct/100)
		sl := entry * (1 - profile.slPct/100)
		analysis.ExampleEntry = &entry
		analysis.ExampleTakeProfit = &tp
		analysis.ExampleStopLoss = &sl
	}

	return analysis
}

// analyzeTimeframes computes the per-timeframe EMA trend and the two
// confirmation flags. All tracked timeframes must agree for a direction to
// count as confirmed; an unknown trend breaks both confirmations.
func (a *Analyzer) analyzeTimeframes(lastPrice float64, candles map[string]*domain.CandleSeries) (map[string]domain.TimeframeStatus, bool, bool) {
	labels := make([]string, 0, len(candles))
	for label := range candles {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	statuses := make(map[string]domain.TimeframeStatus, len(labels))
	bullish := len(labels) > 0
	bearish := len(labels) > 0

	for _, label := range labels {
		series := candles[label]
		var ema *float64
		if series != nil {
			ema = indicator.EMA(series.Closes, 20)
		}
		trend := indicator.Trend(lastPrice, ema)
		statuses[label] = domain.TimeframeStatus{
			Price: lastPrice,
			EMA20: ema,
			Trend: trend,
		}
		if trend != domain.TrendBullish {
			bullish = false
		}
		if trend != domain.TrendBearish {
			bearish = false
		}
	}
	return statuses, bullish, bearish
}

func topLevels(levels []domain.OrderbookLevel, n int) []domain.OrderbookLevel {
	if len(levels) > n {
		levels = levels[:n]
	}
	out := make([]domain.OrderbookLevel, len(levels))
	copy(out, levels)
	return out
}

// RefreshBasic derives a replacement record from a prior analysis and a
// fresh ticker: price, volume, volatility, spread and the zone-derived
// strategy fields are recomputed, the expensive fields are carried over.
// The prior record is not modified.
func (a *Analyzer) RefreshBasic(prior *domain.CoinAnalysis, tick domain.MarketTick, book *domain.OrderbookSnapshot, now time.Time) *domain.CoinAnalysis {
	next := *prior

	next.Price = tick.LastPrice
	next.Volume = tick.Volume24h
	next.VolatilityPercent = indicator.Volatility(tick.HighPrice24h, tick.LowPrice24h, tick.LastPrice)
	next.VolatilityZone = indicator.Zone(next.VolatilityPercent, a.zones)
	profile := zoneProfiles[next.VolatilityZone]
	next.StrategyDescription = profile.strategy
	next.EstimatedTimeToTP = profile.timeToTP

	// Example levels follow the zone profile; recomputed together with the
	// strategy text so the two never disagree after a zone change.
	next.ExampleEntry = nil
	next.ExampleTakeProfit = nil
	next.ExampleStopLoss = nil
	if profile.tpPct > 0 && tick.LastPrice > 0 {
		entry := tick.LastPrice
		tp := entry * (1 + profile.tpPct/100)
		sl := entry * (1 - profile.slPct/100)
		next.ExampleEntry = &entry
		next.ExampleTakeProfit = &tp
		next.ExampleStopLoss = &sl
	}

	if book != nil {
		next.SpreadPercent = indicator.Spread(book)
		next.ThinBook = indicator.IsThin(book, a.thinBookLevels, a.thinBookMinUSD)
		next.Top5Bids = topLevels(book.Bids, 5)
		next.Top5Asks = topLevels(book.Asks, 5)
	}

	next.BasicUpdateTimestamp = &now
	return &next
}
