package usecase_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/usecase"
)

func bullishInputs(symbol string) usecase.CoinInputs {
	pair := symbol + "USDT"
	mentions := 5
	cg := 90.0
	return usecase.CoinInputs{
		Tick: domain.MarketTick{
			Symbol:       symbol,
			LastPrice:    150, // above every EMA of the rising series
			HighPrice24h: 155,
			LowPrice24h:  140,
			Volume24h:    5_000_000,
		},
		Orderbook: deepBook(pair, 150),
		Candles: map[string]*domain.CandleSeries{
			"15m": risingSeries(pair, "15", 20),
			"1h":  risingSeries(pair, "60", 20),
			"4h":  risingSeries(pair, "240", 20),
		},
		Sentiment: domain.SentimentInputs{
			RedditMentions: &mentions,
			Metrics:        domain.CoinMetrics{CommunityScore: &cg},
			News:           domain.NewsPositive,
			FearGreed:      domain.FearGreed{Score: 60, Classification: "Greed"},
		},
		Sector: "Layer 1",
	}
}

func TestAnalyzeProducesCompleteRecord(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()

	got := a.Analyze(bullishInputs("SOL"), now)

	require.NotNil(t, got)
	assert.Equal(t, "SOL", got.Symbol)
	assert.Equal(t, 150.0, got.Price)

	require.NotNil(t, got.VolatilityPercent)
	assert.InDelta(t, 10.0, *got.VolatilityPercent, 0.0001) // (155-140)/150*100
	assert.Equal(t, domain.ZoneMedium, got.VolatilityZone)
	assert.Equal(t, "Balanced Normal Strategy", got.StrategyDescription)
	assert.Equal(t, "6-12 hours", got.EstimatedTimeToTP)

	require.NotNil(t, got.SpreadPercent)
	assert.True(t, got.MultiTimeframeConfirmation)
	assert.Len(t, got.TimeframesStatus, 3)
	assert.False(t, got.ThinBook)
	assert.Len(t, got.Top5Bids, 5)
	assert.Len(t, got.Top5Asks, 5)

	require.NotNil(t, got.ExampleEntry)
	require.NotNil(t, got.ExampleTakeProfit)
	require.NotNil(t, got.ExampleStopLoss)
	assert.Greater(t, *got.ExampleTakeProfit, *got.ExampleEntry)
	assert.Less(t, *got.ExampleStopLoss, *got.ExampleEntry)

	require.NotNil(t, got.LastFullUpdate)
	require.NotNil(t, got.BasicUpdateTimestamp)
}

func TestAnalyzeDegradesMissingInputsToNil(t *testing.T) {
	a := newTestAnalyzer()

	got := a.Analyze(usecase.CoinInputs{
		Tick:    domain.MarketTick{Symbol: "XYZ", LastPrice: 0},
		Candles: map[string]*domain.CandleSeries{},
	}, time.Now())

	require.NotNil(t, got, "a failed computation degrades fields, never drops the record")
	assert.Nil(t, got.VolatilityPercent)
	assert.Equal(t, domain.ZoneUnknown, got.VolatilityZone)
	assert.Nil(t, got.SpreadPercent)
	assert.Nil(t, got.RSI1h)
	assert.Equal(t, domain.MomentumUnknown, got.MomentumHealth)
	assert.False(t, got.MultiTimeframeConfirmation)
	assert.True(t, got.ThinBook)
	assert.Nil(t, got.ExampleEntry)
	assert.Equal(t, domain.NewsNeutral, got.NewsSentiment)
}

func TestAnalyzeCarriesSocialSpikes(t *testing.T) {
	a := newTestAnalyzer()

	in := bullishInputs("SOL")
	got := a.Analyze(in, time.Now())
	assert.False(t, got.SocialDominanceSpike)
	assert.False(t, got.ActiveAddressSpike)

	in.Sentiment.Social = domain.SocialSpikes{DominanceSpike: true, AddressSpike: true}
	got = a.Analyze(in, time.Now())
	assert.True(t, got.SocialDominanceSpike)
	assert.True(t, got.ActiveAddressSpike)
}

func TestAnalyzeDoesNotMutateInputs(t *testing.T) {
	a := newTestAnalyzer()

	in := bullishInputs("SOL")
	bookBefore := *in.Orderbook
	bookBefore.Bids = append([]domain.OrderbookLevel(nil), in.Orderbook.Bids...)
	bookBefore.Asks = append([]domain.OrderbookLevel(nil), in.Orderbook.Asks...)

	a.Analyze(in, time.Now())
	assert.Equal(t, bookBefore, *in.Orderbook)
}

func TestAnalyzeDeterminism(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Unix(1700000000, 0)

	first := a.Analyze(bullishInputs("ETH"), now)
	second := a.Analyze(bullishInputs("ETH"), now)

	assert.Equal(t, first, second)
}

func TestSignalBuyRequiresConfirmationAndMomentum(t *testing.T) {
	a := newTestAnalyzer()
	got := a.Analyze(bullishInputs("SOL"), time.Now())

	// Rising closes keep RSI pegged high (>80), which reads as weak
	// momentum, so even a confirmed uptrend must not be a BUY.
	if got.MomentumHealth == domain.MomentumWeak {
		assert.NotEqual(t, domain.SignalBuy, got.Signal)
	}
}

func TestSignalSellAvoidOnBearishConfirmation(t *testing.T) {
	a := newTestAnalyzer()
	in := bullishInputs("DOGE")
	in.Tick.LastPrice = 50 // below every EMA: all timeframes bearish
	in.Orderbook = deepBook("DOGEUSDT", 50)

	got := a.Analyze(in, time.Now())
	assert.Equal(t, domain.SignalSellAvoid, got.Signal)
}

func TestSignalCautionOnThinOrderbook(t *testing.T) {
	a := newTestAnalyzer()
	in := bullishInputs("PEPE")
	in.Orderbook = &domain.OrderbookSnapshot{
		Symbol: "PEPEUSDT",
		Bids:   []domain.OrderbookLevel{{Price: 149, Size: 0.1}},
		Asks:   []domain.OrderbookLevel{{Price: 151, Size: 0.1}},
	}

	got := a.Analyze(in, time.Now())
	assert.True(t, got.ThinBook)
	assert.Equal(t, domain.SignalCaution, got.Signal)
}

func TestSignalNeutralByDefault(t *testing.T) {
	a := newTestAnalyzer()

	// Flat series: EMA == price, trend unknown on every timeframe,
	// middling RSI history absent.
	flat := func() *domain.CandleSeries {
		s := &domain.CandleSeries{}
		for i := 0; i < 20; i++ {
			s.Closes = append(s.Closes, 100)
			s.Volumes = append(s.Volumes, 1000)
		}
		return s
	}
	in := usecase.CoinInputs{
		Tick: domain.MarketTick{
			Symbol: "ADA", LastPrice: 100, HighPrice24h: 101, LowPrice24h: 99,
		},
		Orderbook: deepBook("ADAUSDT", 100),
		Candles: map[string]*domain.CandleSeries{
			"15m": flat(), "1h": flat(), "4h": flat(),
		},
	}

	got := a.Analyze(in, time.Now())
	assert.Equal(t, domain.SignalNeutral, got.Signal)
}

func TestRefreshBasicReplacesCheapFieldsOnly(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()
	later := now.Add(2 * time.Minute)

	prior := a.Analyze(bullishInputs("SOL"), now)

	tick := domain.MarketTick{
		Symbol: "SOL", LastPrice: 160, HighPrice24h: 165, LowPrice24h: 140, Volume24h: 6_000_000,
	}
	next := a.RefreshBasic(prior, tick, deepBook("SOLUSDT", 160), later)

	require.NotSame(t, prior, next, "refresh must produce a new record")
	assert.Equal(t, 160.0, next.Price)
	assert.Equal(t, 6_000_000.0, next.Volume)
	require.NotNil(t, next.VolatilityPercent)

	// Expensive fields carry over untouched.
	assert.Equal(t, prior.BreakoutScore, next.BreakoutScore)
	assert.Equal(t, prior.Signal, next.Signal)
	assert.Equal(t, prior.RSI1h, next.RSI1h)
	assert.Equal(t, prior.LastFullUpdate, next.LastFullUpdate)

	require.NotNil(t, next.BasicUpdateTimestamp)
	assert.Equal(t, later, *next.BasicUpdateTimestamp)

	// The prior record itself is untouched.
	assert.Equal(t, 150.0, prior.Price)
}

func TestRefreshBasicRealignsExampleLevelsWithZone(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()

	prior := a.Analyze(bullishInputs("SOL"), now)
	require.Equal(t, domain.ZoneMedium, prior.VolatilityZone)

	// A wildly wider 24h range moves the coin into the very high zone;
	// the example levels must follow the new zone profile, not the old one.
	tick := domain.MarketTick{
		Symbol: "SOL", LastPrice: 160, HighPrice24h: 200, LowPrice24h: 150, Volume24h: 6_000_000,
	}
	next := a.RefreshBasic(prior, tick, nil, now.Add(2*time.Minute))

	assert.Equal(t, domain.ZoneVeryHigh, next.VolatilityZone)
	assert.Equal(t, "Big Swing Survival Strategy", next.StrategyDescription)
	require.NotNil(t, next.ExampleEntry)
	require.NotNil(t, next.ExampleTakeProfit)
	require.NotNil(t, next.ExampleStopLoss)
	assert.Equal(t, 160.0, *next.ExampleEntry)
	assert.InDelta(t, 160*1.12, *next.ExampleTakeProfit, 0.0001)
	assert.InDelta(t, 160*0.94, *next.ExampleStopLoss, 0.0001)
}

func TestRefreshBasicDropsExampleLevelsOnUnknownZone(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()

	prior := a.Analyze(bullishInputs("SOL"), now)
	require.NotNil(t, prior.ExampleEntry)

	// A malformed 24h range degrades the zone to unknown, which carries no
	// profile and therefore no example levels.
	tick := domain.MarketTick{
		Symbol: "SOL", LastPrice: 160, HighPrice24h: math.NaN(), LowPrice24h: 150,
	}
	next := a.RefreshBasic(prior, tick, nil, now.Add(2*time.Minute))

	assert.Equal(t, domain.ZoneUnknown, next.VolatilityZone)
	assert.Nil(t, next.ExampleEntry)
	assert.Nil(t, next.ExampleTakeProfit)
	assert.Nil(t, next.ExampleStopLoss)
}
