package domain

import "time"

type Signal string

const (
	SignalBuy       Signal = "BUY"
	SignalCaution   Signal = "CAUTION"
	SignalNeutral   Signal = "NEUTRAL"
	SignalSellAvoid Signal = "SELL/AVOID"
)

type MomentumHealth string

const (
	MomentumStrong          MomentumHealth = "strong"
	MomentumWeak            MomentumHealth = "weak"
	MomentumOversoldHealthy MomentumHealth = "oversold but healthy"
	MomentumNeutral         MomentumHealth = "neutral"
	MomentumUnknown         MomentumHealth = "unknown"
)

type VolatilityZone string

const (
	ZoneVeryLow  VolatilityZone = "Very Low Volatility"
	ZoneLow      VolatilityZone = "Low Volatility"
	ZoneMedium   VolatilityZone = "Medium Volatility"
	ZoneHigh     VolatilityZone = "High Volatility"
	ZoneVeryHigh VolatilityZone = "Very High Volatility"
	ZoneUnknown  VolatilityZone = "Unknown Volatility"
)

// CoinAnalysis is the central output record for one symbol. A record is
// created whole and replaced whole each cycle; it is never mutated in place
// after publication. Nullable fields degrade to nil when the computation or
// the backing fetch failed, the record itself is always kept.
type CoinAnalysis struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume_24h"`

	VolatilityPercent *float64       `json:"volatility_percent"`
	VolatilityZone    VolatilityZone `json:"volatility_zone"`
	SpreadPercent     *float64       `json:"bid_ask_spread_percent"`

	MultiTimeframeConfirmation bool                       `json:"multi_timeframe_confirmation"`
	TimeframesStatus           map[string]TimeframeStatus `json:"timeframes_status"`

	RSI1h            *float64       `json:"rsi_1h"`
	VolumeDivergence bool           `json:"volume_divergence"`
	MomentumHealth   MomentumHealth `json:"momentum_health"`
	BreakoutScore    int            `json:"breakout_score"`

	Signal              Signal `json:"signal"`
	StrategyDescription string `json:"strategy_description"`
	EstimatedTimeToTP   string `json:"estimated_time_to_tp"`
	Sector              string `json:"sector"`

	RedditMentions       *int          `json:"reddit_mentions"`
	CoinMetrics          CoinMetrics   `json:"coingecko_metrics"`
	NewsSentiment        NewsSentiment `json:"news_sentiment"`
	BTCInflowSpike       bool          `json:"btc_inflow_spike"`
	SocialDominanceSpike bool          `json:"social_dominance_spike"`
	ActiveAddressSpike   bool          `json:"active_address_spike"`

	Top5Bids []OrderbookLevel `json:"top_5_bids"`
	Top5Asks []OrderbookLevel `json:"top_5_asks"`
	ThinBook bool             `json:"thin_orderbook"`

	ExampleEntry      *float64 `json:"example_entry"`
	ExampleTakeProfit *float64 `json:"example_take_profit"`
	ExampleStopLoss   *float64 `json:"example_stop_loss"`

	LastFullUpdate       *time.Time `json:"last_full_update"`
	BasicUpdateTimestamp *time.Time `json:"basic_update_timestamp"`
}

// Snapshot is the process-wide analysis state. Published as a whole and
// never mutated afterwards; readers always observe a fully-formed value.
type Snapshot struct {
	Coins   map[string]*CoinAnalysis
	Tickers map[string]MarketTick

	FearGreed FearGreed

	LastBasicUpdate *time.Time
	LastFullUpdate  *time.Time

	// FullStartedAt is the start time of the full cycle that produced the
	// coin set. Used by the store to reject publishes from a cycle that
	// started before the currently-published one.
	FullStartedAt time.Time
}

// Clone returns a shallow-map copy suitable for building a successor
// snapshot. Coin records themselves are not copied; callers replace
// records wholesale, never edit them.
func (s *Snapshot) Clone() *Snapshot {
	next := &Snapshot{
		Coins:           make(map[string]*CoinAnalysis, len(s.Coins)),
		Tickers:         make(map[string]MarketTick, len(s.Tickers)),
		FearGreed:       s.FearGreed,
		LastBasicUpdate: s.LastBasicUpdate,
		LastFullUpdate:  s.LastFullUpdate,
		FullStartedAt:   s.FullStartedAt,
	}
	for sym, c := range s.Coins {
		next.Coins[sym] = c
	}
	for sym, t := range s.Tickers {
		next.Tickers[sym] = t
	}
	return next
}
