package domain

// MarketTick is one symbol's spot ticker as returned by the exchange.
// Immutable once fetched; a new value is produced on every refresh.
type MarketTick struct {
	Symbol       string  `json:"symbol"`
	LastPrice    float64 `json:"last_price"`
	HighPrice24h float64 `json:"high_price_24h"`
	LowPrice24h  float64 `json:"low_price_24h"`
	PrevPrice24h float64 `json:"prev_price_24h"`
	Volume24h    float64 `json:"volume_24h"`
	Turnover24h  float64 `json:"turnover_24h"`
	Change24hPct float64 `json:"change_24h_pcnt"`
}

type OrderbookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderbookSnapshot holds the top levels of both book sides for one symbol.
// Ephemeral: always the latest fetch, never carried across cycles.
type OrderbookSnapshot struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderbookLevel `json:"bids"` // sorted best (highest) first
	Asks   []OrderbookLevel `json:"asks"` // sorted best (lowest) first
}

func (ob *OrderbookSnapshot) BestBid() (OrderbookLevel, bool) {
	if ob == nil || len(ob.Bids) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Bids[0], true
}

func (ob *OrderbookSnapshot) BestAsk() (OrderbookLevel, bool) {
	if ob == nil || len(ob.Asks) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Asks[0], true
}

// CandleSeries is the close/volume history for one symbol and interval,
// oldest candle first.
type CandleSeries struct {
	Symbol   string
	Interval string
	Closes   []float64
	Volumes  []float64
}

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendUnknown Trend = "unknown"
)

// TimeframeStatus is the per-timeframe view published on the wire.
type TimeframeStatus struct {
	Price float64  `json:"price"`
	EMA20 *float64 `json:"ema20"`
	Trend Trend    `json:"trend"`
}
