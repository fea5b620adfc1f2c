package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// The functions in this package are pure: no I/O, no shared state, and the
// same inputs always produce the same outputs. Missing or malformed inputs
// degrade to a nil result, never an error.

const rsiPeriod = 14

// Volatility returns the 24h range as a percentage of the last price, or
// nil when the inputs cannot produce a finite value.
func Volatility(high, low, last float64) *float64 {
	if last <= 0 || !finite(high) || !finite(low) || !finite(last) {
		return nil
	}
	v := (high - low) / last * 100
	if !finite(v) {
		return nil
	}
	return &v
}

// ZoneThresholds are the upper bounds of each volatility zone, in percent.
type ZoneThresholds struct {
	VeryLow float64 `yaml:"very_low"`
	Low     float64 `yaml:"low"`
	Medium  float64 `yaml:"medium"`
	High    float64 `yaml:"high"`
}

func DefaultZoneThresholds() ZoneThresholds {
	return ZoneThresholds{VeryLow: 3, Low: 7, Medium: 12, High: 18}
}

func Zone(volatility *float64, t ZoneThresholds) domain.VolatilityZone {
	if volatility == nil {
		return domain.ZoneUnknown
	}
	switch v := *volatility; {
	case v <= t.VeryLow:
		return domain.ZoneVeryLow
	case v <= t.Low:
		return domain.ZoneLow
	case v <= t.Medium:
		return domain.ZoneMedium
	case v <= t.High:
		return domain.ZoneHigh
	default:
		return domain.ZoneVeryHigh
	}
}

// Spread returns the top-of-book bid/ask spread in percent of the best ask.
// A crossed book (bid >= ask) is a data-integrity condition and yields nil,
// not a negative number.
func Spread(book *domain.OrderbookSnapshot) *float64 {
	bid, ok := book.BestBid()
	if !ok {
		return nil
	}
	ask, ok := book.BestAsk()
	if !ok {
		return nil
	}
	if ask.Price <= 0 || bid.Price >= ask.Price {
		return nil
	}
	s := (ask.Price - bid.Price) / ask.Price * 100
	return &s
}

// RSI is the 14-period Wilder relative strength index over the given closes
// (oldest first). Needs at least period+1 candles, otherwise nil.
func RSI(closes []float64) *float64 {
	if len(closes) < rsiPeriod+1 {
		return nil
	}
	out := talib.Rsi(closes, rsiPeriod)
	v := out[len(out)-1]
	if !finite(v) {
		return nil
	}
	return &v
}

// EMA returns the exponential moving average of the closes over the given
// period, or nil when there is not enough history.
func EMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}
	out := talib.Ema(closes, period)
	v := out[len(out)-1]
	if !finite(v) {
		return nil
	}
	return &v
}

// Trend classifies price against its EMA.
func Trend(price float64, ema *float64) domain.Trend {
	switch {
	case ema == nil:
		return domain.TrendUnknown
	case price > *ema:
		return domain.TrendBullish
	case price < *ema:
		return domain.TrendBearish
	default:
		return domain.TrendUnknown
	}
}

// VolumeDivergence reports a fading move: the last three volumes strictly
// decreasing.
func VolumeDivergence(volumes []float64) bool {
	n := len(volumes)
	if n < 3 {
		return false
	}
	return volumes[n-1] < volumes[n-2] && volumes[n-2] < volumes[n-3]
}

// VolumeRising reports the opposite condition: the last three volumes
// strictly increasing.
func VolumeRising(volumes []float64) bool {
	n := len(volumes)
	if n < 3 {
		return false
	}
	return volumes[n-1] > volumes[n-2] && volumes[n-2] > volumes[n-3]
}

// MomentumHealth combines the RSI band with the recent volume trend.
// "Oversold but healthy" requires RSI < 30 together with rising volume.
func MomentumHealth(rsi *float64, volumeDivergence, volumeRising bool) domain.MomentumHealth {
	if rsi == nil {
		return domain.MomentumUnknown
	}
	switch {
	case *rsi > 80 || volumeDivergence:
		return domain.MomentumWeak
	case *rsi < 30 && volumeRising:
		return domain.MomentumOversoldHealthy
	case *rsi >= 40 && *rsi <= 70:
		return domain.MomentumStrong
	default:
		return domain.MomentumNeutral
	}
}

// IsThin reports whether the aggregate quote-denominated depth across the
// top levels of both sides is below the liquidity threshold.
func IsThin(book *domain.OrderbookSnapshot, levels int, minQuoteDepth float64) bool {
	if book == nil {
		return true
	}
	var depth float64
	for i, l := range book.Bids {
		if i >= levels {
			break
		}
		depth += l.Price * l.Size
	}
	for i, l := range book.Asks {
		if i >= levels {
			break
		}
		depth += l.Price * l.Size
	}
	return depth < minQuoteDepth
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
