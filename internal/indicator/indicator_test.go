package indicator_test

import (
	"testing"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/indicator"
)

func TestVolatility(t *testing.T) {
	v := indicator.Volatility(110, 90, 100)
	if v == nil {
		t.Fatal("expected a value, got nil")
	}
	if *v != 20.0 {
		t.Errorf("Volatility(110, 90, 100) = %f, want 20.0", *v)
	}

	if got := indicator.Volatility(110, 90, 0); got != nil {
		t.Errorf("Volatility with zero last price should be nil, got %f", *got)
	}
	if got := indicator.Volatility(110, 90, -5); got != nil {
		t.Errorf("Volatility with negative last price should be nil, got %f", *got)
	}
}

func TestVolatilityZones(t *testing.T) {
	thresholds := indicator.DefaultZoneThresholds()

	tests := []struct {
		vol  float64
		want domain.VolatilityZone
	}{
		{1.5, domain.ZoneVeryLow},
		{3.0, domain.ZoneVeryLow},
		{5.0, domain.ZoneLow},
		{10.0, domain.ZoneMedium},
		{15.0, domain.ZoneHigh},
		{25.0, domain.ZoneVeryHigh},
	}
	for _, tt := range tests {
		v := tt.vol
		if got := indicator.Zone(&v, thresholds); got != tt.want {
			t.Errorf("Zone(%f) = %s, want %s", tt.vol, got, tt.want)
		}
	}

	if got := indicator.Zone(nil, thresholds); got != domain.ZoneUnknown {
		t.Errorf("Zone(nil) = %s, want unknown", got)
	}
}

func TestSpread(t *testing.T) {
	book := &domain.OrderbookSnapshot{
		Bids: []domain.OrderbookLevel{{Price: 99, Size: 1}},
		Asks: []domain.OrderbookLevel{{Price: 100, Size: 1}},
	}
	s := indicator.Spread(book)
	if s == nil {
		t.Fatal("expected spread, got nil")
	}
	if *s != 1.0 {
		t.Errorf("Spread = %f, want 1.0", *s)
	}
}

func TestSpreadCrossedBook(t *testing.T) {
	// bid >= ask is a data-integrity condition: nil, never negative
	book := &domain.OrderbookSnapshot{
		Bids: []domain.OrderbookLevel{{Price: 100, Size: 1}},
		Asks: []domain.OrderbookLevel{{Price: 99, Size: 1}},
	}
	if got := indicator.Spread(book); got != nil {
		t.Errorf("crossed book spread should be nil, got %f", *got)
	}
}

func TestSpreadEmptyBook(t *testing.T) {
	if got := indicator.Spread(&domain.OrderbookSnapshot{}); got != nil {
		t.Errorf("empty book spread should be nil, got %f", *got)
	}
}

func TestRSINotEnoughHistory(t *testing.T) {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if got := indicator.RSI(closes); got != nil {
		t.Errorf("RSI with 14 candles should be nil, got %f", *got)
	}
}

func TestRSIMonotonicRise(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := indicator.RSI(closes)
	if rsi == nil {
		t.Fatal("expected RSI, got nil")
	}
	if *rsi <= 70 {
		t.Errorf("RSI over a monotonically rising series = %f, want > 70", *rsi)
	}
}

func TestRSIDeterminism(t *testing.T) {
	closes := []float64{10, 11, 10.5, 12, 11.8, 13, 12.5, 14, 13.2, 15, 14.8, 16, 15.5, 17, 16.9, 18}
	a := indicator.RSI(closes)
	b := indicator.RSI(closes)
	if a == nil || b == nil {
		t.Fatal("expected RSI values")
	}
	if *a != *b {
		t.Errorf("RSI not deterministic: %f vs %f", *a, *b)
	}
}

func TestEMAAndTrend(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	ema := indicator.EMA(closes, 20)
	if ema == nil {
		t.Fatal("expected EMA, got nil")
	}
	if *ema != 100 {
		t.Errorf("EMA of a flat series = %f, want 100", *ema)
	}

	if got := indicator.Trend(101, ema); got != domain.TrendBullish {
		t.Errorf("Trend(101, 100) = %s, want bullish", got)
	}
	if got := indicator.Trend(99, ema); got != domain.TrendBearish {
		t.Errorf("Trend(99, 100) = %s, want bearish", got)
	}
	if got := indicator.Trend(101, nil); got != domain.TrendUnknown {
		t.Errorf("Trend with nil EMA = %s, want unknown", got)
	}
}

func TestEMANotEnoughHistory(t *testing.T) {
	if got := indicator.EMA([]float64{1, 2, 3}, 20); got != nil {
		t.Errorf("EMA with short history should be nil, got %f", *got)
	}
}

func TestVolumeDivergence(t *testing.T) {
	if !indicator.VolumeDivergence([]float64{300, 200, 100}) {
		t.Error("strictly decreasing volumes should be a divergence")
	}
	if indicator.VolumeDivergence([]float64{100, 200, 300}) {
		t.Error("rising volumes are not a divergence")
	}
	if indicator.VolumeDivergence([]float64{100, 200}) {
		t.Error("fewer than 3 volumes cannot diverge")
	}

	if !indicator.VolumeRising([]float64{100, 200, 300}) {
		t.Error("strictly increasing volumes should read as rising")
	}
	if indicator.VolumeRising([]float64{300, 200, 100}) {
		t.Error("falling volumes should not read as rising")
	}
}

func TestMomentumHealth(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		rsi        *float64
		divergence bool
		rising     bool
		want       domain.MomentumHealth
	}{
		{"nil rsi", nil, false, false, domain.MomentumUnknown},
		{"overbought", f(85), false, false, domain.MomentumWeak},
		{"divergence", f(55), true, false, domain.MomentumWeak},
		{"oversold with rising volume", f(25), false, true, domain.MomentumOversoldHealthy},
		{"oversold without rising volume", f(25), false, false, domain.MomentumNeutral},
		{"healthy band", f(55), false, false, domain.MomentumStrong},
		{"upper band edge", f(70), false, false, domain.MomentumStrong},
		{"between bands", f(35), false, false, domain.MomentumNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indicator.MomentumHealth(tt.rsi, tt.divergence, tt.rising)
			if got != tt.want {
				t.Errorf("MomentumHealth() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsThin(t *testing.T) {
	book := &domain.OrderbookSnapshot{
		Bids: []domain.OrderbookLevel{{Price: 100, Size: 10}, {Price: 99, Size: 10}},
		Asks: []domain.OrderbookLevel{{Price: 101, Size: 10}, {Price: 102, Size: 10}},
	}
	// Total quote depth = 100*10 + 99*10 + 101*10 + 102*10 = 4020
	if indicator.IsThin(book, 5, 4000) {
		t.Error("book above threshold should not be thin")
	}
	if !indicator.IsThin(book, 5, 5000) {
		t.Error("book below threshold should be thin")
	}
	if !indicator.IsThin(nil, 5, 1) {
		t.Error("missing book is always thin")
	}
}
