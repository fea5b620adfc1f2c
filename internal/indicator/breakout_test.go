package indicator_test

import (
	"testing"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/indicator"
)

func fptr(v float64) *float64 { return &v }

func TestBreakoutScoreDeterminism(t *testing.T) {
	w := indicator.DefaultBreakoutWeights()
	in := indicator.BreakoutInputs{
		Zone:          domain.ZoneMedium,
		VolumeRising:  true,
		MTFConfirmed:  true,
		RSI:           fptr(55),
		SpreadPercent: fptr(0.2),
	}

	first := indicator.BreakoutScore(in, w)
	for i := 0; i < 10; i++ {
		if got := indicator.BreakoutScore(in, w); got != first {
			t.Fatalf("score not deterministic: %d vs %d", got, first)
		}
	}
}

func TestBreakoutScoreRange(t *testing.T) {
	w := indicator.DefaultBreakoutWeights()

	best := indicator.BreakoutInputs{
		Zone:          domain.ZoneMedium,
		VolumeRising:  true,
		MTFConfirmed:  true,
		RSI:           fptr(55),
		SpreadPercent: fptr(0.1),
		Metrics: domain.CoinMetrics{
			CommunityScore:      fptr(90),
			DeveloperScore:      fptr(90),
			PublicInterestScore: fptr(50),
			SentimentVotesUpPct: fptr(95),
		},
		News: domain.NewsPositive,
	}
	if got := indicator.BreakoutScore(best, w); got != 100 {
		t.Errorf("fully favorable inputs should clamp to 100, got %d", got)
	}

	worst := indicator.BreakoutInputs{
		Zone:             domain.ZoneVeryHigh,
		VolumeDivergence: true,
		OrderbookThin:    true,
		RSI:              fptr(85),
		News:             domain.NewsNegative,
		BTCInflowSpike:   true,
	}
	if got := indicator.BreakoutScore(worst, w); got < 0 || got > 100 {
		t.Errorf("score out of range: %d", got)
	}
}

func TestBreakoutScoreFactors(t *testing.T) {
	w := indicator.DefaultBreakoutWeights()
	base := indicator.BreakoutInputs{Zone: domain.ZoneUnknown}
	baseScore := indicator.BreakoutScore(base, w)

	withMTF := base
	withMTF.MTFConfirmed = true
	if got := indicator.BreakoutScore(withMTF, w); got != baseScore+w.MTFConfirmed {
		t.Errorf("MTF confirmation contribution wrong: %d vs base %d", got, baseScore)
	}

	withThin := base
	withThin.OrderbookThin = true
	if got := indicator.BreakoutScore(withThin, w); got != baseScore+w.OrderbookThin {
		t.Errorf("thin orderbook contribution wrong: %d vs base %d", got, baseScore)
	}

	withDivergence := base
	withDivergence.VolumeDivergence = true
	if got := indicator.BreakoutScore(withDivergence, w); got != baseScore+w.VolumeDivergence {
		t.Errorf("volume divergence contribution wrong: %d vs base %d", got, baseScore)
	}

	withInflow := base
	withInflow.BTCInflowSpike = true
	if got := indicator.BreakoutScore(withInflow, w); got != baseScore+w.InflowSpike {
		t.Errorf("inflow spike contribution wrong: %d vs base %d", got, baseScore)
	}
}

func TestBreakoutScoreNilInputsContributeNothing(t *testing.T) {
	w := indicator.DefaultBreakoutWeights()
	in := indicator.BreakoutInputs{Zone: domain.ZoneUnknown}
	if got := indicator.BreakoutScore(in, w); got != w.Base {
		t.Errorf("all-nil inputs should score the base weight, got %d want %d", got, w.Base)
	}
}
