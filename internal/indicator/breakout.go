package indicator

import "github.com/dmarkov/spot_sentiment/internal/domain"

// BreakoutInputs are the facts the breakout score is computed from. All
// nullable inputs contribute nothing when nil.
type BreakoutInputs struct {
	Zone             domain.VolatilityZone
	VolumeRising     bool
	VolumeDivergence bool
	MTFConfirmed     bool
	OrderbookThin    bool
	RSI              *float64
	SpreadPercent    *float64
	Metrics          domain.CoinMetrics
	News             domain.NewsSentiment
	BTCInflowSpike   bool
}

// BreakoutWeights are the tunable contributions of each factor. The score
// starts at Base, factors add or subtract, and the result is clamped to
// 0..100.
type BreakoutWeights struct {
	Base int `yaml:"base"`

	ZoneVeryLow  int `yaml:"zone_very_low"`
	ZoneLow      int `yaml:"zone_low"`
	ZoneMedium   int `yaml:"zone_medium"`
	ZoneHigh     int `yaml:"zone_high"`
	ZoneVeryHigh int `yaml:"zone_very_high"`

	VolumeRising     int `yaml:"volume_rising"`
	VolumeDivergence int `yaml:"volume_divergence"`
	MTFConfirmed     int `yaml:"mtf_confirmed"`
	OrderbookThin    int `yaml:"orderbook_thin"`

	RSIHealthy    int `yaml:"rsi_healthy"`
	RSIOverbought int `yaml:"rsi_overbought"`
	TightSpread   int `yaml:"tight_spread"`

	CommunityScore      int `yaml:"community_score"`
	DeveloperScore      int `yaml:"developer_score"`
	PublicInterestScore int `yaml:"public_interest_score"`
	SentimentVotes      int `yaml:"sentiment_votes"`

	NewsPositive int `yaml:"news_positive"`
	NewsNegative int `yaml:"news_negative"`
	InflowSpike  int `yaml:"inflow_spike"`
}

// Metric thresholds that gate the CoinGecko proxy bonuses.
const (
	cgCommunityThreshold      = 60
	cgDeveloperThreshold      = 65
	cgPublicInterestThreshold = 30
	cgSentimentThreshold      = 70

	rsiHealthyLow  = 40
	rsiHealthyHigh = 70
	rsiOverbought  = 75

	tightSpreadPct = 0.5
)

func DefaultBreakoutWeights() BreakoutWeights {
	return BreakoutWeights{
		Base:                25,
		ZoneVeryLow:         5,
		ZoneLow:             10,
		ZoneMedium:          15,
		ZoneHigh:            10,
		ZoneVeryHigh:        0,
		VolumeRising:        10,
		VolumeDivergence:    -10,
		MTFConfirmed:        20,
		OrderbookThin:       -10,
		RSIHealthy:          10,
		RSIOverbought:       -10,
		TightSpread:         5,
		CommunityScore:      5,
		DeveloperScore:      5,
		PublicInterestScore: 2,
		SentimentVotes:      5,
		NewsPositive:        5,
		NewsNegative:        -5,
		InflowSpike:         -15,
	}
}

// BreakoutScore computes the 0..100 composite breakout indicator. It is
// deterministic: identical inputs and weights always yield the same score.
func BreakoutScore(in BreakoutInputs, w BreakoutWeights) int {
	score := w.Base

	switch in.Zone {
	case domain.ZoneVeryLow:
		score += w.ZoneVeryLow
	case domain.ZoneLow:
		score += w.ZoneLow
	case domain.ZoneMedium:
		score += w.ZoneMedium
	case domain.ZoneHigh:
		score += w.ZoneHigh
	case domain.ZoneVeryHigh:
		score += w.ZoneVeryHigh
	}

	if in.VolumeRising {
		score += w.VolumeRising
	}
	if in.VolumeDivergence {
		score += w.VolumeDivergence
	}
	if in.MTFConfirmed {
		score += w.MTFConfirmed
	}
	if in.OrderbookThin {
		score += w.OrderbookThin
	}

	if in.RSI != nil {
		if *in.RSI >= rsiHealthyLow && *in.RSI < rsiHealthyHigh {
			score += w.RSIHealthy
		} else if *in.RSI >= rsiOverbought {
			score += w.RSIOverbought
		}
	}
	if in.SpreadPercent != nil && *in.SpreadPercent < tightSpreadPct {
		score += w.TightSpread
	}

	m := in.Metrics
	if m.CommunityScore != nil && *m.CommunityScore >= cgCommunityThreshold {
		score += w.CommunityScore
	}
	if m.DeveloperScore != nil && *m.DeveloperScore >= cgDeveloperThreshold {
		score += w.DeveloperScore
	}
	if m.PublicInterestScore != nil && *m.PublicInterestScore >= cgPublicInterestThreshold {
		score += w.PublicInterestScore
	}
	if m.SentimentVotesUpPct != nil && *m.SentimentVotesUpPct >= cgSentimentThreshold {
		score += w.SentimentVotes
	}

	switch in.News {
	case domain.NewsPositive:
		score += w.NewsPositive
	case domain.NewsNegative:
		score += w.NewsNegative
	}
	if in.BTCInflowSpike {
		score += w.InflowSpike
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
