package usecase

import (
	"sort"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// ScalpFilter selects coins suitable for short-horizon trades from the
// current snapshot. Pure read-side transform.
type ScalpFilter struct {
	MaxSpreadPercent float64
	MinVolume24h     float64
}

func NewScalpFilter(maxSpreadPercent, minVolume24h float64) *ScalpFilter {
	return &ScalpFilter{
		MaxSpreadPercent: maxSpreadPercent,
		MinVolume24h:     minVolume24h,
	}
}

type ScalpResult struct {
	Strategy       string
	Qualified      []*domain.CoinAnalysis
	TotalChecked   int
	TotalQualified int
}

// Filter applies the scalp-qualification predicate to every coin in the
// snapshot. Returns ErrUninitialized until a full cycle has published.
func (f *ScalpFilter) Filter(snap *domain.Snapshot) (*ScalpResult, error) {
	if snap == nil || snap.LastFullUpdate == nil {
		return nil, domain.ErrUninitialized
	}

	result := &ScalpResult{
		Strategy:     "scalp",
		TotalChecked: len(snap.Coins),
		Qualified:    make([]*domain.CoinAnalysis, 0),
	}

	for _, coin := range snap.Coins {
		if f.qualifies(coin) {
			result.Qualified = append(result.Qualified, coin)
		}
	}
	sort.Slice(result.Qualified, func(i, j int) bool {
		a, b := result.Qualified[i], result.Qualified[j]
		if a.BreakoutScore != b.BreakoutScore {
			return a.BreakoutScore > b.BreakoutScore
		}
		return a.Symbol < b.Symbol
	})

	result.TotalQualified = len(result.Qualified)
	return result, nil
}

func (f *ScalpFilter) qualifies(coin *domain.CoinAnalysis) bool {
	if coin.Signal != domain.SignalBuy {
		return false
	}
	if coin.SpreadPercent == nil || *coin.SpreadPercent > f.MaxSpreadPercent {
		return false
	}
	if coin.Volume < f.MinVolume24h {
		return false
	}
	return !coin.ThinBook
}
