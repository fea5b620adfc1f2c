package web

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/domain"
	"github.com/dmarkov/spot_sentiment/internal/usecase"
)

type sentimentResponse struct {
	Timestamp     time.Time              `json:"timestamp"`
	FearGreed     domain.FearGreed       `json:"fear_greed"`
	TrendingCoins []*domain.CoinAnalysis `json:"trending_coins"`
}

// handleSentiment serves the full per-coin analysis. 404 until the first
// full cycle has published.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.Read()
	if !ok || snap.LastFullUpdate == nil {
		s.writeError(w, http.StatusNotFound, "analysis not available yet")
		return
	}

	coins := make([]*domain.CoinAnalysis, 0, len(snap.Coins))
	for _, coin := range snap.Coins {
		coins = append(coins, coin)
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Symbol < coins[j].Symbol })

	s.writeJSON(w, http.StatusOK, sentimentResponse{
		Timestamp:     *snap.LastFullUpdate,
		FearGreed:     snap.FearGreed,
		TrendingCoins: coins,
	})
}

type scalpResponse struct {
	Timestamp         time.Time              `json:"timestamp"`
	Strategy          string                 `json:"strategy"`
	QualifiedCoins    []*domain.CoinAnalysis `json:"qualified_coins"`
	TotalCheckedInRun int                    `json:"total_checked_in_full_run"`
	TotalQualified    int                    `json:"total_qualified"`
}

// handleScalpSentiment serves the scalp-qualified subset. 503 until the
// first full cycle has published.
func (s *Server) handleScalpSentiment(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.store.Read()
	result, err := s.scalp.Filter(snap)
	if err == domain.ErrUninitialized {
		s.writeError(w, http.StatusServiceUnavailable, "analysis not available yet")
		return
	}
	if err != nil {
		s.logger.Error("scalp filter failed", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "analysis not available")
		return
	}

	s.writeJSON(w, http.StatusOK, scalpResponse{
		Timestamp:         *snap.LastFullUpdate,
		Strategy:          result.Strategy,
		QualifiedCoins:    result.Qualified,
		TotalCheckedInRun: result.TotalChecked,
		TotalQualified:    result.TotalQualified,
	})
}

type marketResponse struct {
	Timestamp time.Time                    `json:"timestamp"`
	Data      map[string]domain.MarketTick `json:"data"`
}

// handleMarket serves the raw ticker map keyed by trading pair. 503 until
// any cycle has published tickers.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.Read()
	if !ok || len(snap.Tickers) == 0 {
		s.writeError(w, http.StatusServiceUnavailable, "market data not available yet")
		return
	}

	ts := snap.FullStartedAt
	if snap.LastBasicUpdate != nil {
		ts = *snap.LastBasicUpdate
	}
	s.writeJSON(w, http.StatusOK, marketResponse{
		Timestamp: ts,
		Data:      snap.Tickers,
	})
}

type healthResponse struct {
	Status          usecase.HealthStatus `json:"status"`
	LastBasicUpdate *time.Time           `json:"last_basic_update"`
	LastFullUpdate  *time.Time           `json:"last_full_update"`
}

// handleHealth always answers 200; staleness is reported in the body so
// orchestrators can distinguish degraded from down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.store.Read()

	resp := healthResponse{Status: s.health.Evaluate(snap, s.timeNow())}
	if snap != nil {
		resp.LastBasicUpdate = snap.LastBasicUpdate
		resp.LastFullUpdate = snap.LastFullUpdate
	}
	s.writeJSON(w, http.StatusOK, resp)
}

const legalHTML = `<!DOCTYPE html>
<html>
<head><title>Legal Notice</title></head>
<body>
<h1>Legal Notice</h1>
<p>This service provides automated market analysis for informational
purposes only. Nothing here is financial advice. Trading cryptocurrencies
involves substantial risk of loss.</p>
</body>
</html>`

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(legalHTML))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
