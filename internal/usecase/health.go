package usecase

import (
	"time"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

type HealthStatus string

const (
	HealthOK           HealthStatus = "ok"
	HealthInitializing HealthStatus = "initializing"
	HealthStaleData    HealthStatus = "stale_data"
)

// HealthMonitor derives service health purely from the snapshot's update
// timestamps. It keeps no state of its own.
type HealthMonitor struct {
	BasicStaleAfter time.Duration
	FullStaleAfter  time.Duration
}

func NewHealthMonitor(basicStaleAfter, fullStaleAfter time.Duration) *HealthMonitor {
	return &HealthMonitor{
		BasicStaleAfter: basicStaleAfter,
		FullStaleAfter:  fullStaleAfter,
	}
}

func (h *HealthMonitor) Evaluate(snap *domain.Snapshot, now time.Time) HealthStatus {
	if snap == nil || snap.LastBasicUpdate == nil || snap.LastFullUpdate == nil {
		return HealthInitializing
	}
	if now.Sub(*snap.LastBasicUpdate) > h.BasicStaleAfter {
		return HealthStaleData
	}
	if now.Sub(*snap.LastFullUpdate) > h.FullStaleAfter {
		return HealthStaleData
	}
	return HealthOK
}
