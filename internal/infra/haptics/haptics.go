// Package haptics emits feedback events for successful local mutation steps.
// The BFA cannot vibrate a phone; it records the event so the app can replay
// it from the response envelope, and counts it for observability.
package haptics

import (
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/port"
	"go.uber.org/zap"
)

// Emitter implements port.Feedback.
type Emitter struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEmitter creates a feedback emitter.
func NewEmitter(logger *zap.Logger, metrics *observability.Metrics) *Emitter {
	return &Emitter{logger: logger, metrics: metrics}
}

// Impact records one feedback event. Fire and forget; never coupled to
// whether the matching remote call succeeds.
func (e *Emitter) Impact(style port.HapticStyle) {
	e.metrics.IncrHaptic(string(style))
	e.logger.Debug("haptic feedback", zap.String("style", string(style)))
}
