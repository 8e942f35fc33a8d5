package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"qr-dashboard/internal/esp32"
	"qr-dashboard/internal/metrics"
	"qr-dashboard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBlankQR is returned by Submit for empty or whitespace-only input
var ErrBlankQR = errors.New("qr code is blank")

// Classifier interface for the classification device
type Classifier interface {
	Classify(ctx context.Context, qr string) (*esp32.Reply, error)
}

// Dashboard owns the dashboard state and applies submissions to it
type Dashboard struct {
	classifier Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	// slot admits one submission at a time; others queue on it
	slot    chan struct{}
	current atomic.Pointer[models.Snapshot]
}

// NewDashboard creates a dashboard service with an empty state.
// m may be nil.
func NewDashboard(classifier Classifier, m *metrics.Metrics, logger *zap.Logger) *Dashboard {
	d := &Dashboard{
		classifier: classifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		slot:       make(chan struct{}, 1),
	}
	d.current.Store(&models.Snapshot{})
	d.exportLights(models.IndicatorState{})
	return d
}

// Snapshot returns the current state. The result must not be modified.
func (d *Dashboard) Snapshot() *models.Snapshot {
	return d.current.Load()
}

// Submit sends qr to the device and replaces the state with the outcome.
//
// Blank input returns ErrBlankQR together with the unchanged snapshot. If ctx
// ends while waiting for an earlier submission, ctx.Err() is returned and
// nothing changes. Once the device call has started it runs to completion
// (bounded by esp32.RequestTimeout) even if ctx is cancelled. Device
// failures are not errors here: they are recorded in the returned snapshot.
func (d *Dashboard) Submit(ctx context.Context, qr string) (*models.Snapshot, error) {
	qr = strings.TrimSpace(qr)
	if qr == "" {
		d.metrics.ObserveRejected()
		return d.Snapshot(), ErrBlankQR
	}

	select {
	case d.slot <- struct{}{}:
	case <-ctx.Done():
		return d.Snapshot(), ctx.Err()
	}
	defer func() { <-d.slot }()

	d.metrics.SetInFlight(true)
	start := time.Now()
	reply, err := d.classifier.Classify(context.WithoutCancel(ctx), qr)
	elapsed := time.Since(start)
	d.metrics.SetInFlight(false)

	next := nextSnapshot(d.current.Load(), qr, reply, err, d.now())
	next.Attempt.ID = uuid.New().String()
	d.current.Store(next)

	d.metrics.ObserveAttempt(string(next.Attempt.Outcome), elapsed)
	d.exportLights(next.Indicators)

	fields := []zap.Field{
		zap.String("attempt_id", next.Attempt.ID),
		zap.String("qr", qr),
		zap.String("outcome", string(next.Attempt.Outcome)),
		zap.Duration("latency", elapsed),
	}
	if err != nil {
		d.logger.Warn("Classification failed", append(fields, zap.Error(err))...)
	} else {
		d.logger.Info("QR code classified", append(fields,
			zap.String("device_status", next.Attempt.DeviceStatus),
			zap.Int("position", next.Attempt.Position))...)
	}

	return next, nil
}

func (d *Dashboard) exportLights(s models.IndicatorState) {
	for n := 1; n <= models.PositionCount; n++ {
		d.metrics.SetLight(fmt.Sprintf("pos%d", n), s.Position(n))
	}
	d.metrics.SetLight("alerta", s.Alert)
}
