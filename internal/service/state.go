package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"qr-dashboard/internal/esp32"
	"qr-dashboard/internal/models"
)

// RawInvalidResponse is shown when the device answers 200 with an unusable body
const RawInvalidResponse = "invalid response from device"

// nextSnapshot derives the state that follows one completed device call.
//
// Any reply that parses as JSON resets all seven lights first; a usable one
// then sets at most one, an unusable one raises the alert. The other failure
// branches only raise the alert and position lights keep their previous value.
func nextSnapshot(prev *models.Snapshot, qr string, reply *esp32.Reply, err error, now time.Time) *models.Snapshot {
	next := &models.Snapshot{Indicators: prev.Indicators}
	attempt := &models.AttemptRecord{
		QR:        qr,
		UpdatedAt: now,
	}

	var statusErr *esp32.StatusError
	switch {
	case err == nil:
		next.Indicators.Reset()
		if reply.Status == esp32.StatusOK {
			if next.Indicators.SetPosition(reply.Position) {
				attempt.Position = reply.Position
			}
		} else if strings.Contains(reply.Status, "invalid") {
			next.Indicators.Alert = true
		}
		// any other status leaves every light off
		attempt.Outcome = models.OutcomeSuccess
		attempt.RawResponse = reply.Pretty
		attempt.DeviceStatus = reply.Status

	case errors.Is(err, esp32.ErrUnusableReply):
		next.Indicators.Reset()
		next.Indicators.Alert = true
		attempt.Outcome = models.OutcomeInvalidResponse
		attempt.RawResponse = RawInvalidResponse

	case errors.Is(err, esp32.ErrMalformedReply):
		next.Indicators.Alert = true
		attempt.Outcome = models.OutcomeInvalidResponse
		attempt.RawResponse = RawInvalidResponse

	case errors.As(err, &statusErr):
		next.Indicators.Alert = true
		attempt.Outcome = models.OutcomeRequestError
		attempt.RawResponse = fmt.Sprintf("HTTP error: %d", statusErr.Code)

	default:
		next.Indicators.Alert = true
		attempt.Outcome = models.OutcomeConnectionFailure
		attempt.RawResponse = err.Error()
		if attempt.RawResponse == "" {
			attempt.RawResponse = "connection failure"
		}
	}

	next.Attempt = attempt
	return next
}
