package models

import "time"

// Outcome is the result class of a classification attempt
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeInvalidResponse   Outcome = "invalid_response"
	OutcomeRequestError      Outcome = "request_error"
	OutcomeConnectionFailure Outcome = "connection_failure"
)

// StatusAwaiting is shown before any submission and after a blank one
const StatusAwaiting = "Awaiting submission"

// TimestampLayout is the HH:MM:SS layout used for the last update time
const TimestampLayout = "15:04:05"

var outcomeLabels = map[Outcome]string{
	OutcomeSuccess:           "✅ Success",
	OutcomeInvalidResponse:   "❌ Invalid response",
	OutcomeRequestError:      "❌ Request error",
	OutcomeConnectionFailure: "❌ Connection failure",
}

// Label returns the human-readable status label for the banner
func (o Outcome) Label() string {
	if label, ok := outcomeLabels[o]; ok {
		return label
	}
	return string(o)
}

// AttemptRecord describes the most recent completed submission
type AttemptRecord struct {
	ID           string    `json:"id"`
	QR           string    `json:"qr"`
	RawResponse  string    `json:"raw_response"`
	Outcome      Outcome   `json:"outcome"`
	DeviceStatus string    `json:"device_status,omitempty"` // reply "status", when one was decoded
	Position     int       `json:"position,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Timestamp formats UpdatedAt in local time as HH:MM:SS
func (a *AttemptRecord) Timestamp() string {
	return a.UpdatedAt.Local().Format(TimestampLayout)
}

// Snapshot is the complete dashboard state. A published snapshot is never
// modified; each submission replaces it with a new one.
type Snapshot struct {
	Indicators IndicatorState `json:"indicators"`
	Attempt    *AttemptRecord `json:"attempt,omitempty"` // nil until the first submission completes
}
