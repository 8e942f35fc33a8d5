package handler

import (
	"fmt"

	"qr-dashboard/internal/models"
)

// BlankNotice is shown when the operator submits an empty QR code
const BlankNotice = "⚠️ Please enter a QR code."

// BusyNotice is shown when a submission gave up waiting for an earlier one
const BusyNotice = "⚠️ The device is busy with another QR code, please try again."

// Colors for lit and unlit indicators
const (
	colorOn  = "#4CAF50"
	colorOff = "#9E9E9E"
)

// View is everything the dashboard page renders
type View struct {
	Banner     string                `json:"banner"`
	Response   string                `json:"response"`
	Notice     string                `json:"notice,omitempty"`
	QR         string                `json:"qr,omitempty"` // value kept in the input box
	Indicators models.IndicatorState `json:"indicators"`
	Lights     []Indicator           `json:"lights"`
	Attempt    *models.AttemptRecord `json:"attempt,omitempty"`
}

// Indicator is one rendered light
type Indicator struct {
	models.Light
	Color string `json:"color"`
}

// NewView builds the page for a snapshot
func NewView(s *models.Snapshot) View {
	v := View{
		Banner:     models.StatusAwaiting,
		Indicators: s.Indicators,
		Attempt:    s.Attempt,
	}

	for _, light := range s.Indicators.Lights() {
		color := colorOff
		if light.On {
			color = colorOn
		}
		v.Lights = append(v.Lights, Indicator{Light: light, Color: color})
	}

	if a := s.Attempt; a != nil {
		v.Banner = fmt.Sprintf("%s | Last update: %s", a.Outcome.Label(), a.Timestamp())
		v.Response = fmt.Sprintf("QR sent: %s\nDevice response:\n%s", a.QR, a.RawResponse)
	}

	return v
}

// blank turns the view into the answer for a rejected empty submission
func (v View) blank() View {
	v.Banner = models.StatusAwaiting
	v.Notice = BlankNotice
	v.Response = BlankNotice
	v.QR = ""
	return v
}

// busy keeps the current state and tells the operator the QR code was not sent
func (v View) busy() View {
	v.Notice = BusyNotice
	v.Response = BusyNotice
	return v
}
