package models

import (
	"encoding/json"
	"fmt"
)

// PositionCount is the number of sorting positions the device can report
const PositionCount = 6

// IndicatorState holds the inferred on/off state of the device's signal lights
type IndicatorState struct {
	Positions [PositionCount]bool // index 0 is position 1
	Alert     bool
}

// Light is a single indicator as shown on the dashboard
type Light struct {
	Label string `json:"label"`
	On    bool   `json:"on"`
}

// Reset turns every light off
func (s *IndicatorState) Reset() {
	*s = IndicatorState{}
}

// SetPosition turns on the light for position n (1-6).
// It reports false and changes nothing when n is out of range.
func (s *IndicatorState) SetPosition(n int) bool {
	if n < 1 || n > PositionCount {
		return false
	}
	s.Positions[n-1] = true
	return true
}

// Position reports whether the light for position n is on
func (s IndicatorState) Position(n int) bool {
	if n < 1 || n > PositionCount {
		return false
	}
	return s.Positions[n-1]
}

// Lights returns the seven indicators in display order
func (s IndicatorState) Lights() []Light {
	lights := make([]Light, 0, PositionCount+1)
	for i, on := range s.Positions {
		lights = append(lights, Light{Label: fmt.Sprintf("Position %d", i+1), On: on})
	}
	return append(lights, Light{Label: "⚠️ Alert", On: s.Alert})
}

type indicatorFlags struct {
	Pos1   bool `json:"pos1"`
	Pos2   bool `json:"pos2"`
	Pos3   bool `json:"pos3"`
	Pos4   bool `json:"pos4"`
	Pos5   bool `json:"pos5"`
	Pos6   bool `json:"pos6"`
	Alerta bool `json:"alerta"`
}

// MarshalJSON keeps the device's flag names (pos1..pos6, alerta)
func (s IndicatorState) MarshalJSON() ([]byte, error) {
	return json.Marshal(indicatorFlags{
		Pos1:   s.Positions[0],
		Pos2:   s.Positions[1],
		Pos3:   s.Positions[2],
		Pos4:   s.Positions[3],
		Pos5:   s.Positions[4],
		Pos6:   s.Positions[5],
		Alerta: s.Alert,
	})
}

// UnmarshalJSON reads the pos1..pos6/alerta form written by MarshalJSON
func (s *IndicatorState) UnmarshalJSON(data []byte) error {
	var f indicatorFlags
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = IndicatorState{
		Positions: [PositionCount]bool{f.Pos1, f.Pos2, f.Pos3, f.Pos4, f.Pos5, f.Pos6},
		Alert:     f.Alerta,
	}
	return nil
}
