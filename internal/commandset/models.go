// Package commandset models per-device cloud command sets: an ordered list of
// instruction steps paired with a device model and a hex command string.
package commandset

import "strings"

// Step is a single instruction within a StepList. No is 1-based.
type Step struct {
	No          int
	Description string
	// Action and Details are only set for steps loaded from the legacy
	// {step, action, details} wire shape.
	Action  string
	Details string
}

// LegacyStep builds a Step from the legacy action/details pair.
func LegacyStep(no int, action, details string) Step {
	return Step{
		No:          no,
		Description: action + ": " + details,
		Action:      action,
		Details:     details,
	}
}

// NewStep returns an empty step positioned directly after the given sequence number.
func NewStep(after int) Step {
	if after < 0 {
		after = 0
	}
	return Step{No: after + 1}
}

// CommandSet groups the steps a single device model executes.
type CommandSet struct {
	DeviceModel string
	HexCommand  string
	Steps       StepList
}

// Clone returns a deep copy of cs.
func (cs CommandSet) Clone() CommandSet {
	cs.Steps = cs.Steps.Clone()
	return cs
}

// Model returns the trimmed device model identifier.
func (cs CommandSet) Model() string {
	return strings.TrimSpace(cs.DeviceModel)
}
