// Package wire converts between command sets and the recipe server's
// cloud_commands JSON shapes.
//
// Two element shapes exist. The legacy shape lists {step, action, details}
// commands; the current shape carries hex_command and {stepNo,
// stepDescription} steps. Decoding accepts either, as an object or an array;
// encoding always produces the current shape.
package wire

import "github.com/recipeserver/cloudcmd/internal/commandset"

// DefaultHexCommand is sent when a command set carries no hex command.
const DefaultHexCommand = ""

// Format identifies which element shape was decoded.
type Format int

const (
	// FormatLegacy is [{model, commands:[{step, action, details}]}].
	FormatLegacy Format = iota + 1
	// FormatCurrent is {model, hex_command, steps:[{stepNo, stepDescription}]}.
	FormatCurrent
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// LegacyCommand is one step in the legacy shape.
type LegacyCommand struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

// LegacySet is a legacy command set element.
type LegacySet struct {
	Model    string          `json:"model"`
	Commands []LegacyCommand `json:"commands"`
}

// Step is one step in the current shape.
type Step struct {
	StepNo          int    `json:"stepNo"`
	StepDescription string `json:"stepDescription"`
}

// CommandSet is a current-shape element and the unit sent on submission.
type CommandSet struct {
	Model      string `json:"model"`
	HexCommand string `json:"hex_command"`
	Steps      []Step `json:"steps"`
}

// Envelope wraps the payload under the field name the server expects.
type Envelope struct {
	CloudCommands []CommandSet `json:"cloud_commands"`
}

// Element is one decoded array entry. Exactly one of Legacy and Current is set,
// matching Format.
type Element struct {
	Format  Format
	Legacy  *LegacySet
	Current *CommandSet
}

// ToCommandSet converts e to the internal representation.
func (e Element) ToCommandSet() commandset.CommandSet {
	switch e.Format {
	case FormatLegacy:
		cs := commandset.CommandSet{
			DeviceModel: e.Legacy.Model,
			HexCommand:  DefaultHexCommand,
		}
		for _, c := range e.Legacy.Commands {
			cs.Steps = append(cs.Steps, commandset.LegacyStep(c.Step, c.Action, c.Details))
		}
		return cs
	default:
		cs := commandset.CommandSet{
			DeviceModel: e.Current.Model,
			HexCommand:  e.Current.HexCommand,
		}
		for _, s := range e.Current.Steps {
			cs.Steps = append(cs.Steps, commandset.Step{No: s.StepNo, Description: s.StepDescription})
		}
		return cs
	}
}
