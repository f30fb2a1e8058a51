package wire

import (
	"encoding/json"

	"github.com/recipeserver/cloudcmd/internal/commandset"
)

// Submission is the encoded form of an editing collection.
type Submission struct {
	CloudCommands []CommandSet
	// Dropped lists the device models of sets left out because the server
	// accepts a single command set per submission.
	Dropped []string
}

// Encode produces the submission payload for sets. Only the first set is
// emitted, its steps renumbered 1..N in list order. An empty hex command is
// sent as DefaultHexCommand.
func Encode(sets []commandset.CommandSet) Submission {
	sub := Submission{CloudCommands: []CommandSet{}}
	if len(sets) == 0 {
		return sub
	}
	sub.CloudCommands = append(sub.CloudCommands, encodeSet(sets[0], true))
	for _, cs := range sets[1:] {
		sub.Dropped = append(sub.Dropped, cs.Model())
	}
	return sub
}

// Snapshot encodes every set as-is, keeping sequence numbers. It is used for
// local draft history, where nothing may be dropped.
func Snapshot(sets []commandset.CommandSet) []CommandSet {
	out := make([]CommandSet, 0, len(sets))
	for _, cs := range sets {
		out = append(out, encodeSet(cs, false))
	}
	return out
}

func encodeSet(cs commandset.CommandSet, resequence bool) CommandSet {
	hex := cs.HexCommand
	if hex == "" {
		hex = DefaultHexCommand
	}
	steps := cs.Steps
	if resequence {
		steps = steps.Resequence()
	}
	out := CommandSet{
		Model:      cs.Model(),
		HexCommand: hex,
		Steps:      make([]Step, 0, len(steps)),
	}
	for _, s := range steps {
		out.Steps = append(out.Steps, Step{StepNo: s.No, StepDescription: s.Description})
	}
	return out
}

// Marshal returns the JSON array for the cloud_commands field.
func (s Submission) Marshal() ([]byte, error) {
	return json.Marshal(s.CloudCommands)
}

// MarshalEnvelope returns {"cloud_commands": [...]} indented for files.
func (s Submission) MarshalEnvelope() ([]byte, error) {
	return json.MarshalIndent(Envelope{CloudCommands: s.CloudCommands}, "", "  ")
}
