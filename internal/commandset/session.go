package commandset

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxSets caps how many command sets an editing session may hold.
// Submission only carries one set, so the editor allows one by default.
const DefaultMaxSets = 1

var (
	// ErrSessionFull is returned when adding a set would exceed the session cap.
	ErrSessionFull = errors.New("command set limit reached")
	// ErrSetNotFound is returned when an action names a device model the
	// session does not hold.
	ErrSetNotFound = errors.New("command set not found")
)

// Session is the immutable editing state for one recipe submission.
type Session struct {
	Sets    []CommandSet
	MaxSets int
}

// NewSession returns an empty session. A non-positive max uses DefaultMaxSets.
func NewSession(maxSets int) Session {
	if maxSets <= 0 {
		maxSets = DefaultMaxSets
	}
	return Session{MaxSets: maxSets}
}

// Load starts a session from existing sets, e.g. a recipe fetched for editing.
// Sets over the cap are kept so validation and submission can report them.
func Load(sets []CommandSet, maxSets int) Session {
	s := NewSession(maxSets)
	s.Sets = cloneSets(sets)
	return s
}

func cloneSets(sets []CommandSet) []CommandSet {
	if sets == nil {
		return nil
	}
	out := make([]CommandSet, len(sets))
	for i, cs := range sets {
		out[i] = cs.Clone()
	}
	return out
}

// Find returns the index of the set for model, or -1.
func (s Session) Find(model string) int {
	model = strings.TrimSpace(model)
	for i, cs := range s.Sets {
		if cs.Model() == model {
			return i
		}
	}
	return -1
}

// Action is a single edit applied by Reduce.
type Action interface {
	apply(s Session) (Session, error)
}

// Reduce applies a to s and returns the resulting session. s is never modified.
func Reduce(s Session, a Action) (Session, error) {
	next := Session{Sets: cloneSets(s.Sets), MaxSets: s.MaxSets}
	if next.MaxSets <= 0 {
		next.MaxSets = DefaultMaxSets
	}
	out, err := a.apply(next)
	if err != nil {
		return s, err
	}
	return out, nil
}

// ReduceAll applies actions in order, stopping at the first error.
func ReduceAll(s Session, actions ...Action) (Session, error) {
	var err error
	for _, a := range actions {
		if s, err = Reduce(s, a); err != nil {
			return s, err
		}
	}
	return s, nil
}

// AddSet adds an empty command set for a device model.
type AddSet struct {
	Model      string
	HexCommand string
}

func (a AddSet) apply(s Session) (Session, error) {
	cs := CommandSet{DeviceModel: a.Model, HexCommand: a.HexCommand}
	if cs.Model() == "" {
		return s, &ValidationError{Field: "model", Message: MsgDeviceModelRequired}
	}
	if s.Find(cs.Model()) >= 0 {
		return s, &ValidationError{Field: "model", Message: fmt.Sprintf("%s %q", MsgDuplicateModel, cs.Model())}
	}
	if len(s.Sets) >= s.MaxSets {
		return s, fmt.Errorf("add %q: %w (max %d)", cs.Model(), ErrSessionFull, s.MaxSets)
	}
	cs.DeviceModel = cs.Model()
	s.Sets = append(s.Sets, cs)
	return s, nil
}

// RemoveSet drops the command set for a device model.
type RemoveSet struct{ Model string }

func (a RemoveSet) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("remove %q: %w", a.Model, ErrSetNotFound)
	}
	s.Sets = append(s.Sets[:i], s.Sets[i+1:]...)
	return s, nil
}

// SetHex replaces the hex command of a set.
type SetHex struct {
	Model      string
	HexCommand string
}

func (a SetHex) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("set hex %q: %w", a.Model, ErrSetNotFound)
	}
	s.Sets[i].HexCommand = a.HexCommand
	return s, nil
}

// AddStep inserts a step after the given sequence number. A negative After
// appends to the end of the list.
type AddStep struct {
	Model       string
	After       int
	Description string
}

func (a AddStep) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("add step to %q: %w", a.Model, ErrSetNotFound)
	}
	after := a.After
	if after < 0 {
		after = s.Sets[i].Steps.Last()
	}
	step := NewStep(after)
	step.Description = a.Description
	s.Sets[i].Steps = s.Sets[i].Steps.Insert(step)
	return s, nil
}

// EditStep replaces the description of a step.
type EditStep struct {
	Model       string
	No          int
	Description string
}

func (a EditStep) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("edit step of %q: %w", a.Model, ErrSetNotFound)
	}
	steps, err := s.Sets[i].Steps.Edit(a.No, a.Description)
	if err != nil {
		return s, err
	}
	s.Sets[i].Steps = steps
	return s, nil
}

// DeleteStep removes a step and closes the gap it leaves.
type DeleteStep struct {
	Model string
	No    int
}

func (a DeleteStep) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("delete step of %q: %w", a.Model, ErrSetNotFound)
	}
	steps, err := s.Sets[i].Steps.Delete(a.No)
	if err != nil {
		return s, err
	}
	s.Sets[i].Steps = steps
	return s, nil
}

// ClearSteps removes every step from a set.
type ClearSteps struct{ Model string }

func (a ClearSteps) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("clear steps of %q: %w", a.Model, ErrSetNotFound)
	}
	s.Sets[i].Steps = nil
	return s, nil
}

// ReplaceSteps swaps a set's steps for a dense list built from descriptions.
type ReplaceSteps struct {
	Model        string
	Descriptions []string
}

func (a ReplaceSteps) apply(s Session) (Session, error) {
	i := s.Find(a.Model)
	if i < 0 {
		return s, fmt.Errorf("replace steps of %q: %w", a.Model, ErrSetNotFound)
	}
	s.Sets[i].Steps = FromDescriptions(a.Descriptions)
	return s, nil
}

// Commit validates every set's steps and renumbers them 1..N.
func (s Session) Commit() (Session, error) {
	out := Session{Sets: cloneSets(s.Sets), MaxSets: s.MaxSets}
	for i := range out.Sets {
		steps, err := out.Sets[i].Steps.Commit()
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("cloud_commands[%d].%s", i, ve.Field)
			}
			return s, err
		}
		out.Sets[i].Steps = steps
	}
	return out, nil
}
