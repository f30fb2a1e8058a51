package commandset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStepNotFound is returned when an operation names a sequence number that
// is not present in the list.
var ErrStepNotFound = errors.New("step not found")

// StepList is an ordered list of steps. Operations never mutate the receiver;
// they return a new list.
type StepList []Step

// Clone returns a copy of l that shares no backing array with it.
func (l StepList) Clone() StepList {
	if l == nil {
		return nil
	}
	out := make(StepList, len(l))
	copy(out, l)
	return out
}

func (l StepList) indexOf(no int) int {
	for i, s := range l {
		if s.No == no {
			return i
		}
	}
	return -1
}

// Insert places s at position s.No. Steps already at or after that number are
// shifted up by one. A number beyond the end of the list appends.
func (l StepList) Insert(s Step) StepList {
	if s.No < 1 {
		s.No = 1
	}
	if last := l.Last(); s.No > last+1 {
		s.No = last + 1
	}
	out := make(StepList, 0, len(l)+1)
	inserted := false
	for _, cur := range l {
		if !inserted && cur.No >= s.No {
			out = append(out, s)
			inserted = true
		}
		if cur.No >= s.No {
			cur.No++
		}
		out = append(out, cur)
	}
	if !inserted {
		out = append(out, s)
	}
	return out
}

// Edit replaces the description of step no. The sequence number is unchanged
// and any legacy action/details are dropped since they no longer describe it.
func (l StepList) Edit(no int, description string) (StepList, error) {
	i := l.indexOf(no)
	if i < 0 {
		return l, fmt.Errorf("edit step %d: %w", no, ErrStepNotFound)
	}
	out := l.Clone()
	out[i] = Step{No: no, Description: description}
	return out, nil
}

// Delete removes step no and decrements every later step so the list stays
// gap free. Relative order is preserved.
func (l StepList) Delete(no int) (StepList, error) {
	i := l.indexOf(no)
	if i < 0 {
		return l, fmt.Errorf("delete step %d: %w", no, ErrStepNotFound)
	}
	out := make(StepList, 0, len(l)-1)
	for j, s := range l {
		if j == i {
			continue
		}
		if s.No > no {
			s.No--
		}
		out = append(out, s)
	}
	return out, nil
}

// Last returns the highest sequence number in use, or 0 for an empty list.
func (l StepList) Last() int {
	last := 0
	for _, s := range l {
		if s.No > last {
			last = s.No
		}
	}
	return last
}

// Resequence renumbers the steps 1..N in their current order.
func (l StepList) Resequence() StepList {
	out := l.Clone()
	for i := range out {
		out[i].No = i + 1
	}
	return out
}

// Dense reports whether the sequence numbers are exactly 1..N in list order.
func (l StepList) Dense() bool {
	for i, s := range l {
		if s.No != i+1 {
			return false
		}
	}
	return true
}

// Commit checks every step has a description and returns the list
// renumbered 1..N.
func (l StepList) Commit() (StepList, error) {
	for i, s := range l {
		if strings.TrimSpace(s.Description) == "" {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("steps[%d].description", i),
				Message: fmt.Sprintf("step %d description required", s.No),
			}
		}
	}
	return l.Resequence(), nil
}

// Descriptions returns the step descriptions in list order.
func (l StepList) Descriptions() []string {
	out := make([]string, 0, len(l))
	for _, s := range l {
		out = append(out, s.Description)
	}
	return out
}

// FromDescriptions builds a dense list from plain descriptions.
func FromDescriptions(descs []string) StepList {
	out := make(StepList, 0, len(descs))
	for i, d := range descs {
		out = append(out, Step{No: i + 1, Description: d})
	}
	return out
}
