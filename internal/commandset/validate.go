package commandset

import (
	"errors"
	"fmt"
)

// Validation messages surfaced to the user.
const (
	MsgDeviceModelRequired = "device model required"
	MsgStepsRequired       = "at least one step required"
	MsgDuplicateModel      = "duplicate device model"
	MsgModelNotApproved    = "device model not approved"
)

// ValidationError is a local, recoverable problem with the edited command sets.
type ValidationError struct {
	// Field is a dotted path to the offending value, e.g. "cloud_commands[1].model".
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ModelChecker reports whether a device model may be used.
type ModelChecker interface {
	IsApproved(model string) bool
}

// Validate checks a single command set.
func (cs CommandSet) Validate() error {
	return validateAt(cs, 0)
}

func validateAt(cs CommandSet, idx int) error {
	prefix := fmt.Sprintf("cloud_commands[%d]", idx)
	if cs.Model() == "" {
		return &ValidationError{Field: prefix + ".model", Message: MsgDeviceModelRequired}
	}
	if len(cs.Steps) == 0 {
		return &ValidationError{Field: prefix + ".steps", Message: MsgStepsRequired}
	}
	return nil
}

// ValidateAll gates submission of the full editing collection. Each set is
// checked in order, then the whole collection is checked for duplicate device
// models. The duplicate check sees every set, including those a submission
// would later drop. A nil checker skips the approved-model check.
func ValidateAll(sets []CommandSet, checker ModelChecker) error {
	for i, cs := range sets {
		if err := validateAt(cs, i); err != nil {
			return err
		}
	}
	seen := make(map[string]int, len(sets))
	for i, cs := range sets {
		m := cs.Model()
		if first, ok := seen[m]; ok {
			return &ValidationError{
				Field:   fmt.Sprintf("cloud_commands[%d].model", i),
				Message: fmt.Sprintf("%s %q (also at index %d)", MsgDuplicateModel, m, first),
			}
		}
		seen[m] = i
	}
	if checker == nil {
		return nil
	}
	for i, cs := range sets {
		if !checker.IsApproved(cs.Model()) {
			return &ValidationError{
				Field:   fmt.Sprintf("cloud_commands[%d].model", i),
				Message: fmt.Sprintf("%s %q", MsgModelNotApproved, cs.Model()),
			}
		}
	}
	return nil
}
