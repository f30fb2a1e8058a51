package commandset

import (
	"errors"
	"strings"
	"testing"
)

type approvedSet map[string]bool

func (a approvedSet) IsApproved(m string) bool { return a[m] }

func oneStep() StepList { return FromDescriptions([]string{"heat: 180C"}) }

func TestValidateEmptyModelReportsModelFirst(t *testing.T) {
	err := CommandSet{DeviceModel: "", Steps: nil}.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Message != MsgDeviceModelRequired {
		t.Fatalf("expected device model error, got %q", ve.Message)
	}
}

func TestValidateEmptySteps(t *testing.T) {
	err := CommandSet{DeviceModel: "M1"}.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != MsgStepsRequired {
		t.Fatalf("expected steps error, got %v", err)
	}
}

func TestValidateAllDuplicateBeforeTruncation(t *testing.T) {
	sets := []CommandSet{
		{DeviceModel: "ABC", Steps: oneStep()},
		{DeviceModel: "ABC", Steps: oneStep()},
	}
	err := ValidateAll(sets, nil)
	if err == nil || !strings.Contains(err.Error(), MsgDuplicateModel) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestValidateAllDuplicateIgnoresSurroundingSpace(t *testing.T) {
	sets := []CommandSet{
		{DeviceModel: "ABC", Steps: oneStep()},
		{DeviceModel: " ABC ", Steps: oneStep()},
	}
	if err := ValidateAll(sets, nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestValidateAllApprovedModels(t *testing.T) {
	sets := []CommandSet{{DeviceModel: "M2", Steps: oneStep()}}
	if err := ValidateAll(sets, approvedSet{"M1": true}); err == nil || !strings.Contains(err.Error(), MsgModelNotApproved) {
		t.Fatalf("expected not approved error, got %v", err)
	}
	if err := ValidateAll(sets, approvedSet{"M2": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAllOK(t *testing.T) {
	sets := []CommandSet{
		{DeviceModel: "A", Steps: oneStep()},
		{DeviceModel: "B", Steps: oneStep()},
	}
	if err := ValidateAll(sets, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
