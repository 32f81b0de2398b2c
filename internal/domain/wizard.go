package domain

import (
	"fmt"
	"math"
)

// WizardStep is a state of the waste-logging wizard
type WizardStep string

const (
	StepSelectType   WizardStep = "select_type"
	StepSelectWeight WizardStep = "select_weight"
	StepReview       WizardStep = "review"
	StepSubmitted    WizardStep = "submitted"
)

// Wizard walks a user through logging one waste entry. The zero value is a
// wizard at StepSelectType. Going back keeps the data already entered.
type Wizard struct {
	Step      WizardStep `json:"step"`
	WasteType string     `json:"waste_type,omitempty"`
	Weight    float64    `json:"weight,omitempty"`
}

func (w *Wizard) step() WizardStep {
	if w.Step == "" {
		return StepSelectType
	}
	return w.Step
}

// Current returns the wizard step, defaulting to StepSelectType.
func (w *Wizard) Current() WizardStep {
	return w.step()
}

func (w *Wizard) require(step WizardStep, action string) error {
	if w.step() != step {
		return fmt.Errorf("%w: cannot %s in step %s", ErrInvalidTransition, action, w.step())
	}
	return nil
}

// SelectType records the chosen waste type. Allowed only while selecting a type.
func (w *Wizard) SelectType(wasteType string) error {
	if err := w.require(StepSelectType, "select type"); err != nil {
		return err
	}
	if wasteType == "" {
		return fmt.Errorf("%w: empty waste type", ErrInvalidTransition)
	}
	w.Step = StepSelectType
	w.WasteType = wasteType
	return nil
}

// SetWeight records the weight. Allowed only while entering a weight. Zero
// is accepted here but blocks Next.
func (w *Wizard) SetWeight(weightKg float64) error {
	if err := w.require(StepSelectWeight, "set weight"); err != nil {
		return err
	}
	if weightKg < 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return ErrInvalidWeight
	}
	w.Weight = weightKg
	return nil
}

// Next advances one step once the current step is filled in.
func (w *Wizard) Next() error {
	switch w.step() {
	case StepSelectType:
		if w.WasteType == "" {
			return fmt.Errorf("%w: no waste type selected", ErrInvalidTransition)
		}
		w.Step = StepSelectWeight
	case StepSelectWeight:
		if err := ValidateWeight(w.Weight); err != nil {
			return err
		}
		w.Step = StepReview
	default:
		return fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, w.step())
	}
	return nil
}

// Back returns to the previous step.
func (w *Wizard) Back() error {
	switch w.step() {
	case StepSelectWeight:
		w.Step = StepSelectType
	case StepReview:
		w.Step = StepSelectWeight
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, w.step())
	}
	return nil
}

// Submit moves a reviewed wizard to StepSubmitted and returns the submission
// for userID. Submitted is terminal until Reset.
func (w *Wizard) Submit(userID string) (WasteSubmission, error) {
	if err := w.require(StepReview, "submit"); err != nil {
		return WasteSubmission{}, err
	}
	w.Step = StepSubmitted
	return WasteSubmission{
		UserID:    userID,
		WasteType: w.WasteType,
		Weight:    w.Weight,
		Source:    "wizard",
	}, nil
}

// Reset clears the wizard for a new entry. Allowed from any step.
func (w *Wizard) Reset() {
	*w = Wizard{Step: StepSelectType}
}
