package service

import (
	"context"
	"fmt"

	"github.com/recycle-rewards/internal/domain"
)

// WizardSubmitResult is returned when the wizard submits its entry
type WizardSubmitResult struct {
	Wizard domain.Wizard          `json:"wizard"`
	Log    *domain.WasteLogResult `json:"log"`
}

// Wizard returns the current wizard state of a session
func (s *RewardsService) Wizard(ctx context.Context, token string) (domain.Wizard, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return domain.Wizard{}, err
	}
	w := sess.Wizard
	w.Step = w.Current()
	return w, nil
}

// WizardSelectType picks the waste type. Unknown types are rejected.
func (s *RewardsService) WizardSelectType(ctx context.Context, token, wasteType string) (domain.Wizard, error) {
	if wasteType != "" {
		if _, ok := s.catalog.WasteType(wasteType); !ok {
			return domain.Wizard{}, fmt.Errorf("%w: %q", domain.ErrUnknownWasteType, wasteType)
		}
	}
	return s.stepWizard(ctx, token, func(w *domain.Wizard) error {
		return w.SelectType(wasteType)
	})
}

// WizardSetWeight records the weight in kilograms
func (s *RewardsService) WizardSetWeight(ctx context.Context, token string, weightKg float64) (domain.Wizard, error) {
	return s.stepWizard(ctx, token, func(w *domain.Wizard) error {
		return w.SetWeight(weightKg)
	})
}

// WizardNext advances the wizard
func (s *RewardsService) WizardNext(ctx context.Context, token string) (domain.Wizard, error) {
	return s.stepWizard(ctx, token, (*domain.Wizard).Next)
}

// WizardBack returns to the previous step, keeping entered data
func (s *RewardsService) WizardBack(ctx context.Context, token string) (domain.Wizard, error) {
	return s.stepWizard(ctx, token, (*domain.Wizard).Back)
}

// WizardReset starts a new entry
func (s *RewardsService) WizardReset(ctx context.Context, token string) (domain.Wizard, error) {
	return s.stepWizard(ctx, token, func(w *domain.Wizard) error {
		w.Reset()
		return nil
	})
}

// WizardSubmit logs the reviewed entry. When logging fails the wizard stays
// in review so the user can retry.
func (s *RewardsService) WizardSubmit(ctx context.Context, token string) (*WizardSubmitResult, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}

	next := sess.Wizard
	sub, err := next.Submit(sess.UserID)
	if err != nil {
		return nil, err
	}
	res, err := s.LogWaste(ctx, sub)
	if err != nil {
		return nil, err
	}

	sess.Wizard = next
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		// The entry is logged; only the wizard position is lost
		s.logger.Warn("failed to save wizard state", "user_id", sess.UserID, "error", err)
	}
	return &WizardSubmitResult{Wizard: next, Log: res}, nil
}

// stepWizard applies fn to a copy of the session's wizard and saves it only
// when fn succeeds.
func (s *RewardsService) stepWizard(ctx context.Context, token string, fn func(*domain.Wizard) error) (domain.Wizard, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return domain.Wizard{}, err
	}

	next := sess.Wizard
	if err := fn(&next); err != nil {
		return domain.Wizard{}, err
	}
	next.Step = next.Current()

	sess.Wizard = next
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return domain.Wizard{}, fmt.Errorf("saving wizard state: %w", err)
	}
	return next, nil
}
