package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recycle-rewards/internal/domain"
)

// Register creates an account and returns its session token
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "register user", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    res,
	})
}

// Logout ends the current session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionFrom(r.Context()).Token); err != nil {
		h.writeServiceError(w, r, "log out", err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "logged_out"})
}

// GetMe returns the session's user
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, userFrom(r.Context()))
}

// GetWasteTypes returns the recyclable waste types
func (h *Handler) GetWasteTypes(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Catalog().WasteTypes)
}

// GetBadges returns the badge catalog
func (h *Handler) GetBadges(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Catalog().Badges)
}

// GetQuizCatalog returns the quiz questions without their answers
func (h *Handler) GetQuizCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Questions(nil))
}

// GetRewards returns the rewards of a category with per-category counts
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Rewards(r.URL.Query().Get("category")))
}

// GetLeaderboard returns the ranked participants of a kind
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context(), r.URL.Query().Get("type"), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, r, "get leaderboard", err)
		return
	}
	h.writeSuccess(w, entries)
}

// GetLeaderboardCounts returns the number of participants per kind
func (h *Handler) GetLeaderboardCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.LeaderboardCounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "get leaderboard counts", err)
		return
	}
	h.writeSuccess(w, counts)
}

type logWasteRequest struct {
	WasteType string  `json:"waste_type"`
	Weight    float64 `json:"weight"`
}

// LogWaste records a collection for the session's user
func (h *Handler) LogWaste(w http.ResponseWriter, r *http.Request) {
	var req logWasteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.LogWaste(r.Context(), domain.WasteSubmission{
		UserID:    userFrom(r.Context()).ID,
		WasteType: req.WasteType,
		Weight:    req.Weight,
		Source:    "api",
	})
	if err != nil {
		h.writeServiceError(w, r, "log waste", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    res,
	})
}

// GetWasteLogs returns the user's most recent waste logs
func (h *Handler) GetWasteLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.WasteLogs(r.Context(), userFrom(r.Context()).ID, queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, r, "get waste logs", err)
		return
	}
	h.writeSuccess(w, logs)
}

// GetWizard returns the session's wizard state
func (h *Handler) GetWizard(w http.ResponseWriter, r *http.Request) {
	h.writeWizard(w, r, "get wizard", func(token string) (domain.Wizard, error) {
		return h.service.Wizard(r.Context(), token)
	})
}

type wizardTypeRequest struct {
	WasteType string `json:"waste_type"`
}

// WizardSelectType picks the waste type
func (h *Handler) WizardSelectType(w http.ResponseWriter, r *http.Request) {
	var req wizardTypeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeWizard(w, r, "select waste type", func(token string) (domain.Wizard, error) {
		return h.service.WizardSelectType(r.Context(), token, req.WasteType)
	})
}

type wizardWeightRequest struct {
	Weight float64 `json:"weight"`
}

// WizardSetWeight records the weight
func (h *Handler) WizardSetWeight(w http.ResponseWriter, r *http.Request) {
	var req wizardWeightRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeWizard(w, r, "set weight", func(token string) (domain.Wizard, error) {
		return h.service.WizardSetWeight(r.Context(), token, req.Weight)
	})
}

// WizardNext advances the wizard
func (h *Handler) WizardNext(w http.ResponseWriter, r *http.Request) {
	h.writeWizard(w, r, "advance wizard", func(token string) (domain.Wizard, error) {
		return h.service.WizardNext(r.Context(), token)
	})
}

// WizardBack returns to the previous step
func (h *Handler) WizardBack(w http.ResponseWriter, r *http.Request) {
	h.writeWizard(w, r, "move wizard back", func(token string) (domain.Wizard, error) {
		return h.service.WizardBack(r.Context(), token)
	})
}

// WizardReset starts a new entry
func (h *Handler) WizardReset(w http.ResponseWriter, r *http.Request) {
	h.writeWizard(w, r, "reset wizard", func(token string) (domain.Wizard, error) {
		return h.service.WizardReset(r.Context(), token)
	})
}

// WizardSubmit logs the reviewed entry
func (h *Handler) WizardSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.WizardSubmit(r.Context(), sessionFrom(r.Context()).Token)
	if err != nil {
		h.writeServiceError(w, r, "submit wizard", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    res,
	})
}

func (h *Handler) writeWizard(w http.ResponseWriter, r *http.Request, op string, fn func(token string) (domain.Wizard, error)) {
	wiz, err := fn(sessionFrom(r.Context()).Token)
	if err != nil {
		h.writeServiceError(w, r, op, err)
		return
	}
	h.writeSuccess(w, wiz)
}

// CheckReward reports whether the user can redeem a reward
func (h *Handler) CheckReward(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.CheckReward(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "rewardID"))
	if err != nil {
		h.writeServiceError(w, r, "check reward", err)
		return
	}
	h.writeSuccess(w, check)
}

// Redeem exchanges points for a reward
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Redeem(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "rewardID"))
	if err != nil {
		h.writeServiceError(w, r, "redeem reward", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    res,
	})
}

// GetRedemptions returns the user's redemption history
func (h *Handler) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Redemptions(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeServiceError(w, r, "get redemptions", err)
		return
	}
	h.writeSuccess(w, out)
}

// GetQuiz returns the questions, marking the ones the user completed
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Questions(userFrom(r.Context())))
}

// GetQuizAttempts returns the user's quiz history
func (h *Handler) GetQuizAttempts(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.QuizAttempts(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeServiceError(w, r, "get quiz attempts", err)
		return
	}
	h.writeSuccess(w, out)
}

type answerRequest struct {
	Selected *int `json:"selected"`
}

// AnswerQuiz scores an answer and credits first-time correct answers
func (h *Handler) AnswerQuiz(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.service.AnswerQuiz(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "questionID"), req.Selected)
	if err != nil {
		h.writeServiceError(w, r, "answer quiz", err)
		return
	}
	h.writeSuccess(w, res)
}

// GetDashboard returns the role specific dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeServiceError(w, r, "build dashboard", err)
		return
	}
	h.writeSuccess(w, d)
}

// GetBadgeBoard returns the user's badge progress
func (h *Handler) GetBadgeBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.BadgeBoard(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeServiceError(w, r, "get badge board", err)
		return
	}
	h.writeSuccess(w, board)
}
