package domain

import (
	"fmt"
	"math"
	"time"
)

// WasteType is a recyclable material and its eco-point rate
type WasteType struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Icon        string   `json:"icon,omitempty" yaml:"icon"`
	PointsPerKg float64  `json:"points_per_kg" yaml:"points_per_kg"`
	Examples    []string `json:"examples,omitempty" yaml:"examples"`
	WeightTip   string   `json:"weight_tip,omitempty" yaml:"weight_tip"`
}

// WasteLogEntry is one recorded collection. Entries are never modified after
// they are created.
type WasteLogEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	WasteType     string    `json:"waste_type"`
	Weight        float64   `json:"weight"`
	PointsEarned  int64     `json:"points_earned"`
	CreatedAt     time.Time `json:"created_at"`
	ImpactMessage string    `json:"impact_message,omitempty"`
	Source        string    `json:"source,omitempty"`
}

// WasteSubmission is a request to log collected waste
type WasteSubmission struct {
	UserID    string  `json:"user_id"`
	WasteType string  `json:"waste_type"`
	Weight    float64 `json:"weight"`
	Source    string  `json:"source,omitempty"`
}

// BatchWasteSubmission represents multiple waste submissions
type BatchWasteSubmission struct {
	Submissions []WasteSubmission `json:"submissions"`
}

// WasteLogResult is what a successful log returns to the caller
type WasteLogResult struct {
	Entry     WasteLogEntry `json:"entry"`
	User      *User         `json:"user"`
	NewBadges []Badge       `json:"new_badges"`
}

// CalculatePoints converts a weight of the given waste type into eco-points,
// rounding half up.
func CalculatePoints(types []WasteType, wasteTypeID string, weightKg float64) (int64, error) {
	wt, ok := FindWasteType(types, wasteTypeID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownWasteType, wasteTypeID)
	}
	if weightKg < 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return 0, ErrInvalidWeight
	}
	return roundHalfUp(weightKg * wt.PointsPerKg), nil
}

// FindWasteType looks up a waste type by id
func FindWasteType(types []WasteType, id string) (WasteType, bool) {
	for _, wt := range types {
		if wt.ID == id {
			return wt, true
		}
	}
	return WasteType{}, false
}

// ValidateWeight rejects weights that cannot be logged
func ValidateWeight(weightKg float64) error {
	if !(weightKg > 0) || math.IsInf(weightKg, 0) {
		return ErrInvalidWeight
	}
	return nil
}

func roundHalfUp(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Floor(v + 0.5))
}
