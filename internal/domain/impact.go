package domain

import (
	"fmt"
	"math"
)

const (
	co2KgPerWasteKg = 0.5
	wasteKgPerChild = 4.0
)

// ImpactMessage describes what a single collection achieved.
func ImpactMessage(wasteType string, weightKg float64) string {
	switch {
	case wasteType == "plastic" && weightKg >= 2:
		return fmt.Sprintf("Amazing! You've collected enough plastic to protect %d children's water bottles from pollution! 🌊", int64(math.Floor(weightKg*2)))
	case wasteType == "cans" && weightKg >= 1:
		return fmt.Sprintf("Great work! You've saved enough aluminum to make %d new cans without mining! ⚡", int64(math.Floor(weightKg*3)))
	case wasteType == "paper" && weightKg >= 5:
		return fmt.Sprintf("Wonderful! You've saved enough paper to protect %d tree branches! 🌳", int64(math.Floor(weightKg/5)))
	case wasteType == "ewaste" && weightKg >= 0.5:
		return fmt.Sprintf("Excellent! You've prevented toxic materials from harming %d square meters of soil! 🌱", int64(math.Floor(weightKg*20)))
	}
	return "Every kilogram you collect makes our planet healthier for children everywhere! 🌍"
}

// TotalImpactMessage describes what a cumulative total achieved.
func TotalImpactMessage(totalKg float64) string {
	switch {
	case totalKg >= 50:
		return fmt.Sprintf("Amazing! You've collected enough plastic to protect %d children's water bottles! 🌟", int64(math.Floor(totalKg/5)))
	case totalKg >= 20:
		return fmt.Sprintf("Great work! You've saved enough materials to make %d school notebooks! 📚", int64(math.Floor(totalKg/2)))
	case totalKg >= 5:
		return "Good start! You've collected enough to prevent 1 plastic bottle from reaching the ocean! 🌊"
	}
	return "Every piece of waste you collect makes a difference! Keep going! 💪"
}

// Impact summarizes the environmental effect of everything a user collected
type Impact struct {
	TotalWaste       float64 `json:"total_waste"`
	CO2Saved         float64 `json:"co2_saved"`
	ChildrenImpacted int64   `json:"children_impacted"`
	Message          string  `json:"message"`
}

// NewImpact derives the impact banner for a total weight in kilograms.
func NewImpact(totalKg float64) Impact {
	return Impact{
		TotalWaste:       round1(totalKg),
		CO2Saved:         round1(totalKg * co2KgPerWasteKg),
		ChildrenImpacted: int64(math.Floor(totalKg / wasteKgPerChild)),
		Message:          TotalImpactMessage(totalKg),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
