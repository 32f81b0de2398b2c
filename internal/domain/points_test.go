package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = []WasteType{
	{ID: "plastic", Name: "Plastic", PointsPerKg: 50},
	{ID: "cans", Name: "Cans", PointsPerKg: 80},
}

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name   string
		typeID string
		weight float64
		want   int64
	}{
		{"plastic 2.5kg", "plastic", 2.5, 125},
		{"cans 0.3kg", "cans", 0.3, 24},
		{"zero weight", "plastic", 0, 0},
		{"rounds half up", "plastic", 0.01, 1},
		{"rounds down below half", "plastic", 0.009, 0},
		{"cans 1.8kg", "cans", 1.8, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculatePoints(testRates, tt.typeID, tt.weight)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculatePoints_UnknownType(t *testing.T) {
	_, err := CalculatePoints(testRates, "styrofoam", 1)
	assert.ErrorIs(t, err, ErrUnknownWasteType)
	assert.True(t, IsValidationError(err))
}

func TestCalculatePoints_InvalidWeight(t *testing.T) {
	for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := CalculatePoints(testRates, "plastic", w)
		assert.ErrorIs(t, err, ErrInvalidWeight, "weight %v", w)
	}
}

func TestCalculatePoints_NeverNegativeAndMatchesRounding(t *testing.T) {
	for _, wt := range DefaultCatalog().WasteTypes {
		for w := 0.0; w < 20; w += 0.37 {
			got, err := CalculatePoints(DefaultCatalog().WasteTypes, wt.ID, w)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, int64(0))
			assert.Equal(t, int64(math.Floor(w*wt.PointsPerKg+0.5)), got)
		}
	}
}

func TestValidateWeight(t *testing.T) {
	assert.NoError(t, ValidateWeight(0.1))
	assert.ErrorIs(t, ValidateWeight(0), ErrInvalidWeight)
	assert.ErrorIs(t, ValidateWeight(-2), ErrInvalidWeight)
	assert.ErrorIs(t, ValidateWeight(math.NaN()), ErrInvalidWeight)
}
