package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImpactMessage(t *testing.T) {
	assert.Contains(t, ImpactMessage("plastic", 2.5), "protect 5 children's water bottles")
	assert.Contains(t, ImpactMessage("cans", 1.8), "make 5 new cans")
	assert.Contains(t, ImpactMessage("paper", 10), "protect 2 tree branches")
	assert.Contains(t, ImpactMessage("ewaste", 0.5), "harming 10 square meters")
	assert.Contains(t, ImpactMessage("plastic", 1.9), "Every kilogram")
	assert.Contains(t, ImpactMessage("glass", 100), "Every kilogram")
}

func TestTotalImpactMessage(t *testing.T) {
	assert.Contains(t, TotalImpactMessage(55), "protect 11 children's water bottles")
	assert.Contains(t, TotalImpactMessage(45.5), "make 22 school notebooks")
	assert.Contains(t, TotalImpactMessage(5), "Good start")
	assert.Contains(t, TotalImpactMessage(4.9), "Keep going")
}

func TestNewImpact(t *testing.T) {
	im := NewImpact(46)
	assert.Equal(t, 46.0, im.TotalWaste)
	assert.Equal(t, 23.0, im.CO2Saved)
	assert.Equal(t, int64(11), im.ChildrenImpacted)
	assert.Contains(t, im.Message, "make 23 school notebooks")
}
