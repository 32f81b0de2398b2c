package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-rewards/internal/domain"
)

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCatalog(), c)
}

func TestDefaultCatalogIsValid(t *testing.T) {
	assert.NoError(t, Validate(domain.DefaultCatalog()))
}

func TestLoad_OverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
waste_types:
  - id: plastic
    name: Plastic
    points_per_kg: 60
  - id: tetra
    name: Tetra Pak
    points_per_kg: 25
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.WasteTypes, 2)
	assert.Equal(t, 60.0, c.WasteTypes[0].PointsPerKg)
	assert.Equal(t, domain.DefaultCatalog().Badges, c.Badges)
	assert.Len(t, c.Rewards, 6)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero rate", "waste_types:\n  - {id: plastic, points_per_kg: 0}\n", "points_per_kg must be positive"},
		{"duplicate waste type", "waste_types:\n  - {id: a, points_per_kg: 1}\n  - {id: a, points_per_kg: 2}\n", "duplicate waste type"},
		{"unordered badges", "badges:\n  - {id: b, points_required: 500}\n  - {id: a, points_required: 0}\n", "ordered by points_required"},
		{"free reward", "rewards:\n  - {id: r, points_cost: 0, category: health}\n", "points_cost must be positive"},
		{"unknown category", "rewards:\n  - {id: r, points_cost: 10, category: toys}\n", "unknown category"},
		{"correct out of range", "questions:\n  - {id: q, options: [a, b], correct: 2}\n", "out of range"},
		{"malformed", "waste_types: [", "parsing catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
