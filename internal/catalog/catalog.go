// Package catalog loads the static reference data: waste types, badges,
// rewards and quiz questions.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/recycle-rewards/internal/domain"
)

// Load reads a catalog from a YAML file. An empty path returns the built-in
// catalog. Sections missing from the file fall back to the built-in ones.
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	def := domain.DefaultCatalog()
	if len(c.WasteTypes) == 0 {
		c.WasteTypes = def.WasteTypes
	}
	if len(c.Badges) == 0 {
		c.Badges = def.Badges
	}
	if len(c.Rewards) == 0 {
		c.Rewards = def.Rewards
	}
	if len(c.Questions) == 0 {
		c.Questions = def.Questions
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the invariants the domain rules rely on.
func Validate(c *domain.Catalog) error {
	var errs []error

	seen := make(map[string]bool)
	for _, wt := range c.WasteTypes {
		if err := checkID("waste type", wt.ID, seen); err != nil {
			errs = append(errs, err)
		}
		if !(wt.PointsPerKg > 0) {
			errs = append(errs, fmt.Errorf("waste type %q: points_per_kg must be positive", wt.ID))
		}
	}

	seen = make(map[string]bool)
	var prev int64 = -1
	for _, b := range c.Badges {
		if err := checkID("badge", b.ID, seen); err != nil {
			errs = append(errs, err)
		}
		if b.PointsRequired < 0 {
			errs = append(errs, fmt.Errorf("badge %q: points_required must not be negative", b.ID))
		}
		if b.PointsRequired < prev {
			errs = append(errs, fmt.Errorf("badge %q: badges must be ordered by points_required", b.ID))
		}
		prev = b.PointsRequired
	}

	seen = make(map[string]bool)
	for _, r := range c.Rewards {
		if err := checkID("reward", r.ID, seen); err != nil {
			errs = append(errs, err)
		}
		if r.PointsCost <= 0 {
			errs = append(errs, fmt.Errorf("reward %q: points_cost must be positive", r.ID))
		}
		switch r.Category {
		case domain.CategoryAirtime, domain.CategorySchoolSupplies, domain.CategoryHealth:
		default:
			errs = append(errs, fmt.Errorf("reward %q: unknown category %q", r.ID, r.Category))
		}
	}

	seen = make(map[string]bool)
	for _, q := range c.Questions {
		if err := checkID("question", q.ID, seen); err != nil {
			errs = append(errs, err)
		}
		if len(q.Options) < 2 {
			errs = append(errs, fmt.Errorf("question %q: needs at least two options", q.ID))
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			errs = append(errs, fmt.Errorf("question %q: correct option %d out of range", q.ID, q.Correct))
		}
		if q.Points < 0 {
			errs = append(errs, fmt.Errorf("question %q: points must not be negative", q.ID))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}

func checkID(kind, id string, seen map[string]bool) error {
	if id == "" {
		return fmt.Errorf("%s with empty id", kind)
	}
	if seen[id] {
		return fmt.Errorf("duplicate %s id %q", kind, id)
	}
	seen[id] = true
	return nil
}
