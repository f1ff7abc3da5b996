// Package baseline holds the shared business parameters every calculator
// reads its defaults from.
package baseline

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/iwvelando/bizcalc/pkg/validation"
)

// Params is the flat bag of baseline business parameters. Rates are percent.
type Params struct {
	PricePerUnit        float64 `json:"pricePerUnit" yaml:"pricePerUnit" mapstructure:"pricePerUnit" validate:"gte=0"`
	VariableCostPerUnit float64 `json:"variableCostPerUnit" yaml:"variableCostPerUnit" mapstructure:"variableCostPerUnit" validate:"gte=0"`
	FixedCosts          float64 `json:"fixedCosts" yaml:"fixedCosts" mapstructure:"fixedCosts" validate:"gte=0"`
	AnnualUnits         float64 `json:"annualUnits" yaml:"annualUnits" mapstructure:"annualUnits" validate:"gte=0"`
	AnnualRevenue       float64 `json:"annualRevenue" yaml:"annualRevenue" mapstructure:"annualRevenue" validate:"gte=0"`
	COGS                float64 `json:"cogs" yaml:"cogs" mapstructure:"cogs" validate:"gte=0"`
	WACC                float64 `json:"wacc" yaml:"wacc" mapstructure:"wacc" validate:"gte=0,lte=100"`
	TaxRate             float64 `json:"taxRate" yaml:"taxRate" mapstructure:"taxRate" validate:"gte=0,lte=100"`
	DaysInYear          float64 `json:"daysInYear" yaml:"daysInYear" mapstructure:"daysInYear" validate:"daycount"`
}

// Defaults returns the parameters used when nothing is configured.
func Defaults() Params {
	return Params{
		PricePerUnit:        50,
		VariableCostPerUnit: 30,
		FixedCosts:          100000,
		AnnualUnits:         10000,
		AnnualRevenue:       500000,
		COGS:                300000,
		WACC:                10,
		TaxRate:             25,
		DaysInYear:          365,
	}
}

// Validate checks ranges of every parameter.
func (p Params) Validate() error {
	return validation.Struct(p)
}

// Map returns the parameters keyed by their JSON names.
func (p Params) Map() map[string]float64 {
	return map[string]float64{
		"pricePerUnit":        p.PricePerUnit,
		"variableCostPerUnit": p.VariableCostPerUnit,
		"fixedCosts":          p.FixedCosts,
		"annualUnits":         p.AnnualUnits,
		"annualRevenue":       p.AnnualRevenue,
		"cogs":                p.COGS,
		"wacc":                p.WACC,
		"taxRate":             p.TaxRate,
		"daysInYear":          p.DaysInYear,
	}
}

// Keys returns the parameter names in display order.
func Keys() []string {
	return []string{
		"pricePerUnit",
		"variableCostPerUnit",
		"fixedCosts",
		"annualUnits",
		"annualRevenue",
		"cogs",
		"wacc",
		"taxRate",
		"daysInYear",
	}
}

// Labels maps parameter names to human-readable labels.
var Labels = map[string]string{
	"pricePerUnit":        "Price per unit",
	"variableCostPerUnit": "Variable cost per unit",
	"fixedCosts":          "Annual fixed costs",
	"annualUnits":         "Annual unit sales",
	"annualRevenue":       "Annual revenue",
	"cogs":                "Cost of goods sold",
	"wacc":                "WACC (%)",
	"taxRate":             "Tax rate (%)",
	"daysInYear":          "Days in year",
}

// With returns a copy of p with the given overrides applied. Unknown keys are
// rejected and the result is validated.
func (p Params) With(overrides map[string]float64) (Params, error) {
	known := p.Map()
	var unknown []string
	for key, value := range overrides {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		known[key] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return p, fmt.Errorf("unknown baseline parameters: %v", unknown)
	}

	raw, err := json.Marshal(known)
	if err != nil {
		return p, err
	}
	var updated Params
	if err := json.Unmarshal(raw, &updated); err != nil {
		return p, err
	}
	if err := updated.Validate(); err != nil {
		return p, err
	}
	return updated, nil
}

// Store holds the live baseline shared by the CLI menu and HTTP handlers.
type Store struct {
	mu       sync.RWMutex
	params   Params
	defaults Params
}

// NewStore creates a store seeded with initial; Reset returns to initial.
func NewStore(initial Params) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid baseline parameters: %w", err)
	}
	return &Store{params: initial, defaults: initial}, nil
}

// Get returns a copy of the current parameters.
func (s *Store) Get() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Set replaces all parameters after validation.
func (s *Store) Set(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	return nil
}

// Update applies partial overrides and returns the new parameters.
func (s *Store) Update(overrides map[string]float64) (Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := s.params.With(overrides)
	if err != nil {
		return s.params, err
	}
	s.params = updated
	return updated, nil
}

// Reset restores the parameters the store was created with.
func (s *Store) Reset() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = s.defaults
	return s.params
}
