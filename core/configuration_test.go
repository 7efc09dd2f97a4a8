package core

import (
	"errors"
	"testing"
)

func TestStrategyConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StrategyConfiguration)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *StrategyConfiguration) {},
		},
		{
			name:    "negative min frequency",
			mutate:  func(c *StrategyConfiguration) { c.MinConceptFrequency = -1 },
			wantErr: true,
		},
		{
			name:    "zero max concepts",
			mutate:  func(c *StrategyConfiguration) { c.MaxConceptsPerStrategy = 0 },
			wantErr: true,
		},
		{
			name:    "threshold above one",
			mutate:  func(c *StrategyConfiguration) { c.SimilarityThreshold = 1.01 },
			wantErr: true,
		},
		{
			name:    "threshold below zero",
			mutate:  func(c *StrategyConfiguration) { c.SimilarityThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "negative weight",
			mutate:  func(c *StrategyConfiguration) { c.StrategyWeights = map[string]float64{"rule_based": -2} },
			wantErr: true,
		},
		{
			name:   "weight above one is allowed",
			mutate: func(c *StrategyConfiguration) { c.StrategyWeights = map[string]float64{"rule_based": 1.5} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultStrategyConfiguration()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("Validate() error = %v, want ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestStrategyConfiguration_WeightFor(t *testing.T) {
	cfg := DefaultStrategyConfiguration()
	cfg.StrategyWeights = map[string]float64{"statistical": 0.5}

	if w, ok := cfg.WeightFor("statistical"); !ok || w != 0.5 {
		t.Errorf("WeightFor(statistical) = %f, %v; want 0.5, true", w, ok)
	}
	if _, ok := cfg.WeightFor("rule_based"); ok {
		t.Errorf("WeightFor(rule_based) should report no weight configured")
	}
}
