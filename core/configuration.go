// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// StrategyConfiguration holds the tunable parameters shared by all
// extraction strategies and the orchestrator. Treat values as immutable
// once validated; copy before changing.
type StrategyConfiguration struct {
	// Domain tags the configuration for a subject area, e.g. "computer_science".
	Domain string `yaml:"domain"`

	// MinConceptFrequency drops concepts observed fewer times than this.
	MinConceptFrequency int `yaml:"min_concept_frequency"`

	// MaxConceptsPerStrategy truncates each strategy's ranked output.
	MaxConceptsPerStrategy int `yaml:"max_concepts_per_strategy"`

	// StrategyWeights multiplies each named strategy's relevance scores
	// before fusion. Strategies without an entry keep their raw scores.
	StrategyWeights map[string]float64 `yaml:"strategy_weights"`

	// SimilarityThreshold gates embedding-similarity grouping, in [0,1].
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	ConsolidateResults   bool `yaml:"consolidate_results"`
	MergeSimilarConcepts bool `yaml:"merge_similar_concepts"`
	ExtractHierarchies   bool `yaml:"extract_hierarchies"`
	UseDomainOntology    bool `yaml:"use_domain_ontology"`
	UseTFIDF             bool `yaml:"use_tfidf"`
	UseTextRank          bool `yaml:"use_textrank"`
	UseTopicModeling     bool `yaml:"use_topic_modeling"`
}

// DefaultStrategyConfiguration returns the configuration used when the
// caller supplies nothing.
func DefaultStrategyConfiguration() StrategyConfiguration {
	return StrategyConfiguration{
		Domain:                 "general",
		MinConceptFrequency:    1,
		MaxConceptsPerStrategy: 50,
		StrategyWeights:        map[string]float64{},
		SimilarityThreshold:    0.7,
		ConsolidateResults:     true,
		MergeSimilarConcepts:   true,
		ExtractHierarchies:     true,
		UseDomainOntology:      true,
		UseTFIDF:               true,
		UseTextRank:            true,
		UseTopicModeling:       true,
	}
}

// Validate checks the configuration for internally consistent ranges.
func (c StrategyConfiguration) Validate() error {
	if c.MinConceptFrequency < 0 {
		return fmt.Errorf("%w: MinConceptFrequency must not be negative", ErrInvalidConfiguration)
	}
	if c.MaxConceptsPerStrategy < 1 {
		return fmt.Errorf("%w: MaxConceptsPerStrategy must be at least 1", ErrInvalidConfiguration)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: SimilarityThreshold must be between 0 and 1", ErrInvalidConfiguration)
	}
	for name, weight := range c.StrategyWeights {
		if weight < 0 {
			return fmt.Errorf("%w: weight for %q must not be negative", ErrInvalidConfiguration, name)
		}
	}
	return nil
}

// WeightFor returns the configured weight for a strategy name and whether
// one was set.
func (c StrategyConfiguration) WeightFor(name string) (float64, bool) {
	w, ok := c.StrategyWeights[name]
	return w, ok
}
