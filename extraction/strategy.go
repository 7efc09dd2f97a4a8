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

package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/core"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyRuleBased   = "rule_based"
	StrategyStatistical = "statistical"
	StrategyEmbedding   = "embedding_based"
)

// Strategy extracts scored concepts from free text. Implementations are
// stateless with respect to input; a single instance may be reused across
// documents and goroutines.
type Strategy interface {
	// Name returns the strategy identifier used in configuration weights
	// and result metadata.
	Name() string

	// ExtractConcepts runs the strategy over text under the given
	// configuration. The returned result carries the strategy's concepts
	// ordered by descending relevance plus bookkeeping metadata.
	ExtractConcepts(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error)
}

// NewStrategy creates a strategy by name. The embedder may be nil for
// strategies that do not consult one; StrategyEmbedding requires it.
func NewStrategy(name string, embedder ai.Embedder, logger *slog.Logger) (Strategy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch name {
	case StrategyRuleBased:
		return NewRuleBasedStrategy(WithOntology(DefaultOntology()), WithRuleBasedLogger(logger)), nil
	case StrategyStatistical:
		return NewStatisticalStrategy(WithStatisticalLogger(logger)), nil
	case StrategyEmbedding:
		if embedder == nil {
			return nil, fmt.Errorf("%w: strategy %q", ErrEmbedderRequired, name)
		}
		return NewEmbeddingStrategy(embedder, WithEmbeddingLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// minConceptTextLength is the shortest normalized text accepted from any
// strategy. Shorter candidates are dropped rather than reported as errors.
const minConceptTextLength = 2

// newValidatedConcept builds a concept from raw strategy output, applying
// the lenient construction rules: candidates below the minimum length are
// dropped, frequency is floored at 1, and relevance is clamped to [0,1].
func newValidatedConcept(text string, frequency int, relevance float64, method core.ExtractionMethod) (core.Concept, bool) {
	normalized := core.NormalizeText(text)
	if len(normalized) < minConceptTextLength {
		return core.Concept{}, false
	}
	if frequency < 1 {
		frequency = 1
	}
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}
	concept, err := core.NewConcept(normalized, frequency, relevance, method)
	if err != nil {
		return core.Concept{}, false
	}
	return concept, true
}

// sortByRelevance orders concepts by descending relevance score, breaking
// ties by descending frequency then ascending text for determinism.
func sortByRelevance(concepts []core.Concept) {
	sort.SliceStable(concepts, func(i, j int) bool {
		if concepts[i].RelevanceScore() != concepts[j].RelevanceScore() {
			return concepts[i].RelevanceScore() > concepts[j].RelevanceScore()
		}
		if concepts[i].Frequency() != concepts[j].Frequency() {
			return concepts[i].Frequency() > concepts[j].Frequency()
		}
		return concepts[i].Text() < concepts[j].Text()
	})
}

// sortByImportance orders concepts by descending relevance*frequency,
// breaking ties by ascending text.
func sortByImportance(concepts []core.Concept) {
	sort.SliceStable(concepts, func(i, j int) bool {
		si := concepts[i].RelevanceScore() * float64(concepts[i].Frequency())
		sj := concepts[j].RelevanceScore() * float64(concepts[j].Frequency())
		if si != sj {
			return si > sj
		}
		return concepts[i].Text() < concepts[j].Text()
	})
}

// truncateConcepts caps the slice at max entries. A non-positive max
// means unlimited.
func truncateConcepts(concepts []core.Concept, max int) []core.Concept {
	if max > 0 && len(concepts) > max {
		return concepts[:max]
	}
	return concepts
}
