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
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/core"
)

// Orchestrator runs every configured strategy over the same text and
// fuses the results: strategy weights are applied, duplicate concepts
// consolidated, and the fused list ranked and capped. A failing strategy
// is logged and excluded; the others still contribute.
type Orchestrator struct {
	strategies []Strategy
	pool       *ants.Pool
	logger     *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithStrategies replaces the default strategy set.
func WithStrategies(strategies ...Strategy) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.strategies = strategies
		return nil
	}
}

// WithParallelism runs strategies concurrently on a worker pool of the
// given size instead of sequentially.
func WithParallelism(size int) OrchestratorOption {
	return func(o *Orchestrator) error {
		pool, err := ants.NewPool(size)
		if err != nil {
			return fmt.Errorf("creating strategy pool: %w", err)
		}
		o.pool = pool
		return nil
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.logger = logger.With("component", "extraction-orchestrator")
		return nil
	}
}

// NewOrchestrator creates an orchestrator with the full strategy set:
// rule-based, statistical, and embedding-based. The embedder may be nil,
// in which case the embedding strategy is omitted.
func NewOrchestrator(embedder ai.Embedder, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		logger: slog.Default().With("component", "extraction-orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.strategies == nil {
		names := []string{StrategyRuleBased, StrategyStatistical}
		if embedder != nil {
			names = append(names, StrategyEmbedding)
		}
		for _, name := range names {
			strategy, err := NewStrategy(name, embedder, o.logger)
			if err != nil {
				return nil, err
			}
			o.strategies = append(o.strategies, strategy)
		}
	}
	return o, nil
}

// Release frees the worker pool, if any. The orchestrator must not be
// used afterwards.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Strategies returns the names of the configured strategies in order.
func (o *Orchestrator) Strategies() []string {
	names := make([]string, len(o.strategies))
	for i, s := range o.strategies {
		names[i] = s.Name()
	}
	return names
}

// strategyRun captures the outcome of one strategy execution.
type strategyRun struct {
	name   string
	result core.ExtractionResult
	err    error
}

// Extract runs every strategy over text under cfg and fuses the outputs.
// The configuration is validated up front; an invalid configuration is
// the only error this method returns. Strategy failures are contained.
func (o *Orchestrator) Extract(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	if err := cfg.Validate(); err != nil {
		return core.ExtractionResult{}, err
	}

	runs := o.runStrategies(ctx, text, cfg)

	var fused []core.Concept
	var used []string
	var failures []error
	perStrategy := make(map[string]int)
	for _, run := range runs {
		if run.err != nil {
			o.logger.Error("strategy failed, excluding from fusion",
				"strategy", run.name, "err", run.err)
			failures = append(failures, fmt.Errorf("%s: %w", run.name, run.err))
			continue
		}
		used = append(used, run.name)
		perStrategy[run.name] = len(run.result.Concepts)
		weight, ok := cfg.WeightFor(run.name)
		if !ok {
			weight = 1
		}
		fused = append(fused, applyWeight(run.result.Concepts, weight)...)
	}
	rawCount := len(fused)

	if cfg.ConsolidateResults {
		fused = ConsolidateByText(fused)
	}
	sortByImportance(fused)
	fused = truncateConcepts(fused, 2*cfg.MaxConceptsPerStrategy)

	o.logger.Info("extraction complete",
		"strategies", len(used), "raw_concepts", rawCount, "concepts", len(fused))

	result := core.NewExtractionResult(fused)
	result.Metadata["strategies_used"] = used
	result.Metadata["strategy_concept_counts"] = perStrategy
	result.Metadata["raw_concept_count"] = rawCount
	result.Metadata["consolidated_concept_count"] = len(fused)
	result.Metadata["weighting_applied"] = len(cfg.StrategyWeights) > 0
	result.Metadata["consolidation_applied"] = cfg.ConsolidateResults
	if joined := errors.Join(failures...); joined != nil {
		result.Metadata["strategy_errors"] = joined.Error()
	}
	return result, nil
}

// runStrategies executes all strategies, in parallel when a pool is
// configured. A panicking strategy is reported as a failed run.
func (o *Orchestrator) runStrategies(ctx context.Context, text string, cfg core.StrategyConfiguration) []strategyRun {
	runs := make([]strategyRun, len(o.strategies))

	execute := func(i int) {
		strategy := o.strategies[i]
		runs[i].name = strategy.Name()
		defer func() {
			if r := recover(); r != nil {
				runs[i].err = fmt.Errorf("%w: panic: %v", ErrStrategyFailed, r)
			}
		}()
		result, err := strategy.ExtractConcepts(ctx, text, cfg)
		if err != nil {
			runs[i].err = fmt.Errorf("%w: %w", ErrStrategyFailed, err)
			return
		}
		runs[i].result = result
	}

	if o.pool == nil {
		for i := range o.strategies {
			execute(i)
		}
		return runs
	}

	var wg sync.WaitGroup
	for i := range o.strategies {
		i := i
		wg.Add(1)
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			execute(i)
		})
		if submitErr != nil {
			runs[i].name = o.strategies[i].Name()
			runs[i].err = fmt.Errorf("%w: %w", ErrStrategyFailed, submitErr)
			wg.Done()
		}
	}
	wg.Wait()
	return runs
}

// applyWeight scales each concept's relevance by the strategy weight,
// clamping at 1.
func applyWeight(concepts []core.Concept, weight float64) []core.Concept {
	if weight == 1 {
		return concepts
	}
	weighted := make([]core.Concept, 0, len(concepts))
	for _, c := range concepts {
		scaled := c.RelevanceScore() * weight
		if scaled > 1 {
			scaled = 1
		}
		if scaled < 0 {
			scaled = 0
		}
		next, err := c.WithRelevance(scaled)
		if err != nil {
			continue
		}
		weighted = append(weighted, next)
	}
	return weighted
}

// ConsolidateByText merges concepts that share normalized text.
// Frequencies are summed, the relevance is the frequency-weighted
// average, and the merged concept is tagged as produced by semantic
// fusion. Relationship sets and synonyms are unioned; an embedding from
// the most relevant member is kept. Source papers are carried over from
// every member.
func ConsolidateByText(concepts []core.Concept) []core.Concept {
	groups := make(map[string][]core.Concept)
	var order []string
	for _, c := range concepts {
		if _, seen := groups[c.Key()]; !seen {
			order = append(order, c.Key())
		}
		groups[c.Key()] = append(groups[c.Key()], c)
	}

	consolidated := make([]core.Concept, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			consolidated = append(consolidated, group[0])
			continue
		}

		best := group[0]
		totalFreq := 0
		var weightedRelevance, plainRelevance float64
		for _, c := range group {
			totalFreq += c.Frequency()
			weightedRelevance += c.RelevanceScore() * float64(c.Frequency())
			plainRelevance += c.RelevanceScore()
			if c.RelevanceScore() > best.RelevanceScore() {
				best = c
			}
		}
		// A group of zero-frequency members has no weights to average;
		// fall back to the unweighted mean.
		relevance := plainRelevance / float64(len(group))
		if totalFreq > 0 {
			relevance = weightedRelevance / float64(totalFreq)
		}

		merged, err := core.NewConcept(best.Text(), totalFreq, relevance, core.MethodSemanticEmbedding)
		if err != nil {
			consolidated = append(consolidated, best)
			continue
		}
		if vec, ok := best.Embedding(); ok {
			merged = merged.WithEmbedding(vec)
		}
		for _, c := range group {
			for _, syn := range c.Synonyms() {
				merged = merged.WithSynonym(syn)
			}
			for _, doi := range c.SourcePapers() {
				merged = merged.WithSourcePaper(doi)
			}
			for _, p := range c.ParentConcepts() {
				if next, err := merged.WithParent(p); err == nil {
					merged = next
				}
			}
			for _, ch := range c.ChildConcepts() {
				if next, err := merged.WithChild(ch); err == nil {
					merged = next
				}
			}
			if merged.ClusterID() == "" && c.ClusterID() != "" {
				merged = merged.WithCluster(c.ClusterID())
			}
		}
		// Recording provenance bumps the frequency; pin it back to the
		// summed member frequencies.
		if next, err := merged.WithFrequency(totalFreq); err == nil {
			merged = next
		}
		consolidated = append(consolidated, merged)
	}
	return consolidated
}
