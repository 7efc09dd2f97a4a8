package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptry/ai/mock"
	"github.com/poiesic/conceptry/core"
)

// stubStrategy returns a fixed result or error.
type stubStrategy struct {
	name     string
	concepts []core.Concept
	err      error
	panics   bool
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) ExtractConcepts(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	if s.panics {
		panic("stub panic")
	}
	if s.err != nil {
		return core.ExtractionResult{}, s.err
	}
	return core.NewExtractionResult(s.concepts), nil
}

func mustConcept(t *testing.T, text string, freq int, rel float64, method core.ExtractionMethod) core.Concept {
	t.Helper()
	c, err := core.NewConcept(text, freq, rel, method)
	require.NoError(t, err)
	return c
}

func TestOrchestratorDefaultStrategySet(t *testing.T) {
	orch, err := NewOrchestrator(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer orch.Release()

	assert.Equal(t, []string{StrategyRuleBased, StrategyStatistical, StrategyEmbedding}, orch.Strategies())
}

func TestOrchestratorOmitsEmbeddingWithoutEmbedder(t *testing.T) {
	orch, err := NewOrchestrator(nil)
	require.NoError(t, err)
	defer orch.Release()

	assert.Equal(t, []string{StrategyRuleBased, StrategyStatistical}, orch.Strategies())
}

func TestOrchestratorRejectsInvalidConfiguration(t *testing.T) {
	orch, err := NewOrchestrator(nil)
	require.NoError(t, err)
	defer orch.Release()

	cfg := core.DefaultStrategyConfiguration()
	cfg.SimilarityThreshold = 1.5
	_, err = orch.Extract(context.Background(), "text", cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestOrchestratorIsolatesFailingStrategy(t *testing.T) {
	healthy := stubStrategy{
		name:     "healthy",
		concepts: []core.Concept{mustConcept(t, "working concept", 2, 0.8, core.MethodRuleBased)},
	}
	failing := stubStrategy{name: "failing", err: errors.New("boom")}

	orch, err := NewOrchestrator(nil, WithStrategies(healthy, failing))
	require.NoError(t, err)
	defer orch.Release()

	result, err := orch.Extract(context.Background(), "text", core.DefaultStrategyConfiguration())
	require.NoError(t, err)

	require.Len(t, result.Concepts, 1)
	assert.Equal(t, "working concept", result.Concepts[0].Text())
	assert.Equal(t, []string{"healthy"}, result.Metadata["strategies_used"])
	errText, ok := result.Metadata["strategy_errors"].(string)
	require.True(t, ok)
	assert.Contains(t, errText, "failing")
	assert.Contains(t, errText, "boom")
}

func TestOrchestratorIsolatesPanickingStrategy(t *testing.T) {
	healthy := stubStrategy{
		name:     "healthy",
		concepts: []core.Concept{mustConcept(t, "working concept", 2, 0.8, core.MethodRuleBased)},
	}
	panicking := stubStrategy{name: "panicking", panics: true}

	orch, err := NewOrchestrator(nil, WithStrategies(healthy, panicking))
	require.NoError(t, err)
	defer orch.Release()

	result, err := orch.Extract(context.Background(), "text", core.DefaultStrategyConfiguration())
	require.NoError(t, err)
	assert.Equal(t, []string{"healthy"}, result.Metadata["strategies_used"])
}

func TestOrchestratorAppliesStrategyWeights(t *testing.T) {
	strategy := stubStrategy{
		name:     "weighted",
		concepts: []core.Concept{mustConcept(t, "scaled concept", 1, 0.8, core.MethodRuleBased)},
	}
	orch, err := NewOrchestrator(nil, WithStrategies(strategy))
	require.NoError(t, err)
	defer orch.Release()

	cfg := core.DefaultStrategyConfiguration()
	cfg.StrategyWeights = map[string]float64{"weighted": 0.5}
	result, err := orch.Extract(context.Background(), "text", cfg)
	require.NoError(t, err)

	require.Len(t, result.Concepts, 1)
	assert.InDelta(t, 0.4, result.Concepts[0].RelevanceScore(), 1e-9)
	assert.Equal(t, true, result.Metadata["weighting_applied"])
}

func TestOrchestratorConsolidatesAcrossStrategies(t *testing.T) {
	first := stubStrategy{
		name:     "first",
		concepts: []core.Concept{mustConcept(t, "Neural Network", 2, 0.8, core.MethodRuleBased)},
	}
	second := stubStrategy{
		name:     "second",
		concepts: []core.Concept{mustConcept(t, "neural  network", 4, 0.5, core.MethodTFIDF)},
	}
	orch, err := NewOrchestrator(nil, WithStrategies(first, second))
	require.NoError(t, err)
	defer orch.Release()

	result, err := orch.Extract(context.Background(), "text", core.DefaultStrategyConfiguration())
	require.NoError(t, err)

	require.Len(t, result.Concepts, 1)
	merged := result.Concepts[0]
	assert.Equal(t, "neural network", merged.Text())
	assert.Equal(t, 6, merged.Frequency())
	// Frequency-weighted average: (0.8*2 + 0.5*4) / 6.
	assert.InDelta(t, 0.6, merged.RelevanceScore(), 1e-9)
	assert.Equal(t, core.MethodSemanticEmbedding, merged.Method())
	assert.Equal(t, 2, result.Metadata["raw_concept_count"])
	assert.Equal(t, 1, result.Metadata["consolidated_concept_count"])
}

func TestOrchestratorConsolidationDisabled(t *testing.T) {
	first := stubStrategy{
		name:     "first",
		concepts: []core.Concept{mustConcept(t, "neural network", 2, 0.8, core.MethodRuleBased)},
	}
	second := stubStrategy{
		name:     "second",
		concepts: []core.Concept{mustConcept(t, "neural network", 4, 0.5, core.MethodTFIDF)},
	}
	orch, err := NewOrchestrator(nil, WithStrategies(first, second))
	require.NoError(t, err)
	defer orch.Release()

	cfg := core.DefaultStrategyConfiguration()
	cfg.ConsolidateResults = false
	result, err := orch.Extract(context.Background(), "text", cfg)
	require.NoError(t, err)
	assert.Len(t, result.Concepts, 2)
}

func TestConsolidateByTextIsIdempotent(t *testing.T) {
	concepts := []core.Concept{
		mustConcept(t, "neural network", 2, 0.8, core.MethodRuleBased),
		mustConcept(t, "Neural  Network", 4, 0.5, core.MethodTFIDF),
		mustConcept(t, "gradient descent", 1, 0.6, core.MethodKeyword),
	}

	once := ConsolidateByText(concepts)
	twice := ConsolidateByText(once)
	assert.Equal(t, once, twice)
}

func TestConsolidateByTextZeroFrequencyGroup(t *testing.T) {
	concepts := []core.Concept{
		mustConcept(t, "rare term", 0, 0.8, core.MethodRuleBased),
		mustConcept(t, "rare term", 0, 0.4, core.MethodTFIDF),
	}

	merged := ConsolidateByText(concepts)
	require.Len(t, merged, 1)
	assert.Equal(t, 0, merged[0].Frequency())
	// No frequencies to weight by; the relevance is the plain mean.
	assert.InDelta(t, 0.6, merged[0].RelevanceScore(), 1e-9)
}

func TestOrchestratorCapsFusedOutput(t *testing.T) {
	var concepts []core.Concept
	texts := []string{"alpha term", "beta term", "gamma term", "delta term", "epsilon term"}
	for i, text := range texts {
		concepts = append(concepts, mustConcept(t, text, i+1, 0.5, core.MethodRuleBased))
	}
	orch, err := NewOrchestrator(nil, WithStrategies(stubStrategy{name: "bulk", concepts: concepts}))
	require.NoError(t, err)
	defer orch.Release()

	cfg := core.DefaultStrategyConfiguration()
	cfg.MaxConceptsPerStrategy = 2
	result, err := orch.Extract(context.Background(), "text", cfg)
	require.NoError(t, err)

	// Cap is twice the per-strategy maximum, highest importance first.
	require.Len(t, result.Concepts, 4)
	assert.Equal(t, "epsilon term", result.Concepts[0].Text())
}

func TestOrchestratorParallelMatchesSequential(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	text := "Machine learning techniques such as neural networks and support vector machines are used. " +
		"Neural networks learn hierarchical representations from training data."
	cfg := core.DefaultStrategyConfiguration()

	sequential, err := NewOrchestrator(embedder)
	require.NoError(t, err)
	defer sequential.Release()

	parallel, err := NewOrchestrator(embedder, WithParallelism(3))
	require.NoError(t, err)
	defer parallel.Release()

	seqResult, err := sequential.Extract(context.Background(), text, cfg)
	require.NoError(t, err)
	parResult, err := parallel.Extract(context.Background(), text, cfg)
	require.NoError(t, err)

	seqTexts := make([]string, 0, len(seqResult.Concepts))
	for _, c := range seqResult.Concepts {
		seqTexts = append(seqTexts, c.Text())
	}
	parTexts := make([]string, 0, len(parResult.Concepts))
	for _, c := range parResult.Concepts {
		parTexts = append(parTexts, c.Text())
	}
	assert.ElementsMatch(t, seqTexts, parTexts)
}
