package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/ai/mock"
	"github.com/poiesic/conceptry/core"
)

// axisEmbedder maps phrases onto fixed axes so similarity is controlled:
// anything mentioning "neural" lands on one axis, everything else on
// another.
func axisEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.Contains(text, "neural") {
				vectors[i] = []float32{1, 0, 0}
			} else {
				vectors[i] = []float32{0, 1, 0}
			}
		}
		return vectors, nil
	}
	return embedder
}

func TestEmbeddingGroupingPicksLongestRepresentative(t *testing.T) {
	strategy := NewEmbeddingStrategy(axisEmbedder())
	cfg := core.DefaultStrategyConfiguration()
	cfg.MergeSimilarConcepts = false

	text := "Deep neural networks outperform shallow neural models on vision benchmarks."
	result, err := strategy.ExtractConcepts(context.Background(), text, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, result.Concepts)

	var neural *core.Concept
	for i := range result.Concepts {
		if strings.Contains(result.Concepts[i].Text(), "neural") {
			neural = &result.Concepts[i]
			break
		}
	}
	require.NotNil(t, neural, "expected a neural group")

	// All neural phrases collapse into one group led by the longest.
	for _, c := range result.Concepts {
		if c.Text() != neural.Text() {
			assert.NotContains(t, c.Text(), "neural")
		}
	}
	assert.Greater(t, neural.Frequency(), 1)
	assert.Greater(t, neural.RelevanceScore(), embeddingMinRelevance)
	_, hasVec := neural.Embedding()
	assert.True(t, hasVec)
	assert.NotEmpty(t, neural.Synonyms())
}

func TestEmbeddingEmptyTextYieldsEmptyResult(t *testing.T) {
	strategy := NewEmbeddingStrategy(mock.NewMockEmbedder())

	result, err := strategy.ExtractConcepts(context.Background(), "", core.DefaultStrategyConfiguration())
	require.NoError(t, err)
	assert.Empty(t, result.Concepts)
	assert.Equal(t, 0, result.Metadata["candidate_count"])
}

func TestEmbeddingFailurePropagates(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("backend down")
	}
	strategy := NewEmbeddingStrategy(embedder)

	_, err := strategy.ExtractConcepts(context.Background(),
		"Neural networks process structured data efficiently.", core.DefaultStrategyConfiguration())
	assert.Error(t, err)
}

func TestEmbeddingVectorCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	strategy := NewEmbeddingStrategy(embedder)

	_, err := strategy.ExtractConcepts(context.Background(),
		"Neural networks process structured data efficiently.", core.DefaultStrategyConfiguration())
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
}

func TestGroupBySimilarityThreshold(t *testing.T) {
	vec := func(values ...float32) core.EmbeddingVector {
		v, err := core.NewEmbeddingVector(values, "test")
		require.NoError(t, err)
		return v
	}
	phrases := []embeddedPhrase{
		{text: "vector databases", vector: vec(1, 0, 0), frequency: 1},
		{text: "vector stores", vector: vec(0.8, 0.6, 0), frequency: 1},
		{text: "bird migration", vector: vec(0, 0, 1), frequency: 1},
	}

	groups := groupBySimilarity(phrases, 0.7)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].members, 2)
	assert.Len(t, groups[1].members, 1)

	concept, ok := groups[0].toConcept()
	require.True(t, ok)
	assert.Equal(t, "vector databases", concept.Text())
	assert.Equal(t, 2, concept.Frequency())
	assert.InDelta(t, 0.9, concept.RelevanceScore(), 1e-9)
}

func TestMergeSimilarConceptsFoldsDuplicates(t *testing.T) {
	vec := func(values ...float32) core.EmbeddingVector {
		v, err := core.NewEmbeddingVector(values, "test")
		require.NoError(t, err)
		return v
	}
	build := func(text string, freq int, rel float64, v core.EmbeddingVector) core.Concept {
		c, err := core.NewConcept(text, freq, rel, core.MethodEmbeddingBased)
		require.NoError(t, err)
		return c.WithEmbedding(v)
	}

	concepts := []core.Concept{
		build("graph neural networks", 3, 0.9, vec(1, 0)),
		build("graph networks", 2, 0.7, vec(1, 0.01)),
		build("meal planning", 1, 0.8, vec(0, 1)),
	}

	merged := MergeSimilarConcepts(concepts, 0.9)
	require.Len(t, merged, 2)

	first := merged[0]
	assert.Equal(t, "graph neural networks", first.Text())
	assert.Equal(t, 5, first.Frequency())
	assert.InDelta(t, 0.8, first.RelevanceScore(), 1e-9)
	assert.Contains(t, first.Synonyms(), "graph networks")
}

func TestMergeSimilarConceptsPassesThroughUnembedded(t *testing.T) {
	a, err := core.NewConcept("plain concept", 1, 0.5, core.MethodRuleBased)
	require.NoError(t, err)

	merged := MergeSimilarConcepts([]core.Concept{a}, 0.7)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Equal(a))
}

func TestClusterDocumentsSeparatesTopics(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if strings.Contains(text, "database") {
				vectors[i] = []float32{1, 0.1, 0}
			} else {
				vectors[i] = []float32{0, 0.1, 1}
			}
		}
		return vectors, nil
	}
	strategy := NewEmbeddingStrategy(embedder)

	docs := []string{
		"database replication and sharding",
		"database indexes and queries",
		"bird migration across continents",
		"bird nesting behavior",
	}
	clusters, err := strategy.ClusterDocuments(context.Background(), docs, 2)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	for _, cluster := range clusters {
		assert.NotEmpty(t, cluster.ClusterID)
		assert.NotEmpty(t, cluster.Members)
		assert.Greater(t, cluster.Coherence, 0.9)
		assert.False(t, cluster.Centroid.IsZero())
	}
	assert.ElementsMatch(t, []int{0, 1}, clusters[0].Members)
	assert.ElementsMatch(t, []int{2, 3}, clusters[1].Members)
}

func TestClusterDocumentsRejectsEmptyInput(t *testing.T) {
	strategy := NewEmbeddingStrategy(mock.NewMockEmbedder())
	_, err := strategy.ClusterDocuments(context.Background(), nil, 2)
	assert.ErrorIs(t, err, ErrNoDocuments)
}
