package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptry/core"
)

func embedded(t *testing.T, text string, freq int, rel float64, values ...float32) core.Concept {
	t.Helper()
	c, err := core.NewConcept(text, freq, rel, core.MethodEmbeddingBased)
	require.NoError(t, err)
	vec, err := core.NewEmbeddingVector(values, "test")
	require.NoError(t, err)
	return c.WithEmbedding(vec)
}

func byText(concepts []core.Concept, text string) core.Concept {
	for _, c := range concepts {
		if c.Key() == core.NormalizeText(text) {
			return c
		}
	}
	return core.Concept{}
}

func TestBuildLinksFrequentParentToRareChild(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "machine learning", 10, 0.9, 1, 0, 0),
		embedded(t, "neural networks", 2, 0.8, 0.95, 0.31, 0),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)
	require.Len(t, built, 2)

	parent := byText(built, "machine learning")
	child := byText(built, "neural networks")
	assert.True(t, parent.HasChild("neural networks"))
	assert.True(t, child.HasParent("machine learning"))
	assert.Equal(t, 0, parent.ConceptLevel())
	assert.Equal(t, 1, child.ConceptLevel())
}

func TestBuildRejectsNearEqualFrequencies(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "first concept", 5, 0.9, 1, 0, 0),
		embedded(t, "second concept", 4, 0.8, 1, 0, 0),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)

	first := byText(built, "first concept")
	second := byText(built, "second concept")
	assert.Empty(t, first.ChildConcepts())
	assert.Empty(t, second.ParentConcepts())
	assert.Equal(t, 0, first.ConceptLevel())
	assert.Equal(t, 0, second.ConceptLevel())
}

func TestBuildIgnoresDissimilarPairs(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "machine learning", 10, 0.9, 1, 0, 0),
		embedded(t, "bird migration", 1, 0.8, 0, 1, 0),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)
	assert.Empty(t, byText(built, "machine learning").ChildConcepts())
}

func TestBuildRejectsCycleClosingEdge(t *testing.T) {
	top, err := core.NewConcept("broad field", 2, 0.9, core.MethodRuleBased)
	require.NoError(t, err)
	vecTop, err := core.NewEmbeddingVector([]float32{1, 0, 0}, "test")
	require.NoError(t, err)
	top = top.WithEmbedding(vecTop)

	// The narrow concept already sits above the broad one from a prior
	// extraction pass, but is far more frequent. Similarity would make
	// it a child; accepting that edge would close a cycle.
	narrow := embedded(t, "narrow topic", 20, 0.8, 1, 0, 0)
	next, err := narrow.WithParent("broad field")
	require.NoError(t, err)
	narrow = next
	next, err = top.WithChild("narrow topic")
	require.NoError(t, err)
	top = next

	built, err := NewBuilder().Build([]core.Concept{top, narrow}, "")
	require.NoError(t, err)

	builtNarrow := byText(built, "narrow topic")
	builtTop := byText(built, "broad field")
	assert.False(t, builtNarrow.HasChild("broad field"), "cycle-closing edge must be rejected")
	assert.True(t, builtTop.HasChild("narrow topic"))
	assert.Equal(t, 0, builtTop.ConceptLevel())
	assert.Equal(t, 1, builtNarrow.ConceptLevel())
}

func TestBuildDropsMutuallyLinkedInputs(t *testing.T) {
	// Opposing pattern matches can arrive as two concepts each naming
	// the other as parent. Only one direction may survive.
	a, err := core.NewConcept("machine learning", 5, 0.9, core.MethodRuleBased)
	require.NoError(t, err)
	a, err = a.WithParent("deep learning")
	require.NoError(t, err)
	b, err := core.NewConcept("deep learning", 5, 0.8, core.MethodRuleBased)
	require.NoError(t, err)
	b, err = b.WithParent("machine learning")
	require.NoError(t, err)

	built, err := NewBuilder().Build([]core.Concept{a, b}, "")
	require.NoError(t, err)

	ml := byText(built, "machine learning")
	dl := byText(built, "deep learning")
	assert.False(t, ml.HasParent("deep learning") && dl.HasParent("machine learning"),
		"mutual parent links must not survive")
	// The first link in input order wins.
	assert.True(t, ml.HasParent("deep learning"))
	assert.True(t, dl.HasChild("machine learning"))
	assert.Empty(t, dl.ParentConcepts())
	assert.Equal(t, 0, dl.ConceptLevel())
	assert.Equal(t, 1, ml.ConceptLevel())
}

func TestBuildLevelsAreBreadthFirst(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "artificial intelligence", 100, 0.9, 1, 0, 0),
		embedded(t, "machine learning", 20, 0.8, 0.98, 0.19, 0),
		embedded(t, "neural networks", 4, 0.7, 0.95, 0.31, 0),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)

	assert.Equal(t, 0, byText(built, "artificial intelligence").ConceptLevel())
	assert.Equal(t, 1, byText(built, "machine learning").ConceptLevel())
	// Similar to both ancestors; the shallowest parent wins.
	assert.Equal(t, 1, byText(built, "neural networks").ConceptLevel())
}

func TestBuildClustersSimilarConcepts(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "vector databases", 3, 0.9, 1, 0, 0),
		embedded(t, "vector stores", 3, 0.8, 0.8, 0.6, 0),
		embedded(t, "bird migration", 3, 0.7, 0, 0, 1),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)

	a := byText(built, "vector databases")
	c := byText(built, "vector stores")
	odd := byText(built, "bird migration")

	require.NotEmpty(t, a.ClusterID())
	assert.Equal(t, a.ClusterID(), c.ClusterID())
	assert.Empty(t, odd.ClusterID())
}

func TestBuildEvidenceReflectsSourceOccurrences(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "neural networks", 2, 0.8, 1, 0, 0),
	}
	source := "Neural networks are everywhere. We train neural networks daily."

	withSource, err := NewBuilder().Build(concepts, source)
	require.NoError(t, err)
	withoutSource, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)

	strong := withSource[0].EvidenceStrength()
	weak := withoutSource[0].EvidenceStrength()
	assert.Greater(t, strong, weak)
	assert.LessOrEqual(t, strong, 1.0)
	assert.GreaterOrEqual(t, weak, 0.0)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	original := embedded(t, "machine learning", 10, 0.9, 1, 0, 0)
	other := embedded(t, "neural networks", 2, 0.8, 0.95, 0.31, 0)
	input := []core.Concept{original, other}

	_, err := NewBuilder().Build(input, "")
	require.NoError(t, err)

	assert.Empty(t, input[0].ChildConcepts())
	assert.Empty(t, input[1].ParentConcepts())
	assert.Equal(t, 0.0, input[0].EvidenceStrength())
}

func TestBuildHandlesConceptsWithoutEmbeddings(t *testing.T) {
	plain, err := core.NewConcept("plain concept", 5, 0.6, core.MethodTFIDF)
	require.NoError(t, err)
	concepts := []core.Concept{
		plain,
		embedded(t, "machine learning", 10, 0.9, 1, 0, 0),
	}

	built, err := NewBuilder().Build(concepts, "")
	require.NoError(t, err)
	require.Len(t, built, 2)

	p := byText(built, "plain concept")
	assert.Equal(t, 0, p.ConceptLevel())
	assert.Empty(t, p.ClusterID())
	assert.Greater(t, p.EvidenceStrength(), 0.0)
}

func TestBuildEmptyInput(t *testing.T) {
	built, err := NewBuilder().Build(nil, "some text")
	require.NoError(t, err)
	assert.Nil(t, built)
}

func TestBuilderOptions(t *testing.T) {
	concepts := []core.Concept{
		embedded(t, "first concept", 5, 0.9, 1, 0, 0),
		embedded(t, "second concept", 4, 0.8, 1, 0, 0),
	}

	// A permissive ratio lets near-equal frequencies form an edge.
	built, err := NewBuilder(WithFrequencyRatio(1.0)).Build(concepts, "")
	require.NoError(t, err)
	assert.True(t, byText(built, "first concept").HasChild("second concept"))

	// A maximal threshold suppresses clustering of non-identical vectors.
	concepts = []core.Concept{
		embedded(t, "vector databases", 3, 0.9, 1, 0, 0),
		embedded(t, "vector stores", 3, 0.8, 0.8, 0.6, 0),
	}
	built, err = NewBuilder(WithClusterThreshold(0.99), WithParentChildThreshold(0.99)).Build(concepts, "")
	require.NoError(t, err)
	assert.Empty(t, byText(built, "vector databases").ClusterID())
}
