package conceptry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptry/ai/mock"
	"github.com/poiesic/conceptry/core"
)

const sampleText = "Machine learning techniques such as neural networks and support vector machines are used. " +
	"Neural networks learn hierarchical representations from training data. " +
	"Support vector machines separate classes with maximal margins."

func TestPipelineExtractEndToEnd(t *testing.T) {
	pipeline, err := NewPipeline(mock.NewMockProvider())
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	require.NotEmpty(t, result.Concepts)

	assert.Equal(t, true, result.Metadata["hierarchy_built"])
	used, ok := result.Metadata["strategies_used"].([]string)
	require.True(t, ok)
	assert.Len(t, used, 3)

	var found bool
	for _, c := range result.Concepts {
		if strings.Contains(c.Text(), "neural network") {
			found = true
		}
		assert.GreaterOrEqual(t, c.EvidenceStrength(), 0.0)
		assert.LessOrEqual(t, c.EvidenceStrength(), 1.0)
		assert.GreaterOrEqual(t, c.ConceptLevel(), 0)
	}
	assert.True(t, found, "expected a neural network concept")
}

func TestPipelineWithoutProvider(t *testing.T) {
	pipeline, err := NewPipeline(nil)
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Concepts)

	used, ok := result.Metadata["strategies_used"].([]string)
	require.True(t, ok)
	assert.Len(t, used, 2)
}

func TestPipelineRejectsInvalidConfiguration(t *testing.T) {
	cfg := core.DefaultStrategyConfiguration()
	cfg.MaxConceptsPerStrategy = 0

	_, err := NewPipeline(nil, WithConfiguration(cfg))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestPipelineRejectsInvalidParallelism(t *testing.T) {
	_, err := NewPipeline(nil, WithParallelStrategies(0))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestPipelineConfigurationAccessor(t *testing.T) {
	cfg := core.DefaultStrategyConfiguration()
	cfg.Domain = "biology"

	pipeline, err := NewPipeline(nil, WithConfiguration(cfg))
	require.NoError(t, err)
	defer pipeline.Release()

	assert.Equal(t, "biology", pipeline.Configuration().Domain)
}

func TestPipelineExtractCorpusRecordsProvenance(t *testing.T) {
	pipeline, err := NewPipeline(mock.NewMockProvider())
	require.NoError(t, err)
	defer pipeline.Release()

	docs := []Document{
		{ID: "10.1000/alpha", Text: "Neural networks learn representations. Neural networks need data."},
		{ID: "10.1000/beta", Text: "Neural networks generalize well. Support vector machines also classify."},
	}
	corpus, err := pipeline.ExtractCorpus(context.Background(), docs)
	require.NoError(t, err)
	require.NotEmpty(t, corpus.Concepts)
	assert.Equal(t, 2, corpus.Metadata["document_count"])

	var crossDocument bool
	for _, c := range corpus.Concepts {
		papers := c.SourcePapers()
		assert.NotEmpty(t, papers)
		if len(papers) == 2 {
			crossDocument = true
		}
	}
	assert.True(t, crossDocument, "expected a concept found in both documents")

	assert.NotEmpty(t, corpus.Topics)
	assert.NotEmpty(t, corpus.Clusters)
}

func TestPipelineExtractCorpusRejectsEmptyInput(t *testing.T) {
	pipeline, err := NewPipeline(nil)
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.ExtractCorpus(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipelineParallelExtraction(t *testing.T) {
	pipeline, err := NewPipeline(mock.NewMockProvider(), WithParallelStrategies(3))
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Extract(context.Background(), sampleText)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Concepts)
}
