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


// Package conceptry extracts weighted concepts from text and organizes
// them into semantic hierarchies.
//
// The Pipeline is the main entry point. It fuses three extraction
// strategies (rule-based patterns, corpus statistics, and embedding
// similarity), then links the surviving concepts into a hierarchy:
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	pipeline, err := conceptry.NewPipeline(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Release()
//
//	result, err := pipeline.Extract(ctx, text)
package conceptry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/core"
	"github.com/poiesic/conceptry/extraction"
	"github.com/poiesic/conceptry/hierarchy"
)

// Document is one corpus entry: an identifier (typically a DOI) and its
// text.
type Document struct {
	ID   string
	Text string
}

// CorpusResult extends an extraction result with the corpus-level
// artifacts: discovered topics and document clusters.
type CorpusResult struct {
	core.ExtractionResult
	Topics   []core.TopicResult
	Clusters []core.DocumentCluster
}

// Pipeline wires the extraction orchestrator and the hierarchy builder
// behind one call. The provider is owned by the caller; Release only
// frees resources the pipeline created itself.
type Pipeline struct {
	provider     ai.AIProvider
	orchestrator *extraction.Orchestrator
	builder      *hierarchy.Builder
	cfg          core.StrategyConfiguration
	logger       *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineSettings) error

type pipelineSettings struct {
	cfg         core.StrategyConfiguration
	builder     *hierarchy.Builder
	logger      *slog.Logger
	parallelism int
}

// WithConfiguration replaces the default strategy configuration.
func WithConfiguration(cfg core.StrategyConfiguration) PipelineOption {
	return func(s *pipelineSettings) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.cfg = cfg
		return nil
	}
}

// WithHierarchyBuilder replaces the default hierarchy builder.
func WithHierarchyBuilder(builder *hierarchy.Builder) PipelineOption {
	return func(s *pipelineSettings) error {
		s.builder = builder
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(s *pipelineSettings) error {
		s.logger = logger
		return nil
	}
}

// WithParallelStrategies runs extraction strategies concurrently on a
// worker pool of the given size.
func WithParallelStrategies(size int) PipelineOption {
	return func(s *pipelineSettings) error {
		if size < 1 {
			return fmt.Errorf("%w: parallelism must be at least 1", core.ErrInvalidConfiguration)
		}
		s.parallelism = size
		return nil
	}
}

// NewPipeline creates a pipeline. The provider may be nil, in which
// case the embedding strategy and embedding-dependent hierarchy links
// are skipped.
func NewPipeline(provider ai.AIProvider, opts ...PipelineOption) (*Pipeline, error) {
	settings := pipelineSettings{
		cfg:    core.DefaultStrategyConfiguration(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	var embedder ai.Embedder
	if provider != nil {
		embedder = provider.Embedder()
	}

	orchestratorOpts := []extraction.OrchestratorOption{
		extraction.WithOrchestratorLogger(settings.logger),
	}
	if settings.parallelism > 0 {
		orchestratorOpts = append(orchestratorOpts, extraction.WithParallelism(settings.parallelism))
	}
	orchestrator, err := extraction.NewOrchestrator(embedder, orchestratorOpts...)
	if err != nil {
		return nil, err
	}

	builder := settings.builder
	if builder == nil {
		builder = hierarchy.NewBuilder(
			hierarchy.WithParentChildThreshold(settings.cfg.SimilarityThreshold),
			hierarchy.WithClusterThreshold(settings.cfg.SimilarityThreshold),
			hierarchy.WithLogger(settings.logger),
		)
	}

	return &Pipeline{
		provider:     provider,
		orchestrator: orchestrator,
		builder:      builder,
		cfg:          settings.cfg,
		logger:       settings.logger.With("component", "pipeline"),
	}, nil
}

// Configuration returns a copy of the active configuration.
func (p *Pipeline) Configuration() core.StrategyConfiguration { return p.cfg }

// Release frees the pipeline's worker pool. The provider passed to
// NewPipeline is not closed.
func (p *Pipeline) Release() {
	p.orchestrator.Release()
}

// Extract runs the full pipeline over one text: strategy fusion, then,
// when configured, hierarchy construction over the fused concepts.
func (p *Pipeline) Extract(ctx context.Context, text string) (core.ExtractionResult, error) {
	result, err := p.orchestrator.Extract(ctx, text, p.cfg)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	if p.cfg.ExtractHierarchies {
		concepts := p.attachEmbeddings(ctx, result.Concepts)
		built, err := p.builder.Build(concepts, text)
		if err != nil {
			return core.ExtractionResult{}, fmt.Errorf("building hierarchy: %w", err)
		}
		result.Concepts = built
		result.Metadata["hierarchy_built"] = true
	}
	return result, nil
}

// ExtractCorpus runs the pipeline across a document set. Concepts carry
// the identifiers of the documents they were found in; topics and
// document clusters are computed corpus-wide.
func (p *Pipeline) ExtractCorpus(ctx context.Context, docs []Document) (CorpusResult, error) {
	if len(docs) == 0 {
		return CorpusResult{}, extraction.ErrNoDocuments
	}

	var fused []core.Concept
	for _, doc := range docs {
		result, err := p.orchestrator.Extract(ctx, doc.Text, p.cfg)
		if err != nil {
			return CorpusResult{}, fmt.Errorf("document %q: %w", doc.ID, err)
		}
		for _, c := range result.Concepts {
			fused = append(fused, c.WithSourcePaper(doc.ID))
		}
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	consolidated := extraction.ConsolidateByText(fused)
	if p.cfg.ExtractHierarchies {
		concepts := p.attachEmbeddings(ctx, consolidated)
		built, err := p.builder.Build(concepts, strings.Join(texts, "\n\n"))
		if err != nil {
			return CorpusResult{}, fmt.Errorf("building corpus hierarchy: %w", err)
		}
		consolidated = built
	}

	corpus := CorpusResult{ExtractionResult: core.NewExtractionResult(consolidated)}
	corpus.Metadata["document_count"] = len(docs)
	if p.cfg.UseTopicModeling && len(docs) >= 2 {
		statistical := extraction.NewStatisticalStrategy()
		corpus.Topics = statistical.DiscoverTopics(texts, topicCount(len(docs)))
	}
	if p.provider != nil && len(docs) >= 2 {
		embedding := extraction.NewEmbeddingStrategy(p.provider.Embedder())
		clusters, err := embedding.ClusterDocuments(ctx, texts, clusterCount(len(docs)))
		if err != nil {
			p.logger.Warn("document clustering unavailable", "err", err)
		} else {
			corpus.Clusters = clusters
		}
	}
	return corpus, nil
}

// attachEmbeddings fills in vectors for concepts that lack one so the
// hierarchy builder can relate them. Embedding failures degrade to the
// unembedded concepts instead of failing the pipeline.
func (p *Pipeline) attachEmbeddings(ctx context.Context, concepts []core.Concept) []core.Concept {
	if p.provider == nil {
		return concepts
	}

	var missing []int
	var texts []string
	for i, c := range concepts {
		if _, ok := c.Embedding(); !ok {
			missing = append(missing, i)
			texts = append(texts, c.Text())
		}
	}
	if len(missing) == 0 {
		return concepts
	}

	embedder := p.provider.Embedder()
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil || len(vectors) != len(missing) {
		p.logger.Warn("embedding concepts for hierarchy failed, proceeding without",
			"missing", len(missing), "err", err)
		return concepts
	}

	model := embedder.ModelInfo().Name
	enriched := make([]core.Concept, len(concepts))
	copy(enriched, concepts)
	for k, i := range missing {
		vec, err := core.NewEmbeddingVector(vectors[k], model)
		if err != nil {
			p.logger.Warn("invalid embedding for concept", "concept", concepts[i].Text(), "err", err)
			continue
		}
		enriched[i] = enriched[i].WithEmbedding(vec)
	}
	return enriched
}

func topicCount(docCount int) int {
	if docCount < 3 {
		return 2
	}
	return 3
}

func clusterCount(docCount int) int {
	k := docCount / 2
	if k < 2 {
		k = 2
	}
	if k > 5 {
		k = 5
	}
	return k
}
