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

	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/core"
)

// embeddingMinRelevance is the relevance floor for the final filter of
// the embedding strategy.
const embeddingMinRelevance = 0.5

// documentClusterIterations bounds the k-means refinement loop.
const documentClusterIterations = 10

// EmbeddingStrategy extracts concepts by embedding candidate phrases and
// grouping them by vector similarity. The longest member of a group
// becomes its representative concept.
type EmbeddingStrategy struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// EmbeddingOption configures an EmbeddingStrategy.
type EmbeddingOption func(*EmbeddingStrategy)

// WithEmbeddingLogger sets the logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(s *EmbeddingStrategy) {
		s.logger = logger.With("component", "embedding-strategy")
	}
}

// NewEmbeddingStrategy creates an embedding strategy backed by the given
// embedder.
func NewEmbeddingStrategy(embedder ai.Embedder, opts ...EmbeddingOption) *EmbeddingStrategy {
	s := &EmbeddingStrategy{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedding-strategy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the strategy identifier.
func (s *EmbeddingStrategy) Name() string { return StrategyEmbedding }

// embeddedPhrase pairs a candidate phrase with its vector and corpus
// occurrence count.
type embeddedPhrase struct {
	text      string
	vector    core.EmbeddingVector
	frequency int
}

// ExtractConcepts embeds every candidate phrase of the text and groups
// phrases whose cosine similarity meets cfg.SimilarityThreshold. Each
// group yields one concept: the longest member's text, the group size as
// frequency, and the mean in-group similarity as relevance.
func (s *EmbeddingStrategy) ExtractConcepts(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	candidates := candidatePhrases(text)
	if len(candidates) == 0 {
		result := core.NewExtractionResult(nil)
		result.Metadata["strategy"] = s.Name()
		result.Metadata["candidate_count"] = 0
		return result, nil
	}

	phrases, err := s.embedPhrases(ctx, text, candidates)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	groups := groupBySimilarity(phrases, cfg.SimilarityThreshold)
	concepts := make([]core.Concept, 0, len(groups))
	for _, g := range groups {
		if c, ok := g.toConcept(); ok {
			concepts = append(concepts, c)
		}
	}

	if cfg.MergeSimilarConcepts {
		concepts = MergeSimilarConcepts(concepts, cfg.SimilarityThreshold)
	}

	kept := concepts[:0]
	for _, c := range concepts {
		if c.Frequency() >= cfg.MinConceptFrequency && c.RelevanceScore() > embeddingMinRelevance {
			kept = append(kept, c)
		}
	}
	sortByRelevance(kept)
	kept = truncateConcepts(kept, cfg.MaxConceptsPerStrategy)

	s.logger.Debug("embedding extraction complete",
		"candidates", len(candidates), "groups", len(groups), "concepts", len(kept))

	result := core.NewExtractionResult(kept)
	result.Metadata["strategy"] = s.Name()
	result.Metadata["candidate_count"] = len(candidates)
	result.Metadata["group_count"] = len(groups)
	return result, nil
}

// embedPhrases batch-embeds the candidates and attaches occurrence
// counts from the source text.
func (s *EmbeddingStrategy) embedPhrases(ctx context.Context, text string, candidates []string) ([]embeddedPhrase, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("embedding candidates: %w", err)
	}
	if len(vectors) != len(candidates) {
		return nil, fmt.Errorf("%w: got %d vectors for %d candidates",
			ai.ErrEmbeddingUnavailable, len(vectors), len(candidates))
	}

	model := s.embedder.ModelInfo().Name
	lower := core.NormalizeText(text)
	phrases := make([]embeddedPhrase, 0, len(candidates))
	for i, candidate := range candidates {
		vec, err := core.NewEmbeddingVector(vectors[i], model)
		if err != nil {
			s.logger.Warn("skipping candidate with invalid vector", "phrase", candidate, "err", err)
			continue
		}
		freq := countTermOccurrences(lower, candidate)
		if freq < 1 {
			freq = 1
		}
		phrases = append(phrases, embeddedPhrase{text: candidate, vector: vec, frequency: freq})
	}
	return phrases, nil
}

// phraseGroup is a set of mutually similar phrases seeded by the first
// unassigned phrase.
type phraseGroup struct {
	members       []embeddedPhrase
	similaritySum float64
}

// groupBySimilarity assigns each phrase to the first group whose seed it
// resembles at or above the threshold. Each phrase joins exactly one
// group; the seed counts with self-similarity 1.
func groupBySimilarity(phrases []embeddedPhrase, threshold float64) []phraseGroup {
	assigned := make([]bool, len(phrases))
	var groups []phraseGroup
	for i := range phrases {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := phraseGroup{members: []embeddedPhrase{phrases[i]}, similaritySum: 1}
		for j := i + 1; j < len(phrases); j++ {
			if assigned[j] {
				continue
			}
			sim, err := phrases[i].vector.Cosine(phrases[j].vector)
			if err != nil || sim < threshold {
				continue
			}
			assigned[j] = true
			group.members = append(group.members, phrases[j])
			group.similaritySum += sim
		}
		groups = append(groups, group)
	}
	return groups
}

// toConcept collapses a group into a single concept: the longest member
// is the representative, group size is the frequency, and the mean
// seed similarity is the relevance. Non-representative member texts
// become synonyms.
func (g phraseGroup) toConcept() (core.Concept, bool) {
	representative := g.members[0]
	for _, m := range g.members[1:] {
		if len(m.text) > len(representative.text) ||
			(len(m.text) == len(representative.text) && m.text < representative.text) {
			representative = m
		}
	}
	relevance := g.similaritySum / float64(len(g.members))
	c, ok := newValidatedConcept(representative.text, len(g.members), relevance, core.MethodEmbeddingBased)
	if !ok {
		return core.Concept{}, false
	}
	c = c.WithEmbedding(representative.vector)
	for _, m := range g.members {
		if m.text != representative.text {
			c = c.WithSynonym(m.text)
		}
	}
	return c, true
}

// MergeSimilarConcepts repeatedly folds concepts into the first remaining
// concept whose embedding they resemble at or above the threshold. The
// merged concept keeps the primary's text and embedding, sums the
// frequencies, averages the relevance scores, and absorbs the other
// texts as synonyms. Concepts without embeddings pass through untouched.
func MergeSimilarConcepts(concepts []core.Concept, threshold float64) []core.Concept {
	consumed := make([]bool, len(concepts))
	var merged []core.Concept
	for i, primary := range concepts {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		primaryVec, hasVec := primary.Embedding()
		if !hasVec {
			merged = append(merged, primary)
			continue
		}

		frequency := primary.Frequency()
		relevanceSum := primary.RelevanceScore()
		count := 1
		result := primary
		for j := i + 1; j < len(concepts); j++ {
			if consumed[j] {
				continue
			}
			otherVec, ok := concepts[j].Embedding()
			if !ok {
				continue
			}
			sim, err := primaryVec.Cosine(otherVec)
			if err != nil || sim < threshold {
				continue
			}
			consumed[j] = true
			frequency += concepts[j].Frequency()
			relevanceSum += concepts[j].RelevanceScore()
			count++
			result = result.WithSynonym(concepts[j].Text())
			for _, syn := range concepts[j].Synonyms() {
				result = result.WithSynonym(syn)
			}
		}

		if next, err := result.WithFrequency(frequency); err == nil {
			result = next
		}
		if next, err := result.WithRelevance(relevanceSum / float64(count)); err == nil {
			result = next
		}
		merged = append(merged, result)
	}
	return merged
}

// ClusterDocuments groups whole documents into k clusters by embedding
// similarity using spherical k-means. Each cluster reports its centroid
// and the mean member-to-centroid similarity as coherence.
func (s *EmbeddingStrategy) ClusterDocuments(ctx context.Context, docs []string, k int) ([]core.DocumentCluster, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	if k < 1 {
		k = 1
	}
	if k > len(docs) {
		k = len(docs)
	}

	raw, err := s.embedder.EmbedTexts(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	model := s.embedder.ModelInfo().Name
	vectors := make([]core.EmbeddingVector, len(docs))
	for i, values := range raw {
		vec, err := core.NewEmbeddingVector(values, model)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		vectors[i] = vec
	}

	// Seed centroids from evenly spaced documents for determinism.
	centroids := make([]core.EmbeddingVector, k)
	for c := 0; c < k; c++ {
		centroids[c] = vectors[c*len(docs)/k]
	}

	assignments := make([]int, len(docs))
	for iter := 0; iter < documentClusterIterations; iter++ {
		changed := false
		for i, vec := range vectors {
			best, bestSim := 0, -2.0
			for c, centroid := range centroids {
				sim, err := vec.Cosine(centroid)
				if err != nil {
					continue
				}
				if sim > bestSim {
					best, bestSim = c, sim
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		for c := 0; c < k; c++ {
			var members []core.EmbeddingVector
			for i, a := range assignments {
				if a == c {
					members = append(members, vectors[i])
				}
			}
			if len(members) == 0 {
				continue
			}
			if mean, err := core.MeanVector(members); err == nil {
				centroids[c] = mean
			}
		}
		if !changed {
			break
		}
	}

	var clusters []core.DocumentCluster
	for c := 0; c < k; c++ {
		var members []int
		var simSum float64
		for i, a := range assignments {
			if a != c {
				continue
			}
			members = append(members, i)
			if sim, err := vectors[i].Cosine(centroids[c]); err == nil {
				simSum += sim
			}
		}
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, core.DocumentCluster{
			ClusterID: documentClusterID(members),
			Members:   members,
			Centroid:  centroids[c],
			Coherence: simSum / float64(len(members)),
		})
	}
	return clusters, nil
}

func documentClusterID(members []int) string {
	return fmt.Sprintf("doc-cluster-%016x", uint64(core.IDFromText(fmt.Sprint(members))))
}
