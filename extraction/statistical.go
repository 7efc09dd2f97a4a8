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
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/poiesic/conceptry/core"
)

// Statistical pass parameters.
const (
	statisticalMinRelevance = 0.1
	maxNgramSize            = 3
	topicTermLimit          = 100
	topicTopWords           = 10
	nmfIterations           = 50
)

// StatisticalStrategy extracts concepts using corpus statistics: TF-IDF
// over unigrams through trigrams, TextRank word centrality, and topic
// modeling across multiple documents.
type StatisticalStrategy struct {
	logger *slog.Logger
}

// StatisticalOption configures a StatisticalStrategy.
type StatisticalOption func(*StatisticalStrategy)

// WithStatisticalLogger sets the logger.
func WithStatisticalLogger(logger *slog.Logger) StatisticalOption {
	return func(s *StatisticalStrategy) {
		s.logger = logger.With("component", "statistical-strategy")
	}
}

// NewStatisticalStrategy creates a statistical strategy.
func NewStatisticalStrategy(opts ...StatisticalOption) *StatisticalStrategy {
	s := &StatisticalStrategy{
		logger: slog.Default().With("component", "statistical-strategy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the strategy identifier.
func (s *StatisticalStrategy) Name() string { return StrategyStatistical }

// ExtractConcepts treats blank-line separated blocks of text as separate
// documents so that term weighting degrades gracefully: one block means
// plain term frequency, several mean TF-IDF.
func (s *StatisticalStrategy) ExtractConcepts(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	return s.ExtractFromDocuments(ctx, splitParagraphs(text), cfg)
}

// ExtractFromDocuments runs the statistical passes over an explicit
// document set. Topic modeling only participates when two or more
// documents are present.
func (s *StatisticalStrategy) ExtractFromDocuments(ctx context.Context, docs []string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return core.ExtractionResult{}, err
	}
	if len(docs) == 0 {
		return core.ExtractionResult{}, ErrNoDocuments
	}

	byKey := make(map[string]core.Concept)
	var order []string
	absorb := func(concepts []core.Concept) {
		for _, c := range concepts {
			existing, ok := byKey[c.Key()]
			if !ok {
				byKey[c.Key()] = c
				order = append(order, c.Key())
				continue
			}
			// Passes observe the same underlying occurrences, so take
			// the strongest signal instead of summing.
			if c.RelevanceScore() > existing.RelevanceScore() {
				if next, err := existing.WithRelevance(c.RelevanceScore()); err == nil {
					existing = next
				}
			}
			if c.Frequency() > existing.Frequency() {
				if next, err := existing.WithFrequency(c.Frequency()); err == nil {
					existing = next
				}
			}
			byKey[c.Key()] = existing
		}
	}

	topicCount := 0
	if cfg.UseTFIDF {
		absorb(s.termWeightConcepts(docs))
	}
	if cfg.UseTextRank {
		absorb(s.textRankConcepts(docs))
	}
	if cfg.UseTopicModeling && len(docs) >= 2 {
		topics := s.DiscoverTopics(docs, topicModelK(len(docs)))
		topicCount = len(topics)
		for _, topic := range topics {
			absorb(topic.Concepts)
		}
	}

	concepts := make([]core.Concept, 0, len(order))
	for _, key := range order {
		c := byKey[key]
		if c.RelevanceScore() > statisticalMinRelevance && c.Frequency() >= cfg.MinConceptFrequency {
			concepts = append(concepts, c)
		}
	}
	sortByRelevance(concepts)
	concepts = truncateConcepts(concepts, cfg.MaxConceptsPerStrategy)

	s.logger.Debug("statistical extraction complete",
		"documents", len(docs), "concepts", len(concepts), "topics", topicCount)

	result := core.NewExtractionResult(concepts)
	result.Metadata["strategy"] = s.Name()
	result.Metadata["document_count"] = len(docs)
	result.Metadata["topic_count"] = topicCount
	return result, nil
}

// termWeightConcepts scores unigrams through trigrams. A single document
// falls back to raw term frequency normalized by the maximum frequency;
// multiple documents use TF-IDF aggregated across the corpus.
func (s *StatisticalStrategy) termWeightConcepts(docs []string) []core.Concept {
	docCounts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	total := make(map[string]int)
	var order []string
	for i, doc := range docs {
		docCounts[i] = ngramCounts(doc)
		for term, count := range docCounts[i] {
			df[term]++
			if total[term] == 0 {
				order = append(order, term)
			}
			total[term] += count
		}
	}
	sort.Strings(order)

	scores := make(map[string]float64, len(total))
	if len(docs) == 1 {
		var maxTF int
		for _, count := range total {
			if count > maxTF {
				maxTF = count
			}
		}
		for term, count := range total {
			scores[term] = float64(count) / float64(maxTF)
		}
	} else {
		n := float64(len(docs))
		var maxScore float64
		for _, counts := range docCounts {
			for term, count := range counts {
				idf := math.Log(n/float64(df[term])) + 1
				scores[term] += float64(count) * idf
			}
		}
		for _, score := range scores {
			if score > maxScore {
				maxScore = score
			}
		}
		if maxScore > 0 {
			for term := range scores {
				scores[term] /= maxScore
			}
		}
	}

	concepts := make([]core.Concept, 0, len(order))
	for _, term := range order {
		if c, ok := newValidatedConcept(term, total[term], scores[term], core.MethodTFIDF); ok {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// textRankConcepts ranks by graph centrality. Candidate phrases scored
// by the mean centrality of their words take priority; single words are
// emitted only when no phrase scored.
func (s *StatisticalStrategy) textRankConcepts(docs []string) []core.Concept {
	var sentences []string
	var counts = make(map[string]int)
	for _, doc := range docs {
		normalized := normalizeWhitespace(doc)
		sentences = append(sentences, splitSentences(normalized)...)
		for _, w := range contentWords(normalized) {
			counts[w]++
		}
	}
	scores := textRankScores(sentences)
	if len(scores) == 0 {
		return nil
	}

	var concepts []core.Concept
	for _, phrase := range candidatePhrasesFromDocs(docs) {
		centrality, ok := phraseCentrality(phrase, scores)
		if !ok {
			continue
		}
		freq := 0
		lowerPhrase := strings.ToLower(phrase)
		for _, doc := range docs {
			freq += countTermOccurrences(strings.ToLower(normalizeWhitespace(doc)), lowerPhrase)
		}
		if c, ok := newValidatedConcept(phrase, freq, centrality, core.MethodKeyword); ok {
			concepts = append(concepts, c)
		}
	}
	if len(concepts) > 0 {
		return concepts
	}

	words := make([]string, 0, len(scores))
	for w := range scores {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		if c, ok := newValidatedConcept(w, counts[w], scores[w], core.MethodKeyword); ok {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// DiscoverTopics fits a small non-negative factorization over the
// term-document matrix and reports the top words of each of k topics.
// Fewer than two documents yield no topics.
func (s *StatisticalStrategy) DiscoverTopics(docs []string, k int) []core.TopicResult {
	if len(docs) < 2 || k < 1 {
		return nil
	}

	terms, matrix := termDocumentMatrix(docs)
	if len(terms) == 0 {
		return nil
	}
	if k > len(docs) {
		k = len(docs)
	}

	_, h := factorize(matrix, k)

	topics := make([]core.TopicResult, 0, k)
	for topic := 0; topic < k; topic++ {
		weights := h[topic]
		idx := topIndices(weights, topicTopWords)
		if len(idx) == 0 {
			continue
		}
		minW, maxW := weights[idx[len(idx)-1]], weights[idx[0]]
		span := maxW - minW
		var concepts []core.Concept
		for _, i := range idx {
			relevance := 1.0
			if span > 0 {
				relevance = (weights[i] - minW) / span
			}
			if c, ok := newValidatedConcept(terms[i], 1, relevance, core.MethodStatistical); ok {
				concepts = append(concepts, c)
			}
		}
		if len(concepts) == 0 {
			continue
		}
		topics = append(topics, core.TopicResult{
			TopicID:  topic,
			Concepts: concepts,
			// TODO: compute NPMI coherence from co-occurrence counts.
			Coherence: 0.5,
		})
	}
	return topics
}

// topicModelK picks the topic count for fused extraction.
func topicModelK(docCount int) int {
	if docCount < 3 {
		return 2
	}
	return 3
}

// splitParagraphs divides raw text on blank lines, dropping empty blocks.
func splitParagraphs(text string) []string {
	blocks := strings.Split(text, "\n\n")
	docs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			docs = append(docs, b)
		}
	}
	if len(docs) == 0 && strings.TrimSpace(text) != "" {
		docs = append(docs, text)
	}
	return docs
}

// ngramCounts counts unigrams through trigrams of a document. Unigrams
// must be content words of three or more characters; longer grams must
// not start or end with a stop word.
func ngramCounts(doc string) map[string]int {
	counts := make(map[string]int)
	for _, sentence := range splitSentences(normalizeWhitespace(doc)) {
		words := tokenizeWords(sentence)
		for i, w := range words {
			if !stopWords[w] && len(w) >= 3 {
				counts[w]++
			}
			for n := 2; n <= maxNgramSize; n++ {
				if i+n > len(words) {
					break
				}
				gram := words[i : i+n]
				if stopWords[gram[0]] || stopWords[gram[n-1]] || hasNumericWord(gram) {
					continue
				}
				counts[strings.Join(gram, " ")]++
			}
		}
	}
	return counts
}

func candidatePhrasesFromDocs(docs []string) []string {
	seen := make(map[string]bool)
	var phrases []string
	for _, doc := range docs {
		for _, p := range candidatePhrases(doc) {
			if !seen[p] {
				seen[p] = true
				phrases = append(phrases, p)
			}
		}
	}
	return phrases
}

// termDocumentMatrix builds a docs-by-terms count matrix over the most
// frequent unigrams, capped at topicTermLimit terms.
func termDocumentMatrix(docs []string) ([]string, [][]float64) {
	total := make(map[string]int)
	perDoc := make([]map[string]int, len(docs))
	for i, doc := range docs {
		perDoc[i] = make(map[string]int)
		for _, w := range contentWords(normalizeWhitespace(doc)) {
			if len(w) < 3 {
				continue
			}
			perDoc[i][w]++
			total[w]++
		}
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > topicTermLimit {
		terms = terms[:topicTermLimit]
	}

	matrix := make([][]float64, len(docs))
	for i := range docs {
		row := make([]float64, len(terms))
		for j, t := range terms {
			row[j] = float64(perDoc[i][t])
		}
		matrix[i] = row
	}
	return terms, matrix
}

// factorize runs multiplicative-update NMF on the docs-by-terms matrix,
// returning W (docs x k) and H (k x terms). Initialization is
// deterministic so repeated runs agree.
func factorize(x [][]float64, k int) ([][]float64, [][]float64) {
	rows := len(x)
	cols := len(x[0])
	const eps = 1e-9

	w := make([][]float64, rows)
	for i := range w {
		w[i] = make([]float64, k)
		for t := range w[i] {
			w[i][t] = 1 + 0.01*float64((i*31+t*17)%7)
		}
	}
	h := make([][]float64, k)
	for t := range h {
		h[t] = make([]float64, cols)
		for j := range h[t] {
			h[t][j] = 1 + 0.01*float64((t*13+j*7)%5)
		}
	}

	for iter := 0; iter < nmfIterations; iter++ {
		// H update: H <- H * (WtX) / (WtWH)
		wtx := matMul(transpose(w), x)
		wtwh := matMul(matMul(transpose(w), w), h)
		for t := 0; t < k; t++ {
			for j := 0; j < cols; j++ {
				h[t][j] *= wtx[t][j] / (wtwh[t][j] + eps)
			}
		}
		// W update: W <- W * (XHt) / (WHHt)
		xht := matMul(x, transpose(h))
		whht := matMul(w, matMul(h, transpose(h)))
		for i := 0; i < rows; i++ {
			for t := 0; t < k; t++ {
				w[i][t] *= xht[i][t] / (whht[i][t] + eps)
			}
		}
	}
	return w, h
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([][]float64, len(m[0]))
	for j := range out {
		out[j] = make([]float64, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func matMul(a, b [][]float64) [][]float64 {
	rows, inner, cols := len(a), len(b), len(b[0])
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for t := 0; t < inner; t++ {
			if a[i][t] == 0 {
				continue
			}
			for j := 0; j < cols; j++ {
				out[i][j] += a[i][t] * b[t][j]
			}
		}
	}
	return out
}

// topIndices returns the indices of the n largest weights in descending
// order, skipping zero weights.
func topIndices(weights []float64, n int) []int {
	idx := make([]int, 0, len(weights))
	for i, w := range weights {
		if w > 0 {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		if weights[idx[a]] != weights[idx[b]] {
			return weights[idx[a]] > weights[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
