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
	"regexp"
	"strings"

	"github.com/poiesic/conceptry/core"
)

// Relevance scores assigned by the rule-based passes.
const (
	ontologyRelevance     = 0.9
	hearstParentRelevance = 0.8
	hearstChildRelevance  = 0.7
	phraseRelevance       = 0.6
)

// minPhraseLength is the shortest raw phrase the noun-phrase pass keeps.
const minPhraseLength = 6

var (
	// Capitalized multi-word sequences such as "Support Vector Machines".
	capitalizedPhrasePattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)+\b`)

	// Hyphenated technical terms such as "state-of-the-art".
	hyphenatedTermPattern = regexp.MustCompile(`\b[a-zA-Z]+(?:-[a-zA-Z]+)+\b`)

	// Common technical noun-phrase shapes: "<modifier> <head>" pairs built
	// from frequent scientific suffixes.
	technicalPhrasePattern = regexp.MustCompile(`\b[a-z]+(?:ing|tion|sion|ment|ysis|ical|ive|ural)\s+(?:system|model|method|approach|algorithm|network|framework|technique|analysis|learning|process)s?\b`)
)

// hearstPattern pairs a compiled hypernym pattern with the roles of its
// capture groups. Group 1 and group 2 are the parent and child spans in
// the order given by parentFirst.
type hearstPattern struct {
	re          *regexp.Regexp
	parentFirst bool
}

// The classic Hearst patterns for "X such as Y" style hypernymy.
var hearstPatterns = []hearstPattern{
	{regexp.MustCompile(`(?i)([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,4})\s+such\s+as\s+([^.;:!?]+)`), true},
	{regexp.MustCompile(`(?i)([^.;:!?]+?),?\s+and\s+other\s+([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,4})`), false},
	{regexp.MustCompile(`(?i)([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,4}),?\s+including\s+([^.;:!?]+)`), true},
	{regexp.MustCompile(`(?i)([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,4}),\s+especially\s+([^.;:!?]+)`), true},
	{regexp.MustCompile(`(?i)([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,4})\s+like\s+([^.;:!?]+)`), true},
}

// Trailing verb clauses cut off the end of a Hearst span.
var trailingClausePattern = regexp.MustCompile(`(?i)\s+(?:is|are|was|were|can|could|may|might|will|would|has|have|had|provides?|offers?|enables?|reduces?|improves?|requires?|uses?|supports?|allows?|helps?|makes?|performs?|achieves?|remains?|becomes?)\b.*$`)

// RuleBasedStrategy extracts concepts using linguistic patterns: noun
// phrase shapes, Hearst hypernym patterns, and domain ontology lookup.
// It needs no embedder and never performs I/O.
type RuleBasedStrategy struct {
	ontology DomainOntology
	logger   *slog.Logger
}

// RuleBasedOption configures a RuleBasedStrategy.
type RuleBasedOption func(*RuleBasedStrategy)

// WithOntology replaces the strategy's domain ontology.
func WithOntology(ontology DomainOntology) RuleBasedOption {
	return func(s *RuleBasedStrategy) {
		s.ontology = ontology
	}
}

// WithRuleBasedLogger sets the logger.
func WithRuleBasedLogger(logger *slog.Logger) RuleBasedOption {
	return func(s *RuleBasedStrategy) {
		s.logger = logger.With("component", "rule-based-strategy")
	}
}

// NewRuleBasedStrategy creates a rule-based strategy with the default
// ontology unless overridden.
func NewRuleBasedStrategy(opts ...RuleBasedOption) *RuleBasedStrategy {
	s := &RuleBasedStrategy{
		ontology: DefaultOntology(),
		logger:   slog.Default().With("component", "rule-based-strategy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the strategy identifier.
func (s *RuleBasedStrategy) Name() string { return StrategyRuleBased }

// ExtractConcepts runs the pattern passes over text. The hierarchical
// pattern pass is gated by cfg.ExtractHierarchies and the ontology pass
// by cfg.UseDomainOntology; the noun-phrase pass always runs.
func (s *RuleBasedStrategy) ExtractConcepts(ctx context.Context, text string, cfg core.StrategyConfiguration) (core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return core.ExtractionResult{}, err
	}

	normalized := normalizeWhitespace(text)
	var concepts []core.Concept

	concepts = append(concepts, s.extractNounPhrases(normalized)...)

	hierarchyPairs := 0
	if cfg.ExtractHierarchies {
		linked := s.extractHierarchicalPairs(normalized)
		hierarchyPairs = len(linked) / 2
		concepts = append(concepts, linked...)
	}

	ontologyMatches := 0
	if cfg.UseDomainOntology {
		matched := s.matchOntology(normalized)
		ontologyMatches = len(matched)
		concepts = append(concepts, matched...)
	}

	merged := mergeByText(concepts)
	kept := merged[:0]
	for _, c := range merged {
		if c.Frequency() >= cfg.MinConceptFrequency {
			kept = append(kept, c)
		}
	}
	sortByRelevance(kept)
	kept = truncateConcepts(kept, cfg.MaxConceptsPerStrategy)

	s.logger.Debug("rule-based extraction complete",
		"concepts", len(kept),
		"hierarchy_pairs", hierarchyPairs,
		"ontology_matches", ontologyMatches)

	result := core.NewExtractionResult(kept)
	result.Metadata["strategy"] = s.Name()
	result.Metadata["hierarchy_pairs"] = hierarchyPairs
	result.Metadata["ontology_matches"] = ontologyMatches
	return result, nil
}

// extractNounPhrases finds candidate phrases by surface shape and counts
// their occurrences.
func (s *RuleBasedStrategy) extractNounPhrases(text string) []core.Concept {
	counts := make(map[string]int)
	var order []string

	record := func(raw string) {
		phrase := strings.TrimSpace(raw)
		if len(phrase) < minPhraseLength || onlyPronouns(phrase) {
			return
		}
		key := core.NormalizeText(phrase)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	for _, m := range capitalizedPhrasePattern.FindAllString(text, -1) {
		record(m)
	}
	for _, m := range hyphenatedTermPattern.FindAllString(text, -1) {
		record(m)
	}
	lower := strings.ToLower(text)
	for _, m := range technicalPhrasePattern.FindAllString(lower, -1) {
		record(m)
	}

	concepts := make([]core.Concept, 0, len(order))
	for _, key := range order {
		if c, ok := newValidatedConcept(key, counts[key], phraseRelevance, core.MethodRuleBased); ok {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// extractHierarchicalPairs applies the Hearst patterns, emitting a parent
// concept and a child concept per discovered pair with the relationship
// recorded on both sides.
func (s *RuleBasedStrategy) extractHierarchicalPairs(text string) []core.Concept {
	var concepts []core.Concept
	for _, sentence := range splitSentences(text) {
		for _, pattern := range hearstPatterns {
			for _, match := range pattern.re.FindAllStringSubmatch(sentence, -1) {
				parentSpan, childSpan := match[1], match[2]
				if !pattern.parentFirst {
					parentSpan, childSpan = childSpan, parentSpan
				}
				parent := cleanHearstSpan(parentSpan)
				if parent == "" || onlyPronouns(parent) {
					continue
				}
				for _, child := range splitChildList(childSpan) {
					if child == "" || onlyPronouns(child) || core.NormalizeText(child) == core.NormalizeText(parent) {
						continue
					}
					pc, ok := newValidatedConcept(parent, 1, hearstParentRelevance, core.MethodRuleBased)
					if !ok {
						continue
					}
					cc, ok := newValidatedConcept(child, 1, hearstChildRelevance, core.MethodRuleBased)
					if !ok {
						continue
					}
					pc, err := pc.WithChild(cc.Text())
					if err != nil {
						continue
					}
					cc, err = cc.WithParent(pc.Text())
					if err != nil {
						continue
					}
					concepts = append(concepts, pc, cc)
				}
			}
		}
	}
	return concepts
}

// matchOntology scans for every ontology term, emitting a concept per
// matched term tagged with its category as the initial cluster.
func (s *RuleBasedStrategy) matchOntology(text string) []core.Concept {
	lower := strings.ToLower(text)
	var concepts []core.Concept
	for _, entry := range s.ontology.termsFor() {
		count := countTermOccurrences(lower, strings.ToLower(entry.term))
		if count == 0 {
			continue
		}
		c, ok := newValidatedConcept(entry.term, count, ontologyRelevance, core.MethodRuleBased)
		if !ok {
			continue
		}
		concepts = append(concepts, c.WithCluster(entry.category))
	}
	return concepts
}

// countTermOccurrences counts whole-word occurrences of term in text.
// Both arguments must already be lowercase.
func countTermOccurrences(text, term string) int {
	count := 0
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			break
		}
		pos := start + idx
		end := pos + len(term)
		if boundaryBefore(text, pos) && boundaryAfter(text, end) {
			count++
		}
		start = pos + len(term)
	}
	return count
}

func boundaryBefore(text string, pos int) bool {
	return pos == 0 || !isWordByte(text[pos-1])
}

func boundaryAfter(text string, end int) bool {
	return end >= len(text) || !isWordByte(text[end])
}

func isWordByte(b byte) bool {
	return b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// cleanHearstSpan trims a matched span down to its noun phrase, cutting
// any trailing verb clause and dropping leading stop words.
func cleanHearstSpan(span string) string {
	span = trailingClausePattern.ReplaceAllString(span, "")
	words := strings.Fields(strings.TrimSpace(span))
	for len(words) > 0 && stopWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// splitChildList splits a Hearst child span into individual terms,
// cutting each at any trailing verb clause.
func splitChildList(span string) []string {
	span = trailingClausePattern.ReplaceAllString(span, "")
	span = strings.ReplaceAll(span, " and ", ",")
	span = strings.ReplaceAll(span, " or ", ",")
	var children []string
	for _, part := range strings.Split(span, ",") {
		child := cleanHearstSpan(part)
		if child != "" {
			children = append(children, child)
		}
	}
	return children
}

// mergeByText consolidates concepts sharing normalized text: frequencies
// are summed, the highest relevance wins, and relationship sets are
// unioned. Input order of first appearance is preserved.
func mergeByText(concepts []core.Concept) []core.Concept {
	merged := make(map[string]core.Concept)
	var order []string
	for _, c := range concepts {
		existing, ok := merged[c.Key()]
		if !ok {
			merged[c.Key()] = c
			order = append(order, c.Key())
			continue
		}
		combined, err := existing.WithFrequency(existing.Frequency() + c.Frequency())
		if err != nil {
			continue
		}
		if c.RelevanceScore() > combined.RelevanceScore() {
			combined, _ = combined.WithRelevance(c.RelevanceScore())
		}
		for _, p := range c.ParentConcepts() {
			if next, err := combined.WithParent(p); err == nil {
				combined = next
			}
		}
		for _, ch := range c.ChildConcepts() {
			if next, err := combined.WithChild(ch); err == nil {
				combined = next
			}
		}
		for _, syn := range c.Synonyms() {
			combined = combined.WithSynonym(syn)
		}
		if combined.ClusterID() == "" && c.ClusterID() != "" {
			combined = combined.WithCluster(c.ClusterID())
		}
		merged[c.Key()] = combined
	}
	out := make([]core.Concept, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}
