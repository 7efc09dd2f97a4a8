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

package hierarchy

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/conceptry/core"
)

// Builder defaults.
const (
	defaultParentChildThreshold = 0.7
	defaultClusterThreshold     = 0.7
	defaultFrequencyRatio       = 1.5
	defaultEvidenceWeight       = 0.2
)

// Builder organizes a flat concept list into a semantic hierarchy:
// parent-child links from embedding similarity and frequency asymmetry,
// breadth-first levels, similarity clusters, and per-concept evidence
// strength. Build never mutates its input.
type Builder struct {
	parentChildThreshold float64
	clusterThreshold     float64
	frequencyRatio       float64
	evidenceWeight       float64
	logger               *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithParentChildThreshold sets the minimum cosine similarity for a
// parent-child candidate pair.
func WithParentChildThreshold(threshold float64) Option {
	return func(b *Builder) { b.parentChildThreshold = threshold }
}

// WithClusterThreshold sets the minimum cosine similarity for cluster
// membership.
func WithClusterThreshold(threshold float64) Option {
	return func(b *Builder) { b.clusterThreshold = threshold }
}

// WithFrequencyRatio sets how much more frequent a parent must be than
// its child. Pairs whose frequencies are closer than this ratio in both
// directions produce no edge.
func WithFrequencyRatio(ratio float64) Option {
	return func(b *Builder) { b.frequencyRatio = ratio }
}

// WithEvidenceWeight sets the weight of literal source-text occurrences
// in the evidence score.
func WithEvidenceWeight(weight float64) Option {
	return func(b *Builder) { b.evidenceWeight = weight }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger.With("component", "hierarchy-builder") }
}

// NewBuilder creates a Builder with default thresholds.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		parentChildThreshold: defaultParentChildThreshold,
		clusterThreshold:     defaultClusterThreshold,
		frequencyRatio:       defaultFrequencyRatio,
		evidenceWeight:       defaultEvidenceWeight,
		logger:               slog.Default().With("component", "hierarchy-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// edge is a directed parent-child candidate.
type edge struct {
	parent, child string
	similarity    float64
}

// Build returns a new concept list enriched with parent-child links,
// levels, cluster assignments, and evidence strengths. Relationship
// links already present on the input are preserved unless they would
// close a cycle; the surviving links participate in cycle detection and
// level assignment. Concepts without embeddings take part in neither
// linking nor clustering but still receive a level and an evidence
// score.
func (b *Builder) Build(concepts []core.Concept, sourceText string) ([]core.Concept, error) {
	if len(concepts) == 0 {
		return nil, nil
	}

	working := make([]core.Concept, len(concepts))
	copy(working, concepts)
	byKey := make(map[string]int, len(working))
	for i, c := range working {
		byKey[c.Key()] = i
	}

	parentsOf := make(map[string]map[string]bool)
	childrenOf := make(map[string]map[string]bool)
	addLink := func(parent, child string) {
		if parentsOf[child] == nil {
			parentsOf[child] = make(map[string]bool)
		}
		if childrenOf[parent] == nil {
			childrenOf[parent] = make(map[string]bool)
		}
		parentsOf[child][parent] = true
		childrenOf[parent][child] = true
	}

	// Seed with links the extraction phase already discovered, limited
	// to concepts actually present. Seeded links pass the same cycle
	// rejection as detected edges: mutually linked inputs keep only the
	// first link in input order.
	for _, c := range working {
		for _, p := range c.ParentConcepts() {
			if _, ok := byKey[p]; !ok {
				continue
			}
			if parentsOf[c.Key()][p] || reachable(parentsOf, p, c.Key()) {
				continue
			}
			addLink(p, c.Key())
		}
		for _, ch := range c.ChildConcepts() {
			if _, ok := byKey[ch]; !ok {
				continue
			}
			if parentsOf[ch][c.Key()] || reachable(parentsOf, c.Key(), ch) {
				continue
			}
			addLink(c.Key(), ch)
		}
	}

	edges := b.candidateEdges(working)
	accepted := 0
	for _, e := range edges {
		if parentsOf[e.child][e.parent] {
			continue
		}
		if reachable(parentsOf, e.parent, e.child) {
			// The child is already an ancestor of the parent; the edge
			// would close a cycle.
			continue
		}
		addLink(e.parent, e.child)
		accepted++
	}

	for i, c := range working {
		key := c.Key()
		// Relation sets are rebuilt from the accepted link maps so that
		// rejected input links do not survive. Links pointing outside
		// this concept set are kept as-is.
		next := c.WithoutRelations()
		for _, p := range c.ParentConcepts() {
			if _, present := byKey[p]; present {
				continue
			}
			updated, err := next.WithParent(p)
			if err != nil {
				return nil, fmt.Errorf("linking %q under %q: %w", key, p, err)
			}
			next = updated
		}
		for _, ch := range c.ChildConcepts() {
			if _, present := byKey[ch]; present {
				continue
			}
			updated, err := next.WithChild(ch)
			if err != nil {
				return nil, fmt.Errorf("linking %q over %q: %w", key, ch, err)
			}
			next = updated
		}
		for p := range parentsOf[key] {
			updated, err := next.WithParent(p)
			if err != nil {
				return nil, fmt.Errorf("linking %q under %q: %w", key, p, err)
			}
			next = updated
		}
		for ch := range childrenOf[key] {
			updated, err := next.WithChild(ch)
			if err != nil {
				return nil, fmt.Errorf("linking %q over %q: %w", key, ch, err)
			}
			next = updated
		}
		working[i] = next
	}

	if err := assignLevels(working, byKey, parentsOf, childrenOf); err != nil {
		return nil, err
	}
	b.assignClusters(working)
	if err := b.assignEvidence(working, sourceText); err != nil {
		return nil, err
	}

	b.logger.Debug("hierarchy built",
		"concepts", len(working), "edges", accepted)
	return working, nil
}

// candidateEdges proposes directed edges for every embedded pair that
// clears the similarity threshold and shows a material frequency
// asymmetry. Ordering is by descending similarity, then parent and
// child text, so edge acceptance is deterministic.
func (b *Builder) candidateEdges(concepts []core.Concept) []edge {
	var edges []edge
	for i := 0; i < len(concepts); i++ {
		vi, ok := concepts[i].Embedding()
		if !ok {
			continue
		}
		for j := i + 1; j < len(concepts); j++ {
			vj, ok := concepts[j].Embedding()
			if !ok {
				continue
			}
			sim, err := vi.Cosine(vj)
			if err != nil || sim < b.parentChildThreshold {
				continue
			}
			parent, child, ok := b.orient(concepts[i], concepts[j])
			if !ok {
				continue
			}
			edges = append(edges, edge{parent: parent, child: child, similarity: sim})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].similarity != edges[j].similarity {
			return edges[i].similarity > edges[j].similarity
		}
		if edges[i].parent != edges[j].parent {
			return edges[i].parent < edges[j].parent
		}
		return edges[i].child < edges[j].child
	})
	return edges
}

// orient decides the direction of a candidate pair. The more frequent
// concept is the parent; when neither frequency exceeds the other by
// the configured ratio the pair is dropped.
func (b *Builder) orient(a, c core.Concept) (parent, child string, ok bool) {
	fa, fc := float64(a.Frequency()), float64(c.Frequency())
	switch {
	case fa >= fc*b.frequencyRatio:
		return a.Key(), c.Key(), true
	case fc >= fa*b.frequencyRatio:
		return c.Key(), a.Key(), true
	default:
		return "", "", false
	}
}

// reachable reports whether target can be reached from start by walking
// parent links upward.
func reachable(parentsOf map[string]map[string]bool, start, target string) bool {
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for parent := range parentsOf[current] {
			if parent == target {
				return true
			}
			if !visited[parent] {
				visited[parent] = true
				queue = append(queue, parent)
			}
		}
	}
	return false
}

// assignLevels walks the hierarchy breadth-first from the roots. A
// concept's level is one more than the shallowest parent; concepts
// outside any relation stay at level zero.
func assignLevels(concepts []core.Concept, byKey map[string]int, parentsOf, childrenOf map[string]map[string]bool) error {
	levels := make(map[string]int, len(concepts))
	var queue []string
	for _, c := range concepts {
		if len(parentsOf[c.Key()]) == 0 {
			levels[c.Key()] = 0
			queue = append(queue, c.Key())
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for child := range childrenOf[current] {
			if _, seen := levels[child]; seen {
				continue
			}
			levels[child] = levels[current] + 1
			queue = append(queue, child)
		}
	}

	for i, c := range concepts {
		level, ok := levels[c.Key()]
		if !ok {
			// The link maps are acyclic, so the walk reaches every node;
			// anything missed is treated as a root.
			level = 0
		}
		next, err := c.WithLevel(level)
		if err != nil {
			return fmt.Errorf("assigning level to %q: %w", c.Key(), err)
		}
		concepts[i] = next
	}
	return nil
}

// assignClusters groups embedded concepts whose similarity to a group
// seed meets the cluster threshold. Clustering is independent of the
// parent-child structure; only groups of at least two members receive a
// cluster identifier.
func (b *Builder) assignClusters(concepts []core.Concept) {
	type member struct {
		index  int
		vector core.EmbeddingVector
	}
	var members []member
	for i, c := range concepts {
		if vec, ok := c.Embedding(); ok {
			members = append(members, member{index: i, vector: vec})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return concepts[members[i].index].Text() < concepts[members[j].index].Text()
	})

	assigned := make([]bool, len(members))
	for i := range members {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := []member{members[i]}
		for j := i + 1; j < len(members); j++ {
			if assigned[j] {
				continue
			}
			sim, err := members[i].vector.Cosine(members[j].vector)
			if err != nil || sim < b.clusterThreshold {
				continue
			}
			assigned[j] = true
			group = append(group, members[j])
		}
		if len(group) < 2 {
			continue
		}
		keys := make([]string, len(group))
		for k, m := range group {
			keys[k] = concepts[m.index].Key()
		}
		clusterID := fmt.Sprintf("cluster-%016x", uint64(core.IDFromText(strings.Join(keys, "|"))))
		for _, m := range group {
			concepts[m.index] = concepts[m.index].WithCluster(clusterID)
		}
	}
}

// assignEvidence scores how well each concept is supported: relevance
// and frequency form the base, and literal occurrences in the source
// text add up to evidenceWeight more. The result is clamped to [0,1].
func (b *Builder) assignEvidence(concepts []core.Concept, sourceText string) error {
	lower := core.NormalizeText(sourceText)
	for i, c := range concepts {
		freqComponent := float64(c.Frequency()) / 10
		if freqComponent > 1 {
			freqComponent = 1
		}
		evidence := 0.5*c.RelevanceScore() + 0.3*freqComponent
		if lower != "" {
			occurrences := float64(strings.Count(lower, c.Text()))
			occComponent := occurrences / 5
			if occComponent > 1 {
				occComponent = 1
			}
			evidence += b.evidenceWeight * occComponent
		}
		if evidence > 1 {
			evidence = 1
		}
		if evidence < 0 {
			evidence = 0
		}
		next, err := c.WithEvidence(evidence)
		if err != nil {
			return fmt.Errorf("scoring evidence for %q: %w", c.Key(), err)
		}
		concepts[i] = next
	}
	return nil
}
