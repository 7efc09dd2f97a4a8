package core

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is derived from content-based hashing so that identical
// normalized text always yields the same identifier.
type ID uint64

// IDFromText generates a deterministic ID from text using BLAKE2b hashing.
func IDFromText(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ExtractionMethod identifies which algorithm produced a concept.
type ExtractionMethod string

// Known extraction methods.
const (
	MethodRuleBased           ExtractionMethod = "rule_based"
	MethodTFIDF               ExtractionMethod = "tfidf"
	MethodKeyword             ExtractionMethod = "keyword"
	MethodSemanticEmbedding   ExtractionMethod = "semantic_embedding"
	MethodSentenceTransformer ExtractionMethod = "sentence_transformer"
	MethodManual              ExtractionMethod = "manual"
	MethodUnknown             ExtractionMethod = "unknown"
	MethodMultiStrategy       ExtractionMethod = "multi_strategy"
	MethodStatistical         ExtractionMethod = "statistical"
	MethodEmbeddingBased      ExtractionMethod = "embedding_based"
)

var knownMethods = map[ExtractionMethod]bool{
	MethodRuleBased:           true,
	MethodTFIDF:               true,
	MethodKeyword:             true,
	MethodSemanticEmbedding:   true,
	MethodSentenceTransformer: true,
	MethodManual:              true,
	MethodUnknown:             true,
	MethodMultiStrategy:       true,
	MethodStatistical:         true,
	MethodEmbeddingBased:      true,
}

// Valid reports whether the method belongs to the known set.
func (m ExtractionMethod) Valid() bool {
	return knownMethods[m]
}

// NormalizeText lowercases text and collapses runs of whitespace to a
// single space. The result is the identity key for concepts.
func NormalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// scoreInRange reports whether v lies in [0,1]. NaN fails both
// comparisons, so non-finite scores are rejected too.
func scoreInRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Concept is a scored term or phrase extracted from text.
//
// Identity is the normalized text: two concepts are equal exactly when
// their normalized texts are equal. Concepts are immutable values; every
// WithX method validates its argument and returns a new Concept, leaving
// the receiver untouched.
type Concept struct {
	text         string
	frequency    int
	relevance    float64
	method       ExtractionMethod
	sourcePapers map[string]struct{}
	synonyms     map[string]struct{}
	embedding    *EmbeddingVector
	parents      map[string]struct{}
	children     map[string]struct{}
	level        int
	clusterID    string
	evidence     float64
}

// NewConcept creates a validated Concept. The text is normalized before
// validation; frequency must be non-negative and relevance within [0,1].
func NewConcept(text string, frequency int, relevance float64, method ExtractionMethod) (Concept, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptText)
	}
	if frequency < 0 {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrNegativeFrequency)
	}
	if !scoreInRange(relevance) {
		return Concept{}, fmt.Errorf("%w: relevance: %w", ErrInvalidConcept, ErrScoreOutOfRange)
	}
	if !method.Valid() {
		return Concept{}, fmt.Errorf("%w: %w: %q", ErrInvalidConcept, ErrUnknownExtractionMethod, method)
	}
	return Concept{
		text:      normalized,
		frequency: frequency,
		relevance: relevance,
		method:    method,
	}, nil
}

// Text returns the normalized concept text.
func (c Concept) Text() string { return c.text }

// Key returns the identity key of the concept. It is an alias for Text,
// kept separate so call sites that build maps read naturally.
func (c Concept) Key() string { return c.text }

// ID returns the content-hash identifier of the concept.
func (c Concept) ID() ID { return IDFromText(c.text) }

// Frequency returns how many times the concept was observed.
func (c Concept) Frequency() int { return c.frequency }

// RelevanceScore returns the relevance score in [0,1].
func (c Concept) RelevanceScore() float64 { return c.relevance }

// Method returns the extraction method that produced the concept.
func (c Concept) Method() ExtractionMethod { return c.method }

// ConceptLevel returns the hierarchy level (0 = root).
func (c Concept) ConceptLevel() int { return c.level }

// ClusterID returns the assigned cluster identifier, empty if unclustered.
func (c Concept) ClusterID() string { return c.clusterID }

// EvidenceStrength returns the evidence score in [0,1].
func (c Concept) EvidenceStrength() float64 { return c.evidence }

// Embedding returns the attached embedding vector, if any.
func (c Concept) Embedding() (EmbeddingVector, bool) {
	if c.embedding == nil {
		return EmbeddingVector{}, false
	}
	return *c.embedding, true
}

// SourcePapers returns the provenance identifiers in sorted order.
func (c Concept) SourcePapers() []string { return sortedKeys(c.sourcePapers) }

// Synonyms returns the merged synonym set in sorted order.
func (c Concept) Synonyms() []string { return sortedKeys(c.synonyms) }

// ParentConcepts returns the parent concept keys in sorted order.
func (c Concept) ParentConcepts() []string { return sortedKeys(c.parents) }

// ChildConcepts returns the child concept keys in sorted order.
func (c Concept) ChildConcepts() []string { return sortedKeys(c.children) }

// HasParent reports whether the normalized key is among the parents.
func (c Concept) HasParent(key string) bool {
	_, ok := c.parents[NormalizeText(key)]
	return ok
}

// HasChild reports whether the normalized key is among the children.
func (c Concept) HasChild(key string) bool {
	_, ok := c.children[NormalizeText(key)]
	return ok
}

// Equal reports whether two concepts share the same identity.
func (c Concept) Equal(other Concept) bool { return c.text == other.text }

// WithFrequency returns a copy with the frequency replaced.
func (c Concept) WithFrequency(frequency int) (Concept, error) {
	if frequency < 0 {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrNegativeFrequency)
	}
	next := c.clone()
	next.frequency = frequency
	return next, nil
}

// WithRelevance returns a copy with the relevance score replaced.
func (c Concept) WithRelevance(relevance float64) (Concept, error) {
	if !scoreInRange(relevance) {
		return Concept{}, fmt.Errorf("%w: relevance: %w", ErrInvalidConcept, ErrScoreOutOfRange)
	}
	next := c.clone()
	next.relevance = relevance
	return next, nil
}

// WithMethod returns a copy with the extraction method replaced.
func (c Concept) WithMethod(method ExtractionMethod) (Concept, error) {
	if !method.Valid() {
		return Concept{}, fmt.Errorf("%w: %w: %q", ErrInvalidConcept, ErrUnknownExtractionMethod, method)
	}
	next := c.clone()
	next.method = method
	return next, nil
}

// WithSourcePaper returns a copy recording an additional paper occurrence.
// The frequency is incremented only when the paper was not already known.
func (c Concept) WithSourcePaper(doi string) Concept {
	doi = strings.TrimSpace(doi)
	next := c.clone()
	if doi == "" {
		return next
	}
	if _, seen := next.sourcePapers[doi]; !seen {
		next.sourcePapers[doi] = struct{}{}
		next.frequency++
	}
	return next
}

// WithSynonym returns a copy with the synonym merged in. A synonym equal
// to the concept's own normalized text is ignored.
func (c Concept) WithSynonym(synonym string) Concept {
	normalized := NormalizeText(synonym)
	next := c.clone()
	if normalized == "" || normalized == c.text {
		return next
	}
	next.synonyms[normalized] = struct{}{}
	return next
}

// WithParent returns a copy with the parent key added. Adding the concept
// itself (after normalization) is rejected.
func (c Concept) WithParent(parent string) (Concept, error) {
	normalized := NormalizeText(parent)
	if normalized == "" {
		return Concept{}, fmt.Errorf("%w: parent: %w", ErrInvalidConcept, ErrEmptyConceptText)
	}
	if normalized == c.text {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrSelfReference)
	}
	next := c.clone()
	next.parents[normalized] = struct{}{}
	return next, nil
}

// WithChild returns a copy with the child key added. Adding the concept
// itself (after normalization) is rejected.
func (c Concept) WithChild(child string) (Concept, error) {
	normalized := NormalizeText(child)
	if normalized == "" {
		return Concept{}, fmt.Errorf("%w: child: %w", ErrInvalidConcept, ErrEmptyConceptText)
	}
	if normalized == c.text {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrSelfReference)
	}
	next := c.clone()
	next.children[normalized] = struct{}{}
	return next, nil
}

// WithLevel returns a copy with the hierarchy level replaced.
func (c Concept) WithLevel(level int) (Concept, error) {
	if level < 0 {
		return Concept{}, fmt.Errorf("%w: %w", ErrInvalidConcept, ErrNegativeLevel)
	}
	next := c.clone()
	next.level = level
	return next, nil
}

// WithCluster returns a copy with the cluster identifier set.
func (c Concept) WithCluster(clusterID string) Concept {
	next := c.clone()
	next.clusterID = clusterID
	return next
}

// WithEvidence returns a copy with the evidence strength replaced.
func (c Concept) WithEvidence(evidence float64) (Concept, error) {
	if !scoreInRange(evidence) {
		return Concept{}, fmt.Errorf("%w: evidence: %w", ErrInvalidConcept, ErrScoreOutOfRange)
	}
	next := c.clone()
	next.evidence = evidence
	return next, nil
}

// WithoutRelations returns a copy with the parent and child sets
// cleared. Callers that rebuild the relationship structure, like the
// hierarchy builder, start from this.
func (c Concept) WithoutRelations() Concept {
	next := c.clone()
	next.parents = make(map[string]struct{})
	next.children = make(map[string]struct{})
	return next
}

// WithEmbedding returns a copy with the embedding vector attached.
func (c Concept) WithEmbedding(vector EmbeddingVector) Concept {
	next := c.clone()
	next.embedding = &vector
	return next
}

// clone performs a deep copy so WithX methods never share map state
// with the receiver.
func (c Concept) clone() Concept {
	next := c
	next.sourcePapers = copySet(c.sourcePapers)
	next.synonyms = copySet(c.synonyms)
	next.parents = copySet(c.parents)
	next.children = copySet(c.children)
	if c.embedding != nil {
		embedding := *c.embedding
		next.embedding = &embedding
	}
	return next
}

func copySet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
