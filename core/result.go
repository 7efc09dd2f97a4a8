package core

// ExtractionResult carries the ordered concepts produced by one strategy
// run (or a fused orchestrator run) together with free-form metadata
// describing how they were produced.
type ExtractionResult struct {
	Concepts []Concept
	Metadata map[string]any
}

// NewExtractionResult creates a result with an initialized metadata map.
func NewExtractionResult(concepts []Concept) ExtractionResult {
	return ExtractionResult{
		Concepts: concepts,
		Metadata: make(map[string]any),
	}
}

// TotalConcepts returns the number of concepts in the result.
func (r ExtractionResult) TotalConcepts() int { return len(r.Concepts) }

// TotalFrequency returns the sum of all concept frequencies.
func (r ExtractionResult) TotalFrequency() int {
	total := 0
	for _, c := range r.Concepts {
		total += c.Frequency()
	}
	return total
}

// AverageRelevance returns the mean relevance score, or 0 for an empty
// result.
func (r ExtractionResult) AverageRelevance() float64 {
	if len(r.Concepts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range r.Concepts {
		sum += c.RelevanceScore()
	}
	return sum / float64(len(r.Concepts))
}

// FilterByRelevance returns a new result keeping only concepts with
// relevance >= min. Metadata is shared with the receiver.
func (r ExtractionResult) FilterByRelevance(min float64) ExtractionResult {
	kept := make([]Concept, 0, len(r.Concepts))
	for _, c := range r.Concepts {
		if c.RelevanceScore() >= min {
			kept = append(kept, c)
		}
	}
	return ExtractionResult{Concepts: kept, Metadata: r.Metadata}
}

// FilterByFrequency returns a new result keeping only concepts with
// frequency >= min. Metadata is shared with the receiver.
func (r ExtractionResult) FilterByFrequency(min int) ExtractionResult {
	kept := make([]Concept, 0, len(r.Concepts))
	for _, c := range r.Concepts {
		if c.Frequency() >= min {
			kept = append(kept, c)
		}
	}
	return ExtractionResult{Concepts: kept, Metadata: r.Metadata}
}

// TopicResult is one discovered topic: its top concepts, a coherence
// score, and the topic index it came from.
type TopicResult struct {
	TopicID   int
	Concepts  []Concept
	Coherence float64
}

// DocumentCluster groups whole documents by embedding similarity.
// Members are indices into the clustered document slice.
type DocumentCluster struct {
	ClusterID string
	Members   []int
	Centroid  EmbeddingVector
	Coherence float64
}
