package extraction

import "sort"

// DomainOntology maps category names to the known terms of that category.
// Matched terms are emitted as high-confidence concepts carrying their
// category as an initial cluster tag.
type DomainOntology map[string][]string

// DefaultOntology covers common research-method and systems vocabulary.
// Callers with a narrower domain should supply their own via WithOntology.
func DefaultOntology() DomainOntology {
	return DomainOntology{
		"machine_learning": {
			"machine learning", "deep learning", "neural network",
			"neural networks", "supervised learning", "unsupervised learning",
			"reinforcement learning", "transfer learning", "gradient descent",
			"support vector machine", "support vector machines",
			"random forest", "decision tree", "transformer", "attention mechanism",
		},
		"nlp": {
			"natural language processing", "language model", "word embedding",
			"word embeddings", "named entity recognition", "sentiment analysis",
			"text classification", "tokenization", "part of speech tagging",
			"topic modeling", "information extraction",
		},
		"data": {
			"data mining", "data analysis", "feature extraction",
			"feature selection", "dimensionality reduction", "clustering",
			"classification", "regression", "cross validation", "dataset",
		},
		"systems": {
			"distributed system", "distributed systems", "fault tolerance",
			"load balancing", "consensus algorithm", "message queue",
			"database", "caching", "replication", "concurrency",
		},
	}
}

// termsFor returns all terms across categories together with the
// category each belongs to, in deterministic order.
func (o DomainOntology) termsFor() []ontologyTerm {
	var terms []ontologyTerm
	for _, category := range sortedCategories(o) {
		for _, term := range o[category] {
			terms = append(terms, ontologyTerm{term: term, category: category})
		}
	}
	return terms
}

type ontologyTerm struct {
	term     string
	category string
}

func sortedCategories(o DomainOntology) []string {
	categories := make([]string, 0, len(o))
	for c := range o {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
