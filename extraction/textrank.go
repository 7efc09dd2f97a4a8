package extraction

import (
	"math"
	"sort"
	"strings"
)

// TextRank parameters. The damping factor follows the original PageRank
// formulation; iteration stops early once scores move less than the
// tolerance.
const (
	textRankWindow     = 5
	textRankDamping    = 0.85
	textRankIterations = 100
	textRankTolerance  = 1e-6
)

// textRankScores computes word centrality over a co-occurrence graph.
// Words co-occurring within textRankWindow positions inside a sentence
// are linked; scores are normalized so the highest-ranked word is 1.
func textRankScores(sentences []string) map[string]float64 {
	adjacency := make(map[string]map[string]bool)
	link := func(a, b string) {
		if a == b {
			return
		}
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]bool)
		}
		if adjacency[b] == nil {
			adjacency[b] = make(map[string]bool)
		}
		adjacency[a][b] = true
		adjacency[b][a] = true
	}

	for _, sentence := range sentences {
		words := contentWords(sentence)
		for i, w := range words {
			if len(w) < 3 {
				continue
			}
			for j := i + 1; j < len(words) && j <= i+textRankWindow; j++ {
				if len(words[j]) < 3 {
					continue
				}
				link(w, words[j])
			}
		}
	}
	if len(adjacency) == 0 {
		return nil
	}

	nodes := make([]string, 0, len(adjacency))
	for w := range adjacency {
		nodes = append(nodes, w)
	}
	sort.Strings(nodes)

	scores := make(map[string]float64, len(nodes))
	for _, w := range nodes {
		scores[w] = 1.0
	}

	for iter := 0; iter < textRankIterations; iter++ {
		next := make(map[string]float64, len(nodes))
		var maxDelta float64
		for _, w := range nodes {
			var rank float64
			for neighbor := range adjacency[w] {
				degree := len(adjacency[neighbor])
				if degree > 0 {
					rank += scores[neighbor] / float64(degree)
				}
			}
			next[w] = (1 - textRankDamping) + textRankDamping*rank
			if delta := math.Abs(next[w] - scores[w]); delta > maxDelta {
				maxDelta = delta
			}
		}
		scores = next
		if maxDelta < textRankTolerance {
			break
		}
	}

	var maxScore float64
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore > 0 {
		for w := range scores {
			scores[w] /= maxScore
		}
	}
	return scores
}

// phraseCentrality scores a multi-word phrase as the mean centrality of
// its constituent words. Words absent from the graph score zero. The
// second return is false when no constituent word is known.
func phraseCentrality(phrase string, scores map[string]float64) (float64, bool) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return 0, false
	}
	var sum float64
	known := false
	for _, w := range words {
		if s, ok := scores[w]; ok {
			sum += s
			known = true
		}
	}
	if !known {
		return 0, false
	}
	return sum / float64(len(words)), true
}
