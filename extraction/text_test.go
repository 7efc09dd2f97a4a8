package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentencesDropsShortFragments(t *testing.T) {
	text := "Go. Neural networks learn representations from data. What is a graph? Ok."
	sentences := splitSentences(text)

	assert.Len(t, sentences, 2)
	assert.Equal(t, "Neural networks learn representations from data.", sentences[0])
	assert.Equal(t, "What is a graph?", sentences[1])
}

func TestSplitSentencesKeepsUnterminatedTail(t *testing.T) {
	sentences := splitSentences("this tail has no final punctuation")
	assert.Len(t, sentences, 1)
}

func TestTokenizeWordsStripsPunctuation(t *testing.T) {
	words := tokenizeWords("State-of-the-art models (e.g., BERT) work well!")
	assert.Contains(t, words, "state-of-the-art")
	assert.Contains(t, words, "bert")
	assert.NotContains(t, words, "(e.g.,")
}

func TestContentWordsRemovesStopWords(t *testing.T) {
	words := contentWords("the quick brown fox is in the yard")
	assert.Equal(t, []string{"quick", "brown", "fox", "yard"}, words)
}

func TestCandidatePhrasesBoundaries(t *testing.T) {
	phrases := candidatePhrases("Convolutional neural networks classify images of handwritten digits.")

	assert.Contains(t, phrases, "convolutional neural networks")
	assert.Contains(t, phrases, "neural networks")
	for _, p := range phrases {
		words := tokenizeWords(p)
		assert.GreaterOrEqual(t, len(words), 2)
		assert.LessOrEqual(t, len(words), 4)
		assert.False(t, stopWords[words[0]], "phrase %q starts with stop word", p)
		assert.False(t, stopWords[words[len(words)-1]], "phrase %q ends with stop word", p)
	}
}

func TestCandidatePhrasesSkipsNumeric(t *testing.T) {
	phrases := candidatePhrases("The model reached 98 percent accuracy on the benchmark.")
	for _, p := range phrases {
		assert.NotContains(t, p, "98")
	}
}

func TestOnlyPronouns(t *testing.T) {
	assert.True(t, onlyPronouns("they them"))
	assert.True(t, onlyPronouns(""))
	assert.False(t, onlyPronouns("these models"))
}
