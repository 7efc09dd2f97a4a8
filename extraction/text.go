package extraction

import (
	"strings"
	"unicode"
)

// Stop words filtered out during tokenization and candidate phrase
// extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "in": true,
	"that": true, "have": true, "has": true, "it": true, "for": true,
	"not": true, "on": true, "with": true, "as": true, "you": true,
	"do": true, "at": true, "this": true, "but": true, "by": true,
	"from": true, "or": true, "which": true, "their": true, "its": true,
	"these": true, "those": true, "such": true, "can": true, "may": true,
	"will": true, "other": true, "using": true, "used": true, "based": true,
	"we": true, "our": true, "they": true, "been": true, "also": true,
}

// Pronouns that disqualify a candidate phrase when they are all it contains.
var pronouns = map[string]bool{
	"i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true, "them": true, "us": true, "him": true,
	"her": true, "his": true, "hers": true, "its": true, "their": true,
	"theirs": true, "this": true, "that": true, "these": true, "those": true,
}

const minSentenceLength = 10

// normalizeWhitespace collapses runs of whitespace to single spaces.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences segments text on sentence-final punctuation.
// Fragments shorter than minSentenceLength characters are discarded.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			sentence := strings.TrimSpace(current.String())
			if len(sentence) >= minSentenceLength {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}
	if tail := strings.TrimSpace(current.String()); len(tail) >= minSentenceLength {
		sentences = append(sentences, tail)
	}
	return sentences
}

// tokenizeWords splits text into lowercase word tokens, trimming
// punctuation. Stop words are kept; callers filter when they need to.
func tokenizeWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, "-"))
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// contentWords returns the tokens of text with stop words removed.
func contentWords(text string) []string {
	words := tokenizeWords(text)
	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// candidatePhrases extracts unique 2-4 word phrases from the text.
// A phrase qualifies when neither its first nor last word is a stop word
// and no word is purely numeric.
func candidatePhrases(text string) []string {
	seen := make(map[string]bool)
	var phrases []string
	for _, sentence := range splitSentences(normalizeWhitespace(text)) {
		words := tokenizeWords(sentence)
		for n := 2; n <= 4; n++ {
			for i := 0; i+n <= len(words); i++ {
				gram := words[i : i+n]
				if stopWords[gram[0]] || stopWords[gram[len(gram)-1]] {
					continue
				}
				if hasNumericWord(gram) {
					continue
				}
				phrase := strings.Join(gram, " ")
				if !seen[phrase] {
					seen[phrase] = true
					phrases = append(phrases, phrase)
				}
			}
		}
	}
	return phrases
}

func hasNumericWord(words []string) bool {
	for _, w := range words {
		numeric := true
		for _, r := range w {
			if !unicode.IsDigit(r) {
				numeric = false
				break
			}
		}
		if numeric {
			return true
		}
	}
	return false
}

// onlyPronouns reports whether every word of the phrase is a pronoun.
func onlyPronouns(phrase string) bool {
	words := tokenizeWords(phrase)
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !pronouns[w] {
			return false
		}
	}
	return true
}
