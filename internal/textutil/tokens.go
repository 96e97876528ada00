// Package textutil provides the text primitives behind context budgeting:
// heuristic token estimation, sentence splitting, and keyword extraction.
package textutil

// TokenEstimator approximates how many LLM tokens a piece of text costs.
// The default heuristic is rough; it only needs to be deterministic and
// monotonic so the assembler's budgeting stays stable.
// Swap in a real tokenizer here if exact counts ever matter.
type TokenEstimator interface {
	Estimate(text string) int
}

// Per-bucket weights, tuned for mixed Chinese/English prose:
// a CJK ideograph is worth more than an English word, which is worth
// more than punctuation or digits.
const (
	cjkWeight   = 1.5
	wordWeight  = 1.3
	otherWeight = 0.5
)

// HeuristicEstimator estimates tokens by classifying runes into three
// buckets: CJK ideographs, ASCII-alphabetic words, and everything else.
type HeuristicEstimator struct{}

// Estimate returns a non-negative token estimate: 0 for empty text,
// at least 1 for anything else.
func (HeuristicEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	var cjk, words, wordChars, total int
	inWord := false
	for _, r := range text {
		total++
		switch {
		case r >= 0x4e00 && r <= 0x9fff:
			cjk++
			inWord = false
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			wordChars++
			if !inWord {
				words++
				inWord = true
			}
		default:
			inWord = false
		}
	}

	other := total - cjk - wordChars
	estimate := int(float64(cjk)*cjkWeight + float64(words)*wordWeight + float64(other)*otherWeight)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}
