package driven

// Tokenizer provides deterministic token encoding for chunking.
// Stable input must yield a stable token count so overlap math is
// reproducible across runs.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Encode converts text to token ids.
	Encode(text string) []int

	// Decode converts token ids back to text.
	Decode(tokens []int) string
}
