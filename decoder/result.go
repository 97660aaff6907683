package decoder

// Hypothesis is one ranked decoding result.
type Hypothesis struct {
	Labels   []int   // emitted label indices, CTC-collapsed
	Text     string  // reconstructed text, words joined by single spaces
	Score    float64 // ScoreCTC + ScoreLM, the ranking key
	ScoreCTC float64 // acoustic-only log probability mass
	ScoreLM  float64 // weighted language model contribution
}
