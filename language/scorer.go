package language

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultScorerCacheSize bounds the word-score cache. Beam search asks
// for the same (history, word) pairs over and over as sibling beams
// cross the same boundaries, so even a small cache absorbs most lookups.
const DefaultScorerCacheSize = 65536

// Scorer adapts an NGramModel to per-word scoring during beam search.
// It satisfies the decoder's LanguageModel interface. The score cache is
// internal and synchronized by the LRU, so one Scorer may be shared by
// concurrent decode sessions.
type Scorer struct {
	model *NGramModel
	cache *lru.Cache[scoreKey, float64]
}

// scoreKey is the backoff context actually visible to the model: at most
// the two most recent history words plus the scored word.
type scoreKey struct {
	h1, h2 string
	word   string
}

// NewScorer wraps model for use by the decoder. cacheSize <= 0 selects
// DefaultScorerCacheSize.
func NewScorer(model *NGramModel, cacheSize int) (*Scorer, error) {
	if model == nil {
		return nil, fmt.Errorf("language: nil model")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultScorerCacheSize
	}
	cache, err := lru.New[scoreKey, float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("language: create score cache: %w", err)
	}
	return &Scorer{model: model, cache: cache}, nil
}

// ScoreWord returns the natural-log probability of word following
// history (most recent word last). An empty history scores the word as
// sentence-initial.
func (s *Scorer) ScoreWord(history []string, word string) float64 {
	key := contextKey(history, word)
	if v, ok := s.cache.Get(key); ok {
		return v
	}
	v := s.model.LogProb([]string{key.h1, key.h2}, word)
	s.cache.Add(key, v)
	return v
}

// ScoreSentenceEnd returns the log probability of the utterance ending
// after history. Callers that want end-of-sentence rescoring add this to
// a hypothesis score after Finalize.
func (s *Scorer) ScoreSentenceEnd(history []string) float64 {
	return s.ScoreWord(history, "</s>")
}

func contextKey(history []string, word string) scoreKey {
	switch {
	case len(history) >= 2:
		return scoreKey{history[len(history)-2], history[len(history)-1], word}
	case len(history) == 1:
		return scoreKey{"<s>", history[0], word}
	default:
		return scoreKey{"", "<s>", word}
	}
}
