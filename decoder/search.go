// Package decoder implements CTC prefix beam search: it turns a
// time-major matrix of per-frame label log-posteriors into the most
// likely collapsed label sequences, optionally rescored by a language
// model at word boundaries.
package decoder

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
)

// LanguageModel scores completed words at word boundaries. history holds
// the words committed so far, most recent last; the return value is a
// natural-log probability increment. Implementations must be safe for
// concurrent use from independent decode sessions.
type LanguageModel interface {
	ScoreWord(history []string, word string) float64
}

// Config holds prefix beam search parameters.
type Config struct {
	BeamWidth         int     // max beams retained after each frame
	BeamPruneLogP     float64 // frame-local candidate cutoff below the frame max
	TokenPruneMinLogP float64 // absolute candidate floor
	HistoryPrune      bool    // collapse beams sharing recent token history
	HistoryWindow     int     // labels of history compared by HistoryPrune
	TopK              int     // hypotheses returned
	SpaceIndex        int     // vocabulary index of the word separator, -1 = none
	LMWeight          float64 // scaling factor for language model scores
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		BeamWidth:         100,
		BeamPruneLogP:     -10.0,
		TokenPruneMinLogP: -5.0,
		HistoryPrune:      true,
		HistoryWindow:     2,
		TopK:              1,
		SpaceIndex:        -1,
		LMWeight:          1.0,
	}
}

// Session carries the beam search state across chunks of frames. A
// session decodes exactly one utterance: Push frames in temporal order,
// read partial results with Hypotheses, then Finalize. Sessions are not
// safe for concurrent use; run one session per utterance instead.
type Session struct {
	vocab      []string
	blankIndex int
	cfg        Config
	lm         LanguageModel
	log        *zap.Logger

	beams     *beamSet
	frame     int // frames consumed so far
	finalized bool
}

// NewSession validates the configuration and returns a fresh session.
// All configuration errors surface here, before any frame is processed.
func NewSession(vocab []string, blankIndex int, cfg Config, lm LanguageModel, log *zap.Logger) (*Session, error) {
	if len(vocab) == 0 {
		return nil, errors.New("decoder: empty vocabulary")
	}
	if blankIndex < 0 || blankIndex >= len(vocab) {
		return nil, fmt.Errorf("decoder: blank index %d out of range [0,%d)", blankIndex, len(vocab))
	}
	if cfg.SpaceIndex < -1 || cfg.SpaceIndex >= len(vocab) {
		return nil, fmt.Errorf("decoder: space index %d out of range [0,%d)", cfg.SpaceIndex, len(vocab))
	}
	if cfg.SpaceIndex == blankIndex && cfg.SpaceIndex != -1 {
		return nil, fmt.Errorf("decoder: space index %d collides with blank index", cfg.SpaceIndex)
	}
	if cfg.BeamWidth <= 0 {
		return nil, fmt.Errorf("decoder: beam width must be positive, got %d", cfg.BeamWidth)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("decoder: topk must be positive, got %d", cfg.TopK)
	}
	if cfg.HistoryPrune && cfg.HistoryWindow <= 0 {
		return nil, fmt.Errorf("decoder: history window must be positive, got %d", cfg.HistoryWindow)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		vocab:      vocab,
		blankIndex: blankIndex,
		cfg:        cfg,
		lm:         lm,
		log:        log,
		beams:      newBeamSet(),
	}, nil
}

// Decode runs prefix beam search over a whole utterance in one call.
func Decode(logProbs [][]float64, vocab []string, blankIndex int, cfg Config, lm LanguageModel, log *zap.Logger) ([]Hypothesis, error) {
	if len(logProbs) == 0 {
		return nil, errors.New("decoder: empty log-probability matrix")
	}
	s, err := NewSession(vocab, blankIndex, cfg, lm, log)
	if err != nil {
		return nil, err
	}
	if err := s.Push(logProbs); err != nil {
		return nil, err
	}
	return s.Finalize(), nil
}

// Push consumes one chunk of frames. Frames are processed strictly in
// temporal order; each frame's expansion depends on the previous frame's
// merged state, so there is no legal reordering.
func (s *Session) Push(logProbs [][]float64) error {
	if s.finalized {
		return errors.New("decoder: session already finalized")
	}
	for _, row := range logProbs {
		if len(row) != len(s.vocab) {
			return fmt.Errorf("decoder: frame %d has %d columns, vocabulary has %d", s.frame, len(row), len(s.vocab))
		}
		for i, v := range row {
			// -Inf is legal (zero probability); NaN and +Inf are not.
			if math.IsNaN(v) || math.IsInf(v, 1) {
				return fmt.Errorf("decoder: non-finite log-probability %v at frame %d, label %d", v, s.frame, i)
			}
		}
		s.expandFrame(row)
		s.frame++
	}
	s.log.Debug("processed chunk",
		zap.Int("frames_total", s.frame),
		zap.Int("live_beams", s.beams.len()))
	return nil
}

// expandFrame applies one frame of the CTC prefix search recurrence.
func (s *Session) expandFrame(row []float64) {
	maxIndex := 0
	for i, v := range row {
		if v > row[maxIndex] {
			maxIndex = i
		}
	}
	floor := row[maxIndex] + s.cfg.BeamPruneLogP

	// Candidate labels: the frame argmax plus every label above both the
	// absolute floor and the frame-local cutoff. Bounds per-frame work to
	// a small set instead of the whole vocabulary.
	candidates := make([]int, 0, 16)
	for i, v := range row {
		if i == maxIndex || (v > s.cfg.TokenPruneMinLogP && v >= floor) {
			candidates = append(candidates, i)
		}
	}

	// Expansion reads only the previous frame's settled beams. Beams
	// opened during this frame receive mass but are not themselves
	// expanded, so results cannot depend on within-frame update order.
	curr := s.beams.ranked()

	for _, tokIdx := range candidates {
		pTok := row[tokIdx]
		for _, beam := range curr {
			if tokIdx == s.blankIndex {
				// Blank never changes the prefix.
				beam.nPBlank = mathutil.LogAdd(beam.nPBlank, beam.scoreCTC+pTok)
				continue
			}
			if tokIdx == beam.lastTokenIndex {
				// A repeat with no intervening blank stays collapsed in
				// the same prefix; only the mass that crossed a blank
				// opens a second copy of the symbol.
				beam.nPNonBlank = mathutil.LogAdd(beam.nPNonBlank, beam.pNonBlank+pTok)
				s.extend(beam, tokIdx, beam.pBlank+pTok)
				continue
			}
			s.extend(beam, tokIdx, beam.scoreCTC+pTok)
		}
	}

	s.beams.advanceAll()
	s.beams.pruneToTopK(s.cfg.BeamWidth)
	if s.cfg.HistoryPrune {
		s.beams.pruneHistory(s.cfg.HistoryWindow)
	}
}

// extend contributes mass to the beam for parent's prefix plus tokIdx,
// creating it on first touch. Creation seeds the word state: a separator
// commits the parent's partial word and applies the language model; any
// other label extends the partial word.
func (s *Session) extend(parent *Beam, tokIdx int, mass float64) {
	if math.IsInf(mass, -1) {
		return
	}
	prefix := make([]int, len(parent.prefix)+1)
	copy(prefix, parent.prefix)
	prefix[len(parent.prefix)] = tokIdx

	b, created := s.beams.getOrCreate(prefix, prefixKey(prefix), mass)
	if created {
		b.lastToken = s.vocab[tokIdx]
		b.lastTokenIndex = tokIdx
		b.scoreLM = parent.scoreLM
		if tokIdx == s.cfg.SpaceIndex {
			word := parent.partialWord
			b.nextWord = word
			b.partialWord = ""
			if word == "" {
				b.text = parent.text
			} else {
				b.text = appendWord(parent.text, word)
				if s.lm != nil {
					b.scoreLM += s.cfg.LMWeight * s.lm.ScoreWord(parent.text, word)
				}
			}
		} else {
			b.text = parent.text
			b.partialWord = parent.partialWord + s.vocab[tokIdx]
		}
	}
	b.nPNonBlank = mathutil.LogAdd(b.nPNonBlank, mass)
}

// Hypotheses returns the current top-K without ending the session. Words
// still under construction appear in Text but are not LM-scored yet.
// The returned slices are copies; mutating them does not affect the
// session.
func (s *Session) Hypotheses() []Hypothesis {
	return s.hypotheses()
}

// Finalize commits any word still under construction on every beam and
// returns the final ranked hypotheses. Subsequent Push calls fail.
func (s *Session) Finalize() []Hypothesis {
	if !s.finalized {
		s.finalized = true
		for _, b := range s.beams.m {
			if b.partialWord == "" {
				continue
			}
			if s.lm != nil {
				b.scoreLM += s.cfg.LMWeight * s.lm.ScoreWord(b.text, b.partialWord)
				b.score = b.scoreCTC + b.scoreLM
			}
			b.text = appendWord(b.text, b.partialWord)
			b.nextWord = b.partialWord
			b.partialWord = ""
		}
		s.log.Debug("finalized",
			zap.Int("frames_total", s.frame),
			zap.Int("live_beams", s.beams.len()))
	}
	return s.hypotheses()
}

func (s *Session) hypotheses() []Hypothesis {
	out := make([]Hypothesis, 0, s.cfg.TopK)
	for _, b := range s.beams.ranked() {
		if len(out) == s.cfg.TopK {
			break
		}
		out = append(out, Hypothesis{
			Labels:   append([]int(nil), b.prefix...),
			Text:     b.transcript(),
			Score:    b.score,
			ScoreCTC: b.scoreCTC,
			ScoreLM:  b.scoreLM,
		})
	}
	return out
}

// Frames reports the number of frames consumed so far.
func (s *Session) Frames() int { return s.frame }
