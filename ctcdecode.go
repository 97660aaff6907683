// Package ctcdecode turns per-frame label posteriors from a CTC-trained
// acoustic model into ranked transcripts using prefix beam search. The
// acoustic model itself, tokenization and language model training are
// external; this package consumes their outputs.
package ctcdecode

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ieee0824/ctcdecode-go/decoder"
	"github.com/ieee0824/ctcdecode-go/language"
)

// Decoder is the top-level decoding entry point: a fixed vocabulary and
// blank label plus search configuration. One Decoder serves any number
// of utterances, sequentially or concurrently; each Decode call or
// Session owns its own search state.
type Decoder struct {
	vocab      []string
	blankIndex int
	cfg        decoder.Config
	lm         decoder.LanguageModel
	log        *zap.Logger

	deferredErr error // first option failure, reported by New
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithConfig sets custom search parameters.
func WithConfig(cfg decoder.Config) Option {
	return func(d *Decoder) {
		d.cfg = cfg
	}
}

// WithLanguageModel attaches a word-boundary scorer. Without one,
// decoding is acoustic-only and every ScoreLM stays zero.
func WithLanguageModel(lm decoder.LanguageModel) Option {
	return func(d *Decoder) {
		d.lm = lm
	}
}

// WithNGramFile loads an ARPA n-gram model from path and attaches it as
// the scorer. oovLog10Prob, when non-zero, floors unseen words at that
// log10 probability instead of rejecting them outright.
func WithNGramFile(path string, oovLog10Prob float64) Option {
	return func(d *Decoder) {
		if d.deferredErr != nil {
			return
		}
		model, err := language.LoadARPAFile(path)
		if err != nil {
			d.deferredErr = fmt.Errorf("load n-gram model: %w", err)
			return
		}
		if oovLog10Prob != 0 {
			model.OOVLogProb = oovLog10Prob * math.Ln10
		}
		scorer, err := language.NewScorer(model, 0)
		if err != nil {
			d.deferredErr = err
			return
		}
		d.lm = scorer
	}
}

// WithLogger injects the session logger. The default discards
// everything; there is no package-level logger state.
func WithLogger(log *zap.Logger) Option {
	return func(d *Decoder) {
		d.log = log
	}
}

// New builds a Decoder for a vocabulary whose entries are index-aligned
// with the columns of the posterior matrices it will decode.
// Configuration errors surface here, never mid-decode.
func New(vocab []string, blankIndex int, opts ...Option) (*Decoder, error) {
	d := &Decoder{
		vocab:      append([]string(nil), vocab...),
		blankIndex: blankIndex,
		cfg:        decoder.DefaultConfig(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.deferredErr != nil {
		return nil, d.deferredErr
	}
	// Validate eagerly with a throwaway session.
	if _, err := decoder.NewSession(d.vocab, d.blankIndex, d.cfg, d.lm, d.log); err != nil {
		return nil, err
	}
	return d, nil
}

// Decode runs prefix beam search over a whole utterance.
// logProbs is time-major: logProbs[t][i] is the log probability of
// vocabulary label i at frame t.
func (d *Decoder) Decode(logProbs [][]float64) ([]decoder.Hypothesis, error) {
	return decoder.Decode(logProbs, d.vocab, d.blankIndex, d.cfg, d.lm, d.log)
}

// NewSession starts a streaming decode. Push frame chunks as they
// arrive, read partial results with Hypotheses, and call Finalize when
// the utterance ends.
func (d *Decoder) NewSession() (*decoder.Session, error) {
	return decoder.NewSession(d.vocab, d.blankIndex, d.cfg, d.lm, d.log)
}
