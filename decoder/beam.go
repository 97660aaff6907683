package decoder

import (
	"encoding/binary"
	"strings"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
)

// Beam is one decoding hypothesis: a label prefix together with the CTC
// probability mass of all frame paths that collapse to it.
type Beam struct {
	prefix []int  // emitted label indices, CTC-collapsed
	key    string // encoded prefix, the beam set map key

	lastToken      string
	lastTokenIndex int // -1 until the first non-blank emission

	text        []string // committed words, oldest first
	nextWord    string   // word committed at the most recent boundary
	partialWord string   // word under construction since the last separator

	// Path mass at the last settled frame, split by whether the path ends
	// in a blank. Expansion writes into the n* accumulators only;
	// advanceFrame swaps them in. Keeping the two generations separate
	// means mid-frame updates never read partially updated values.
	pBlank     float64
	pNonBlank  float64
	nPBlank    float64
	nPNonBlank float64

	p float64 // largest single expansion mass seen for this prefix

	scoreCTC float64 // LogAdd(pBlank, pNonBlank) at the settled frame
	scoreLM  float64 // cumulative weighted language model contribution
	score    float64 // scoreCTC + scoreLM, the ranking key
}

// advanceFrame settles the accumulators for the frame just processed.
// Must run exactly once per frame for every live beam, after all token
// expansions for that frame have been applied.
func (b *Beam) advanceFrame() {
	b.pBlank, b.pNonBlank = b.nPBlank, b.nPNonBlank
	b.nPBlank = mathutil.LogZero
	b.nPNonBlank = mathutil.LogZero
	b.scoreCTC = mathutil.LogAdd(b.pBlank, b.pNonBlank)
	b.score = b.scoreCTC + b.scoreLM
}

// transcript joins the committed words, including the word still under
// construction for mid-stream snapshots.
func (b *Beam) transcript() string {
	if b.partialWord == "" {
		return strings.Join(b.text, " ")
	}
	if len(b.text) == 0 {
		return b.partialWord
	}
	return strings.Join(b.text, " ") + " " + b.partialWord
}

// prefixKey encodes a label sequence as a compact map key. The encoding
// preserves equality only; ordering between keys is arbitrary but fixed,
// which is all the deterministic tie-break needs.
func prefixKey(prefix []int) string {
	buf := make([]byte, 0, len(prefix)*2)
	for _, v := range prefix {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// appendWord returns a copy of words with w appended. Beams share no
// backing arrays, so committing a word on one beam never leaks into a
// sibling that branched from the same parent.
func appendWord(words []string, w string) []string {
	out := make([]string, len(words)+1)
	copy(out, words)
	out[len(words)] = w
	return out
}
