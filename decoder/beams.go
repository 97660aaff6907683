package decoder

import (
	"math"
	"sort"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
)

// beamSet holds all live hypotheses for one decode, keyed by encoded
// prefix. It starts with the single empty-prefix root carrying the whole
// probability mass (pBlank = log 1).
type beamSet struct {
	m map[string]*Beam
}

func newBeamSet() *beamSet {
	root := &Beam{
		lastTokenIndex: -1,
		pBlank:         0,
		pNonBlank:      mathutil.LogZero,
		nPBlank:        mathutil.LogZero,
		nPNonBlank:     mathutil.LogZero,
		p:              mathutil.LogZero,
		scoreCTC:       0,
	}
	return &beamSet{m: map[string]*Beam{"": root}}
}

func (bs *beamSet) len() int { return len(bs.m) }

// getOrCreate returns the beam for prefix, creating it when absent. This
// is the merge rule: expansion paths landing on an existing prefix share
// one beam and contribute mass to its accumulators instead of spawning a
// duplicate. The recorded best expansion mass p is raised when the new
// candidate exceeds it. The second return reports whether the beam was
// created, so the caller can seed word state exactly once.
func (bs *beamSet) getOrCreate(prefix []int, key string, p float64) (*Beam, bool) {
	if b, ok := bs.m[key]; ok {
		if p > b.p {
			b.p = p
		}
		return b, false
	}
	b := &Beam{
		prefix:         prefix,
		key:            key,
		lastTokenIndex: -1,
		pBlank:         mathutil.LogZero,
		pNonBlank:      mathutil.LogZero,
		nPBlank:        mathutil.LogZero,
		nPNonBlank:     mathutil.LogZero,
		p:              p,
		scoreCTC:       mathutil.LogZero,
		score:          mathutil.LogZero,
	}
	bs.m[key] = b
	return b, true
}

// advanceAll settles every live beam for the frame just processed.
func (bs *beamSet) advanceAll() {
	for _, b := range bs.m {
		b.advanceFrame()
	}
}

// beamLess is the single ordering used everywhere: descending score,
// ties broken by prefix key bytes so results never depend on map
// iteration order.
func beamLess(a, b *Beam) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.key < b.key
}

// ranked returns all beams best-first, fully sorted. Used for the frozen
// per-frame expansion snapshot and for final output.
func (bs *beamSet) ranked() []*Beam {
	all := make([]*Beam, 0, len(bs.m))
	for _, b := range bs.m {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return beamLess(all[i], all[j]) })
	return all
}

// pruneToTopK keeps the k best beams. Beams that received no mass this
// frame are dropped first; selection is partial (quickselect), not a
// full sort.
func (bs *beamSet) pruneToTopK(k int) {
	finite := false
	for _, b := range bs.m {
		if !math.IsInf(b.score, -1) {
			finite = true
			break
		}
	}
	if finite {
		for key, b := range bs.m {
			if math.IsInf(b.score, -1) {
				delete(bs.m, key)
			}
		}
	}
	if len(bs.m) <= k {
		return
	}
	all := make([]*Beam, 0, len(bs.m))
	for _, b := range bs.m {
		all = append(all, b)
	}
	selectTop(all, k)
	for _, b := range all[k:] {
		delete(bs.m, b.key)
	}
}

// selectTop partially orders beams so the k best under beamLess occupy
// the first k positions. Average O(n); the retained set is determined by
// the total order alone, so it does not depend on the input permutation.
func selectTop(beams []*Beam, k int) {
	lo, hi := 0, len(beams)-1
	for lo < hi {
		p := partition(beams, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(beams []*Beam, lo, hi int) int {
	mid := lo + (hi-lo)/2
	beams[mid], beams[hi] = beams[hi], beams[mid]
	pivot := beams[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if beamLess(beams[j], pivot) {
			beams[i], beams[j] = beams[j], beams[i]
			i++
		}
	}
	beams[i], beams[hi] = beams[hi], beams[i]
	return i
}

// pruneHistory collapses beams that agree on their recent label history
// and partial word. A backoff language model cannot separate such beams
// going forward, so keeping more than the best one only crowds out
// genuinely distinct hypotheses.
func (bs *beamSet) pruneHistory(window int) {
	type histKey struct {
		tail    string
		partial string
	}
	seen := make(map[histKey]struct{}, len(bs.m))
	for _, b := range bs.ranked() {
		tail := b.prefix
		if len(tail) > window {
			tail = tail[len(tail)-window:]
		}
		k := histKey{prefixKey(tail), b.partialWord}
		if _, dup := seen[k]; dup {
			delete(bs.m, b.key)
			continue
		}
		seen[k] = struct{}{}
	}
}
