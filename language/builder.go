package language

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// Builder accumulates sentences and builds an N-gram language model.
type Builder struct {
	order    int
	unigrams map[string]int
	bigrams  map[[2]string]int
	trigrams map[[3]string]int
}

// NewBuilder creates a new N-gram builder.
// order must be 2 (bigram) or 3 (trigram).
func NewBuilder(order int) *Builder {
	if order < 2 {
		order = 2
	}
	if order > 3 {
		order = 3
	}
	return &Builder{
		order:    order,
		unigrams: make(map[string]int),
		bigrams:  make(map[[2]string]int),
		trigrams: make(map[[3]string]int),
	}
}

// AddSentence adds a tokenized sentence. <s> and </s> are added automatically.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	seq := make([]string, 0, len(words)+2)
	seq = append(seq, "<s>")
	seq = append(seq, words...)
	seq = append(seq, "</s>")

	for i := 0; i < len(seq); i++ {
		b.unigrams[seq[i]]++
		if i >= 1 {
			b.bigrams[[2]string{seq[i-1], seq[i]}]++
		}
		if b.order >= 3 && i >= 2 {
			b.trigrams[[3]string{seq[i-2], seq[i-1], seq[i]}]++
		}
	}
}

// histStats aggregates Witten-Bell statistics for one history: N(h) total
// continuation count and T(h) distinct continuation types.
type histStats struct {
	total int
	types int
}

type arpaLine struct {
	words   []string
	logProb float64 // log10
	backoff float64 // log10, 0 when absent
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
// Uses Witten-Bell smoothing.
func (b *Builder) WriteARPA(w io.Writer) error {
	uniTotal := 0
	for _, c := range b.unigrams {
		uniTotal += c
	}

	biCtx := make(map[string]histStats)
	for key := range b.bigrams {
		c := biCtx[key[0]]
		c.total += b.bigrams[key]
		c.types++
		biCtx[key[0]] = c
	}
	triCtx := make(map[[2]string]histStats)
	for key := range b.trigrams {
		h := [2]string{key[0], key[1]}
		c := triCtx[h]
		c.total += b.trigrams[key]
		c.types++
		triCtx[h] = c
	}

	uniProb := func(word string) float64 {
		return float64(b.unigrams[word]) / float64(uniTotal)
	}
	biProb := func(key [2]string) float64 {
		if c, ok := b.bigrams[key]; ok {
			ctx := biCtx[key[0]]
			return float64(c) / float64(ctx.total+ctx.types)
		}
		return uniProb(key[1])
	}

	// Unigrams. The backoff weight is the Witten-Bell leftover mass of
	// the bigram distribution with this word as history, renormalized by
	// the unigram mass of the words actually seen after it.
	unis := make([]arpaLine, 0, len(b.unigrams))
	for word := range b.unigrams {
		line := arpaLine{words: []string{word}, logProb: math.Log10(uniProb(word))}
		if ctx, ok := biCtx[word]; ok {
			sumBi, sumUni := 0.0, 0.0
			for key, c := range b.bigrams {
				if key[0] != word {
					continue
				}
				sumBi += float64(c) / float64(ctx.total+ctx.types)
				sumUni += uniProb(key[1])
			}
			if sumUni < 1.0 {
				line.backoff = math.Log10((1.0 - sumBi) / (1.0 - sumUni))
			}
		}
		unis = append(unis, line)
	}

	// Bigrams; backoff weights only matter when a trigram layer backs
	// off into them.
	bis := make([]arpaLine, 0, len(b.bigrams))
	for key, count := range b.bigrams {
		ctx := biCtx[key[0]]
		line := arpaLine{
			words:   []string{key[0], key[1]},
			logProb: math.Log10(float64(count) / float64(ctx.total+ctx.types)),
		}
		if b.order >= 3 {
			if tctx, ok := triCtx[key]; ok {
				sumTri, sumBi := 0.0, 0.0
				for tkey, tc := range b.trigrams {
					if tkey[0] != key[0] || tkey[1] != key[1] {
						continue
					}
					sumTri += float64(tc) / float64(tctx.total+tctx.types)
					sumBi += biProb([2]string{key[1], tkey[2]})
				}
				if sumBi < 1.0 {
					line.backoff = math.Log10((1.0 - sumTri) / (1.0 - sumBi))
				}
			}
		}
		bis = append(bis, line)
	}

	var tris []arpaLine
	if b.order >= 3 {
		tris = make([]arpaLine, 0, len(b.trigrams))
		for key, count := range b.trigrams {
			ctx := triCtx[[2]string{key[0], key[1]}]
			tris = append(tris, arpaLine{
				words:   []string{key[0], key[1], key[2]},
				logProb: math.Log10(float64(count) / float64(ctx.total+ctx.types)),
			})
		}
	}

	sortLines(unis)
	sortLines(bis)
	sortLines(tris)

	fmt.Fprintln(w, "\\data\\")
	fmt.Fprintf(w, "ngram 1=%d\n", len(unis))
	fmt.Fprintf(w, "ngram 2=%d\n", len(bis))
	if len(tris) > 0 {
		fmt.Fprintf(w, "ngram 3=%d\n", len(tris))
	}
	fmt.Fprintln(w)

	writeSection(w, 1, unis, true)
	writeSection(w, 2, bis, b.order >= 3)
	if len(tris) > 0 {
		writeSection(w, 3, tris, false)
	}

	fmt.Fprintln(w, "\\end\\")
	return nil
}

func sortLines(lines []arpaLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].words, lines[j].words
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func writeSection(w io.Writer, order int, lines []arpaLine, backoffs bool) {
	fmt.Fprintf(w, "\\%d-grams:\n", order)
	for _, l := range lines {
		fmt.Fprintf(w, "%.6f", l.logProb)
		for _, word := range l.words {
			fmt.Fprintf(w, "\t%s", word)
		}
		if backoffs && l.backoff != 0 {
			fmt.Fprintf(w, "\t%.6f", l.backoff)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
