// Command ctcdecode decodes a per-frame log-probability matrix (JSON,
// produced by an acoustic model) into ranked transcripts.
//
// Usage:
//
//	ctcdecode -probs logits.json -vocab vocab.txt [-lm model.arpa] [-config decode.yaml]
//
// The vocabulary file holds one label per line, index-aligned with the
// matrix columns.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	ctcdecode "github.com/ieee0824/ctcdecode-go"
	"github.com/ieee0824/ctcdecode-go/decoder"
)

// fileConfig mirrors decoder.Config for YAML config files. Pointer
// fields distinguish "absent" from zero values.
type fileConfig struct {
	BeamWidth         *int     `yaml:"beam_width"`
	BeamPruneLogP     *float64 `yaml:"beam_prune_logp"`
	TokenPruneMinLogP *float64 `yaml:"token_prune_min_logp"`
	HistoryPrune      *bool    `yaml:"history_prune"`
	HistoryWindow     *int     `yaml:"history_window"`
	TopK              *int     `yaml:"topk"`
	SpaceIndex        *int     `yaml:"space_index"`
	LMWeight          *float64 `yaml:"lm_weight"`
}

func (fc *fileConfig) apply(cfg *decoder.Config) {
	if fc.BeamWidth != nil {
		cfg.BeamWidth = *fc.BeamWidth
	}
	if fc.BeamPruneLogP != nil {
		cfg.BeamPruneLogP = *fc.BeamPruneLogP
	}
	if fc.TokenPruneMinLogP != nil {
		cfg.TokenPruneMinLogP = *fc.TokenPruneMinLogP
	}
	if fc.HistoryPrune != nil {
		cfg.HistoryPrune = *fc.HistoryPrune
	}
	if fc.HistoryWindow != nil {
		cfg.HistoryWindow = *fc.HistoryWindow
	}
	if fc.TopK != nil {
		cfg.TopK = *fc.TopK
	}
	if fc.SpaceIndex != nil {
		cfg.SpaceIndex = *fc.SpaceIndex
	}
	if fc.LMWeight != nil {
		cfg.LMWeight = *fc.LMWeight
	}
}

func main() {
	probsPath := flag.String("probs", "", "path to JSON matrix of per-frame probabilities")
	vocabPath := flag.String("vocab", "", "path to vocabulary file, one label per line")
	configPath := flag.String("config", "", "path to YAML decode configuration")
	lmPath := flag.String("lm", "", "path to ARPA language model (.arpa or .arpa.gz)")
	blank := flag.Int("blank", 0, "blank label index")
	space := flag.Int("space", -1, "word separator label index (-1 = none)")
	beam := flag.Int("beam", 100, "beam width")
	topk := flag.Int("topk", 1, "number of hypotheses to print")
	lmWeight := flag.Float64("lm-weight", 1.0, "language model weight")
	oovProb := flag.Float64("oov-prob", 0, "OOV unigram log10 probability (e.g. -5.0, 0=disable)")
	linear := flag.Bool("linear", false, "input matrix holds linear probabilities, not log")
	verbose := flag.Bool("v", false, "verbose output")

	flag.Parse()

	if *probsPath == "" || *vocabPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ctcdecode -probs MATRIX.json -vocab VOCAB [-lm LM.arpa]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}

	cfg := decoder.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read config: %v\n", err)
			os.Exit(1)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: parse config: %v\n", err)
			os.Exit(1)
		}
		fc.apply(&cfg)
	}
	// Flags passed explicitly override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "beam":
			cfg.BeamWidth = *beam
		case "topk":
			cfg.TopK = *topk
		case "space":
			cfg.SpaceIndex = *space
		case "lm-weight":
			cfg.LMWeight = *lmWeight
		}
	})

	vocab, err := readVocab(*vocabPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := []ctcdecode.Option{
		ctcdecode.WithConfig(cfg),
		ctcdecode.WithLogger(log),
	}
	if *lmPath != "" {
		opts = append(opts, ctcdecode.WithNGramFile(*lmPath, *oovProb))
	}

	dec, err := ctcdecode.New(vocab, *blank, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logProbs, err := readMatrix(*probsPath, *linear)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info("decoding",
		zap.Int("frames", len(logProbs)),
		zap.Int("vocab_size", len(vocab)),
		zap.Int("beam_width", cfg.BeamWidth))

	hyps, err := dec.Decode(logProbs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for i, h := range hyps {
		if cfg.TopK == 1 {
			fmt.Println(h.Text)
		} else {
			fmt.Printf("%d\t%s\n", i+1, h.Text)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "  score=%.4f acoustic=%.4f lm=%.4f labels=%v\n",
				h.Score, h.ScoreCTC, h.ScoreLM, h.Labels)
		}
	}
}

func readVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	var vocab []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		vocab = append(vocab, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return vocab, nil
}

func readMatrix(path string, linear bool) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse matrix: %w", err)
	}
	if linear {
		for _, row := range rows {
			for i, p := range row {
				row[i] = math.Log(p)
			}
		}
	}
	return rows, nil
}
