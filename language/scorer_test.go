package language

import (
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScorer_ScoreWord(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	s, err := NewScorer(model, 0)
	if err != nil {
		t.Fatalf("NewScorer error: %v", err)
	}

	// Empty history: sentence-initial bigram P(東京 | <s>)
	got := s.ScoreWord(nil, "東京")
	want := -0.3 * math.Ln10
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("ScoreWord(nil, 東京) = %f, want %f", got, want)
	}

	// One-word history
	got = s.ScoreWord([]string{"東京"}, "タワー")
	want = -0.4 * math.Ln10
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("ScoreWord([東京], タワー) = %f, want %f", got, want)
	}

	// Cached lookup must return the identical value
	if again := s.ScoreWord([]string{"東京"}, "タワー"); again != got {
		t.Errorf("cached ScoreWord = %f, first call = %f", again, got)
	}
}

func TestScorer_LongHistoryUsesTail(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	s, err := NewScorer(model, 16)
	if err != nil {
		t.Fatalf("NewScorer error: %v", err)
	}

	short := s.ScoreWord([]string{"東京"}, "タワー")
	long := s.ScoreWord([]string{"x", "y", "東京"}, "タワー")
	if short != long {
		t.Errorf("history tail mismatch: short=%f long=%f", short, long)
	}
}

func TestScorer_OOVFloor(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// Without a floor an unknown word is log-zero
	if lp := model.LogProb(nil, "知らない"); !math.IsInf(lp, -1) {
		t.Errorf("OOV LogProb = %f, want -Inf", lp)
	}

	model.OOVLogProb = -5.0 * math.Ln10
	if lp := model.LogProb(nil, "知らない"); lp != -5.0*math.Ln10 {
		t.Errorf("OOV LogProb with floor = %f, want %f", lp, -5.0*math.Ln10)
	}
}

func TestScorer_SentenceEnd(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	s, err := NewScorer(model, 0)
	if err != nil {
		t.Fatalf("NewScorer error: %v", err)
	}

	got := s.ScoreSentenceEnd([]string{"東京", "タワー"})
	want := -0.2 * math.Ln10 // bigram タワー </s>
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("ScoreSentenceEnd = %f, want %f", got, want)
	}
}

func TestNewScorer_NilModel(t *testing.T) {
	if _, err := NewScorer(nil, 0); err == nil {
		t.Error("expected error for nil model")
	}
}

func TestLoadARPAFile_Gzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "test.arpa")
	if err := os.WriteFile(plain, []byte(testARPA), 0o644); err != nil {
		t.Fatalf("write plain: %v", err)
	}

	gz := filepath.Join(dir, "test.arpa.gz")
	f, err := os.Create(gz)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(testARPA)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gz writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close gz file: %v", err)
	}

	m1, err := LoadARPAFile(plain)
	if err != nil {
		t.Fatalf("LoadARPAFile(plain): %v", err)
	}
	m2, err := LoadARPAFile(gz)
	if err != nil {
		t.Fatalf("LoadARPAFile(gz): %v", err)
	}

	if m1.Order != m2.Order || len(m1.Unigrams) != len(m2.Unigrams) || len(m1.Bigrams) != len(m2.Bigrams) {
		t.Errorf("gzip model differs: order %d/%d, uni %d/%d, bi %d/%d",
			m1.Order, m2.Order, len(m1.Unigrams), len(m2.Unigrams), len(m1.Bigrams), len(m2.Bigrams))
	}
}
