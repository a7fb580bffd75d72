package challenge

import (
	"regexp"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
)

var decoyRe = regexp.MustCompile(`^[A-Za-z0-9]{5,9}$`)

func TestSeedString(t *testing.T) {
	tests := []struct {
		t   time.Time
		exp string
	}{
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "202412345"},
		{time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), "20241231235959"},
		{time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC), "2020111000"},
	}
	for _, tc := range tests {
		if s := SeedString(tc.t); s != tc.exp {
			t.Errorf("SeedString(%v) = %q, want %q", tc.t, s, tc.exp)
		}
	}

	// unpadded fields collide
	a := SeedString(time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC))
	b := SeedString(time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC))
	if a != b {
		t.Errorf("expected colliding seeds, got %q and %q", a, b)
	}
}

func checkShape(t *testing.T, c Challenge) {
	t.Helper()
	if len(c.Candidates) != NumCandidates {
		t.Fatalf("%d candidates, want %d", len(c.Candidates), NumCandidates)
	}
	nCorrect := 0
	for _, x := range c.Candidates {
		if x == c.Correct {
			nCorrect++
			continue
		}
		if !decoyRe.MatchString(x) {
			t.Errorf("decoy %q doesn't match %s", x, decoyRe)
		}
	}
	if nCorrect != 1 {
		t.Errorf("correct word appears %d times in %s", nCorrect, spew.Sdump(c.Candidates))
	}
	if !InVocabulary(c.Correct) {
		t.Errorf("correct %q not in vocabulary", c.Correct)
	}
}

func TestGenerateShape(t *testing.T) {
	base := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		checkShape(t, Generate(base.Add(time.Duration(i)*time.Second)))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	now := time.Date(2023, 6, 15, 10, 20, 30, 0, time.UTC)
	a := Generate(now)
	b := Generate(now.Add(999 * time.Millisecond))
	if spew.Sdump(a) != spew.Sdump(b) {
		t.Errorf("same second gave different challenges:\n%s\n%s", spew.Sdump(a), spew.Sdump(b))
	}
	if a.Seed != "2023615102030" {
		t.Errorf("seed %q", a.Seed)
	}
}

func TestGenerateDiverges(t *testing.T) {
	base := time.Date(2023, 6, 15, 10, 20, 0, 0, time.UTC)
	same := 0
	prev := Generate(base)
	for i := 1; i <= 60; i++ {
		c := Generate(base.Add(time.Duration(i) * time.Second))
		if c.Correct == prev.Correct && c.Candidates[0] == prev.Candidates[0] {
			same++
		}
		prev = c
	}
	// exact repeats across adjacent seconds are possible but rare
	if same > 5 {
		t.Errorf("%d of 60 adjacent seconds repeated challenge", same)
	}
}

func TestIsCorrect(t *testing.T) {
	now := time.Date(2023, 6, 15, 10, 20, 30, 0, time.Local)
	c := Generate(now)
	if !IsCorrect(now, c.Correct) {
		t.Errorf("correct answer %q rejected", c.Correct)
	}
	if !IsCorrect(now, "  "+c.Correct+"\n") {
		t.Errorf("answer with surrounding space rejected")
	}
	for _, x := range c.Candidates {
		if x != c.Correct && IsCorrect(now, x) {
			t.Errorf("decoy %q accepted", x)
		}
	}
	if IsCorrect(now, "") {
		t.Errorf("empty answer accepted")
	}
	if !c.Contains(c.Correct) || c.Contains("definitely not there") {
		t.Errorf("Contains misbehaves")
	}
}

func TestVerify(t *testing.T) {
	bucket := time.Date(2023, 6, 15, 10, 20, 30, 0, time.UTC)
	c := Generate(bucket)
	other := "sunshine"
	if other == c.Correct {
		other = "rainbow"
	}

	tests := []struct {
		name    string
		now     time.Time
		answer  string
		anyWord bool
		exp     error
	}{
		{"fresh", bucket.Add(10 * time.Second), c.Correct, false, nil},
		{"wrong", bucket.Add(10 * time.Second), other, false, ErrWrongAnswer},
		{"anyword", bucket.Add(10 * time.Second), other, true, nil},
		{"anyword-decoy", bucket, "zzzzzzzz", true, ErrWrongAnswer},
		{"expired", bucket.Add(time.Hour), c.Correct, false, ErrExpired},
		{"future", bucket.Add(-time.Minute), c.Correct, false, ErrExpired},
	}
	for _, tc := range tests {
		err := Verify(bucket, tc.now, 15*time.Minute, tc.answer, tc.anyWord)
		if err != tc.exp {
			t.Errorf("%s: Verify err = %v, want %v", tc.name, err, tc.exp)
		}
	}
}

func TestVocabulary(t *testing.T) {
	if len(Vocabulary) != 252 {
		t.Errorf("vocabulary has %d entries", len(Vocabulary))
	}
	if !InVocabulary("star of David") || InVocabulary("star of david") {
		t.Errorf("vocabulary match should be exact")
	}
}

func BenchmarkGenerate(b *testing.B) {
	now := time.Now()
	for i := 0; i < b.N; i++ {
		Generate(now)
	}
}
