// Package challenge derives multiple-choice verification puzzle
// from wall clock second.
//
// Everything is recomputable from the second alone, so nothing is stored:
// the same second (in the same location) always yields the same candidates
// in the same order. This is weak by construction. Anyone who knows the
// scheme can compute the answer, and seed strings collide because fields
// are not zero-padded (2020-1-11 and 2020-11-1 give the same digits).
package challenge

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/minio/highwayhash"
	"golang.org/x/text/unicode/norm"

	"docdrop/lib/utils/pcg"
)

const (
	NumCandidates = 10
	MinDecoyLen   = 5
	MaxDecoyLen   = 9
)

const decoyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrWrongAnswer = errors.New("wrong challenge answer")
	ErrExpired     = errors.New("challenge expired")
)

// fixed key; highwayhash only spreads seed string over generator state
var seedKey [32]byte

type Challenge struct {
	Candidates []string  // shuffled, exactly one is Correct
	Correct    string    // member of Vocabulary
	Bucket     time.Time // second it was derived from
	Seed       string
}

// SeedString concatenates decimal calendar fields of t without padding.
func SeedString(t time.Time) string {
	var b []byte
	b = strconv.AppendInt(b, int64(t.Year()), 10)
	b = strconv.AppendInt(b, int64(t.Month()), 10)
	b = strconv.AppendInt(b, int64(t.Day()), 10)
	b = strconv.AppendInt(b, int64(t.Hour()), 10)
	b = strconv.AppendInt(b, int64(t.Minute()), 10)
	b = strconv.AppendInt(b, int64(t.Second()), 10)
	return string(b)
}

func seededRNG(seed string) pcg.PCG64s {
	h, err := highwayhash.New128(seedKey[:])
	if err != nil {
		panic("highwayhash.New128: " + err.Error())
	}
	h.Write([]byte(seed))
	var sum [16]byte
	h.Sum(sum[:0])
	return pcg.NewSeededPCG64s(
		binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:]))
}

// Generate derives challenge of second containing now, using now's location.
func Generate(now time.Time) Challenge {
	bucket := now.Truncate(time.Second)
	seed := SeedString(bucket)
	rng := seededRNG(seed)

	correct := Vocabulary[rng.Bounded(uint64(len(Vocabulary)))]

	cands := make([]string, NumCandidates)
	cands[0] = correct
	buf := make([]byte, 0, MaxDecoyLen)
	for i := 1; i < NumCandidates; i++ {
		for {
			n := MinDecoyLen + int(rng.Bounded(MaxDecoyLen-MinDecoyLen+1))
			buf = buf[:0]
			for j := 0; j < n; j++ {
				buf = append(buf, decoyAlphabet[rng.Bounded(uint64(len(decoyAlphabet)))])
			}
			// decoy matching correct word would make it validate
			if string(buf) != correct {
				break
			}
		}
		cands[i] = string(buf)
	}

	rng.Shuffle(len(cands), func(i, j int) {
		cands[i], cands[j] = cands[j], cands[i]
	})

	return Challenge{
		Candidates: cands,
		Correct:    correct,
		Bucket:     bucket,
		Seed:       seed,
	}
}

func normalizeAnswer(v string) string {
	return norm.NFKC.String(strings.TrimSpace(v))
}

// IsCorrect tells whether submitted is correct answer for second of now.
func IsCorrect(now time.Time, submitted string) bool {
	return normalizeAnswer(submitted) == Generate(now).Correct
}

// InVocabulary is looser check: any vocabulary word passes.
func InVocabulary(v string) bool {
	_, ok := vocabSet[normalizeAnswer(v)]
	return ok
}

// Verify checks submitted answer against challenge of bucket.
// Bucket older than maxAge relative to now (or in future) is expired.
// With anyWord set every vocabulary word is accepted.
func Verify(bucket, now time.Time, maxAge time.Duration, submitted string, anyWord bool) error {
	age := now.Sub(bucket)
	if age < -time.Second || (maxAge > 0 && age > maxAge) {
		return ErrExpired
	}
	if anyWord {
		if !InVocabulary(submitted) {
			return ErrWrongAnswer
		}
		return nil
	}
	if !IsCorrect(bucket, submitted) {
		return ErrWrongAnswer
	}
	return nil
}

// Contains reports whether v is one of presented candidates.
func (c Challenge) Contains(v string) bool {
	v = normalizeAnswer(v)
	for _, x := range c.Candidates {
		if x == v {
			return true
		}
	}
	return false
}
