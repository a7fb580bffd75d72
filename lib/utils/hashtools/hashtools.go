package hashtools

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sys/cpu"
)

// DigestLength is size of every supported digest (256 bits).
const DigestLength = 32

// ChunkSize is how much of input is hashed per step.
const ChunkSize = 32 * 1024

type HashType byte

const (
	_ HashType = iota // skip first to start with non-0

	SHA2_256    // what older logs contain; fast with SHA2 instructions
	BLAKE2b_256 // fastest on most 64bit CPUs without dedicated crypto instructions
	BLAKE3_256  // fastest with AVX2 or on 32bit arm

	hashTypeMax = iota - 1
)

var hashNames = [hashTypeMax + 1]string{
	SHA2_256:    "sha256",
	BLAKE2b_256: "blake2b",
	BLAKE3_256:  "blake3",
}

func (t HashType) Valid() bool {
	return t > 0 && t <= hashTypeMax
}

func (t HashType) String() string {
	if t.Valid() {
		return hashNames[t]
	}
	return fmt.Sprintf("hashtype(%d)", byte(t))
}

// ParseHashType accepts hash names and "auto".
func ParseHashType(s string) (HashType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "auto" {
		return AutoHashType(), nil
	}
	if t := hashTypeByName(s); t != 0 {
		return t, nil
	}
	return 0, fmt.Errorf("unknown hash type %q", s)
}

func hashTypeByName(s string) HashType {
	for i := HashType(1); i <= hashTypeMax; i++ {
		if hashNames[i] == s {
			return i
		}
	}
	return 0
}

// AutoHashType picks hash which is likely fastest on this CPU.
func AutoHashType() HashType {
	if cpu.ARM64.HasSHA2 {
		return SHA2_256
	}
	if cpu.X86.HasAVX2 {
		return BLAKE3_256
	}
	return BLAKE2b_256
}

type hasherFactoryType struct {
	newHasher func() hash.Hash
}

var hasherFactories = [hashTypeMax]hasherFactoryType{
	{newHasher: sha256.New},
	{newHasher: func() hash.Hash { x, _ := blake2b.New256(nil); return x }},
	{newHasher: func() hash.Hash { return blake3.New() }},
}
var hashCtxPools [hashTypeMax]sync.Pool

type hashCtxType struct {
	h       hash.Hash
	copyBuf *[ChunkSize]byte
}

func getHashCtx(t HashType) *hashCtxType {
	s, _ := hashCtxPools[t-1].Get().(*hashCtxType)
	if s != nil {
		s.h.Reset()
	} else {
		s = &hashCtxType{
			h:       hasherFactories[t-1].newHasher(),
			copyBuf: new([ChunkSize]byte),
		}
	}
	return s
}

func putHashCtx(t HashType, s *hashCtxType) {
	hashCtxPools[t-1].Put(s)
}

var ErrMalformedFingerprint = errors.New("malformed fingerprint")

// Fingerprint identifies file content. It is comparable.
type Fingerprint struct {
	Type HashType
	Sum  [DigestLength]byte
}

// String returns text form used in logs and databases.
// SHA2-256 is plain lowercase hex, others are prefixed with hash name.
func (f Fingerprint) String() string {
	if f.Type == SHA2_256 {
		return hex.EncodeToString(f.Sum[:])
	}
	return f.Type.String() + ":" + hex.EncodeToString(f.Sum[:])
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	if !f.Type.Valid() {
		return nil, ErrMalformedFingerprint
	}
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(b []byte) (err error) {
	*f, err = ParseFingerprint(string(b))
	return
}

// ParseFingerprint is inverse of Fingerprint.String.
// Uppercase hex is accepted.
func ParseFingerprint(s string) (f Fingerprint, err error) {
	f.Type = SHA2_256
	if i := strings.IndexByte(s, ':'); i >= 0 {
		f.Type = hashTypeByName(s[:i])
		if f.Type == 0 {
			return Fingerprint{}, fmt.Errorf("%w: bad hash type %q", ErrMalformedFingerprint, s[:i])
		}
		s = s[i+1:]
	}
	if len(s) != hex.EncodedLen(DigestLength) {
		return Fingerprint{}, fmt.Errorf("%w: bad length %d", ErrMalformedFingerprint, len(s))
	}
	if _, e := hex.Decode(f.Sum[:], []byte(s)); e != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrMalformedFingerprint, e)
	}
	return f, nil
}

// HashReader digests r until EOF in ChunkSize steps.
func HashReader(r io.Reader, t HashType) (f Fingerprint, err error) {
	if !t.Valid() {
		return Fingerprint{}, fmt.Errorf("invalid hash type %d", byte(t))
	}

	hc := getHashCtx(t)
	defer putHashCtx(t, hc)

	// wrappers hide ReaderFrom/WriterTo so copy goes through our buffer
	_, err = io.CopyBuffer(
		struct{ io.Writer }{hc.h}, struct{ io.Reader }{r}, hc.copyBuf[:])
	if err != nil {
		return
	}
	f.Type = t
	hc.h.Sum(f.Sum[:0])
	return
}

// MakeFingerprint digests r from its current position and seeks it back
// to start, so the same stream can be stored afterwards.
// It expects r to be seeked at 0.
func MakeFingerprint(r io.ReadSeeker, t HashType) (f Fingerprint, err error) {
	f, err = HashReader(r, t)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hashing failed: %w", err)
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return Fingerprint{}, fmt.Errorf("rewind failed: %w", err)
	}
	return
}
