package hashtools

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"strings"
	"testing"
)

type zeroreader struct {
	n int64
}

var zbuf [65536]byte

func (r *zeroreader) Read(b []byte) (n int, e error) {
	if r.n == 0 {
		return 0, io.EOF
	}
	if int64(len(b)) > r.n {
		b = b[:r.n]
	}
	n = copy(b, zbuf[:])
	r.n -= int64(n)
	return
}

var emptyDigests = [...]struct {
	t   HashType
	exp string
}{
	{SHA2_256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	{BLAKE2b_256, "blake2b:0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
	{BLAKE3_256, "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
}

func TestEmptyDigests(t *testing.T) {
	for _, tc := range emptyDigests {
		f, err := HashReader(strings.NewReader(""), tc.t)
		if err != nil {
			t.Errorf("%v: HashReader err: %v", tc.t, err)
			continue
		}
		if got := f.String(); got != tc.exp {
			t.Errorf("%v: exp %q != got %q", tc.t, tc.exp, got)
		}
	}
}

func TestKnownSHA256(t *testing.T) {
	f, err := HashReader(strings.NewReader("abc"), SHA2_256)
	if err != nil {
		t.Fatalf("HashReader err: %v", err)
	}
	const exp = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if f.String() != exp {
		t.Errorf("exp %q != got %q", exp, f.String())
	}
}

func TestMakeFingerprintRewinds(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 5000) // several chunks
	r := bytes.NewReader(data)

	f, err := MakeFingerprint(r, BLAKE2b_256)
	if err != nil {
		t.Fatalf("MakeFingerprint err: %v", err)
	}

	rest, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if !bytes.Equal(rest, data) {
		t.Errorf("stream not rewound: read back %d bytes of %d", len(rest), len(data))
	}

	f2, _ := HashReader(bytes.NewReader(data), BLAKE2b_256)
	if f != f2 {
		t.Errorf("fingerprints differ: %v != %v", f, f2)
	}
}

func TestLargeStream(t *testing.T) {
	// same content in different chunking must give same digest
	a, err := HashReader(&zeroreader{3*ChunkSize + 17}, BLAKE3_256)
	if err != nil {
		t.Fatalf("HashReader err: %v", err)
	}
	b, err := HashReader(bytes.NewReader(make([]byte, 3*ChunkSize+17)), BLAKE3_256)
	if err != nil {
		t.Fatalf("HashReader err: %v", err)
	}
	if a != b {
		t.Errorf("digest depends on reader: %v != %v", a, b)
	}
}

func TestParseFingerprintRoundtrip(t *testing.T) {
	for _, tc := range emptyDigests {
		f, err := ParseFingerprint(tc.exp)
		if err != nil {
			t.Errorf("ParseFingerprint(%q) err: %v", tc.exp, err)
			continue
		}
		if f.Type != tc.t || f.String() != tc.exp {
			t.Errorf("ParseFingerprint(%q) = %v/%q", tc.exp, f.Type, f.String())
		}
	}

	up := strings.ToUpper(emptyDigests[0].exp)
	if f, err := ParseFingerprint(up); err != nil || f.String() != emptyDigests[0].exp {
		t.Errorf("uppercase hex not accepted: %v %v", f, err)
	}
}

func TestParseFingerprintMalformed(t *testing.T) {
	bad := []string{
		"",
		"xyz",
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85",   // short
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b8550", // long
		"g3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",  // not hex
		"md5:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"auto:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	}
	for _, s := range bad {
		_, err := ParseFingerprint(s)
		if !errors.Is(err, ErrMalformedFingerprint) {
			t.Errorf("ParseFingerprint(%q) err = %v, want ErrMalformedFingerprint", s, err)
		}
	}
}

func TestParseHashType(t *testing.T) {
	for _, s := range []string{"sha256", "BLAKE2b", " blake3 "} {
		if _, err := ParseHashType(s); err != nil {
			t.Errorf("ParseHashType(%q) err: %v", s, err)
		}
	}
	if ht, err := ParseHashType("auto"); err != nil || !ht.Valid() {
		t.Errorf("ParseHashType(auto) = %v, %v", ht, err)
	}
	if _, err := ParseHashType("crc32"); err == nil {
		t.Errorf("ParseHashType(crc32) should fail")
	}
}

func BenchmarkFingerprintSHA256(b *testing.B) { benchType(b, SHA2_256) }
func BenchmarkFingerprintBLAKE2b(b *testing.B) { benchType(b, BLAKE2b_256) }
func BenchmarkFingerprintBLAKE3(b *testing.B) { benchType(b, BLAKE3_256) }

func benchType(b *testing.B, t HashType) {
	const size = 4 << 20
	b.SetBytes(size)
	for i := 0; i < b.N; i++ {
		if _, e := HashReader(&zeroreader{size}, t); e != nil {
			b.Fatalf("HashReader err: %v", e)
		}
	}
}
