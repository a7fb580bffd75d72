package uploader

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"docdrop/lib/fpstore"
	"docdrop/lib/logx"
	"docdrop/lib/namenorm"
	ht "docdrop/lib/utils/hashtools"
)

type testEnv struct {
	u     *Uploader
	store *fpstore.FileStore
	dir   string
	state string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	e := &testEnv{
		dir:   filepath.Join(root, "uploads"),
		state: filepath.Join(root, "state"),
	}
	if err := os.MkdirAll(e.state, 0755); err != nil {
		t.Fatal(err)
	}
	var err error
	e.store, err = fpstore.OpenFileStore(fpstore.FileConfig{
		Path:   filepath.Join(e.state, "file_hashes.txt"),
		NoSync: true,
		Logger: logx.NopLoggerX{},
	})
	if err != nil {
		t.Fatalf("OpenFileStore err: %v", err)
	}
	t.Cleanup(func() { e.store.Close() })

	e.u, err = New(Config{
		UploadDir:  e.dir,
		StateDir:   e.state,
		HashType:   ht.SHA2_256,
		Store:      e.store,
		Normalizer: namenorm.Default,
		Ignore:     DefaultIgnore,
		NoSync:     true,
		Logger:     logx.NopLoggerX{},
	})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	return e
}

func (e *testEnv) accept(t *testing.T, name, content string) Result {
	t.Helper()
	res, err := e.u.Accept(name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("Accept(%q) err: %v", name, err)
	}
	return res
}

func TestAcceptStoresNormalized(t *testing.T) {
	e := newTestEnv(t)

	res := e.accept(t, "My_File_freemagazines_top_junk.pdf", "content one")
	if res.Status != StatusAccepted || res.Name != "My File.pdf" || res.Size != 11 {
		t.Fatalf("unexpected result %s", spew.Sdump(res))
	}
	b, err := ioutil.ReadFile(filepath.Join(e.dir, "My File.pdf"))
	if err != nil || string(b) != "content one" {
		t.Errorf("stored content %q, err %v", b, err)
	}
	if !e.store.Contains(res.Fingerprint) {
		t.Errorf("fingerprint not recorded")
	}
}

func TestAcceptDuplicateContent(t *testing.T) {
	e := newTestEnv(t)

	e.accept(t, "a.pdf", "same bytes")
	res := e.accept(t, "b.pdf", "same bytes")
	if res.Status != StatusDuplicate || res.Name != "" {
		t.Fatalf("second upload: %s", spew.Sdump(res))
	}
	names, err := e.u.List()
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a.pdf"}) {
		t.Errorf("upload dir has %q", names)
	}
}

func TestAcceptNameCollision(t *testing.T) {
	e := newTestEnv(t)

	r1 := e.accept(t, "a.pdf", "first")
	r2 := e.accept(t, "a.pdf", "second")
	r3 := e.accept(t, "a_freemagazines_top", "third")
	got := []string{r1.Name, r2.Name, r3.Name}
	exp := []string{"a.pdf", "a (1).pdf", "a (2).pdf"}
	if !reflect.DeepEqual(got, exp) {
		t.Errorf("names %q, want %q", got, exp)
	}
}

func TestAcceptHiddenNameCollision(t *testing.T) {
	e := newTestEnv(t)

	// ignored by List but still occupies its name
	if err := ioutil.WriteFile(filepath.Join(e.dir, ".x"), []byte("pre"), 0644); err != nil {
		t.Fatal(err)
	}
	res := e.accept(t, ".x", "new")
	if res.Name != ".x (1)" {
		t.Errorf("stored as %q", res.Name)
	}
	names, _ := e.u.List()
	if len(names) != 0 {
		t.Errorf("List should hide dot files, got %q", names)
	}
}

type failingStore struct {
	fpstore.Store
}

func (failingStore) Contains(ht.Fingerprint) bool { return false }
func (failingStore) RecordIfAbsent(ht.Fingerprint) (bool, error) {
	return false, errors.New("disk full")
}

func TestAcceptRecordFailureRemovesFile(t *testing.T) {
	e := newTestEnv(t)
	e.u.store = failingStore{}

	_, err := e.u.Accept("a.pdf", strings.NewReader("data"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(filepath.Join(e.dir, "a.pdf")); !os.IsNotExist(err) {
		t.Errorf("file left behind after failed record: %v", err)
	}
}

func TestAcceptConcurrent(t *testing.T) {
	e := newTestEnv(t)

	const n = 16
	var wg sync.WaitGroup
	results := make([]Result, 2*n)
	for i := 0; i < 2*n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every content is submitted twice
			res, err := e.u.Accept("doc.pdf", strings.NewReader(fmt.Sprintf("body %d", i/2)))
			if err != nil {
				t.Errorf("Accept err: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, r := range results {
		if r.Status == StatusAccepted {
			accepted++
		}
	}
	if accepted != n {
		t.Errorf("%d accepted, want %d", accepted, n)
	}
	names, _ := e.u.List()
	if len(names) != n {
		t.Errorf("%d files stored, want %d: %q", len(names), n, names)
	}
	if e.store.Len() != n {
		t.Errorf("%d fingerprints recorded, want %d", e.store.Len(), n)
	}
}

func TestNewCleansStaging(t *testing.T) {
	e := newTestEnv(t)
	stale := filepath.Join(e.state, "_tmp", "up-stale.part")
	if err := os.MkdirAll(filepath.Dir(stale), 0700); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Config{
		UploadDir: e.dir,
		StateDir:  e.state,
		HashType:  ht.SHA2_256,
		Store:     e.store,
	})
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale staging file survived: %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Errorf("empty config accepted")
	}
	_, err := New(Config{
		UploadDir: t.TempDir(),
		StateDir:  t.TempDir(),
		HashType:  ht.SHA2_256,
		Store:     fpstore.Store(nil),
	})
	if err == nil {
		t.Errorf("nil store accepted")
	}
	_, err = New(Config{
		UploadDir: t.TempDir(),
		StateDir:  t.TempDir(),
		HashType:  ht.SHA2_256,
		Store:     failingStore{},
		Ignore:    []string{"[unclosed"},
	})
	if err == nil {
		t.Errorf("bad glob accepted")
	}
}
