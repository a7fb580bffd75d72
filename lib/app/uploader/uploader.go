// Package uploader accepts uploaded files into flat upload directory,
// skipping content seen before.
package uploader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"docdrop/lib/fpstore"
	. "docdrop/lib/logx"
	"docdrop/lib/namenorm"
	"docdrop/lib/utils/fs/fileutil"
	"docdrop/lib/utils/fs/fstore"
	ht "docdrop/lib/utils/hashtools"
)

type Config struct {
	UploadDir  string
	StateDir   string // staging files live in StateDir/_tmp
	HashType   ht.HashType
	Store      fpstore.Store
	Normalizer namenorm.Normalizer
	Ignore     []string // glob patterns of names List hides
	NoSync     bool
	Logger     LoggerX
}

var DefaultIgnore = []string{".*"}

type Status int

const (
	StatusAccepted Status = iota + 1
	StatusDuplicate
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDuplicate:
		return "duplicate"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Result struct {
	Status      Status
	Name        string // stored name, empty for duplicates
	Fingerprint ht.Fingerprint
	Size        int64
}

// placement attempts before giving up on names stolen by other processes
const maxPlaceAttempts = 1000

// Lister lists stored names of upload directory.
type Lister struct {
	dir    string
	ignore []glob.Glob
}

// NewLister compiles ignore patterns; it doesn't touch dir.
func NewLister(dir string, ignore []string) (*Lister, error) {
	l := &Lister{dir: dir}
	for _, p := range ignore {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad ignore pattern %q: %v", p, err)
		}
		l.ignore = append(l.ignore, g)
	}
	return l, nil
}

func (l *Lister) Dir() string {
	return l.dir
}

type Uploader struct {
	*Lister

	mu     sync.Mutex // namespace snapshot, placement, commit
	htype  ht.HashType
	store  fpstore.Store
	nn     namenorm.Normalizer
	nosync bool
	tmp    *fstore.FStore
	mover  *fstore.Mover
	log    Logger
}

// New creates upload and state directories if missing
// and removes staging leftovers of previous runs.
func New(cfg Config) (*Uploader, error) {
	if cfg.UploadDir == "" || cfg.StateDir == "" {
		return nil, errors.New("uploader: upload and state directories must be set")
	}
	if cfg.Store == nil {
		return nil, errors.New("uploader: no fingerprint store")
	}
	if !cfg.HashType.Valid() {
		return nil, fmt.Errorf("uploader: invalid hash type %v", cfg.HashType)
	}

	u := &Uploader{
		htype:  cfg.HashType,
		store:  cfg.Store,
		nn:     cfg.Normalizer,
		nosync: cfg.NoSync,
		mover:  fstore.NewMover(),
		log:    NewLogToX(cfg.Logger, "uploader"),
	}

	var err error
	u.Lister, err = NewLister(cfg.UploadDir, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("uploader: %w", err)
	}

	if err = os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("uploader: %w", err)
	}
	u.tmp, err = fstore.OpenFStore(fstore.Config{Path: cfg.StateDir})
	if err != nil {
		return nil, fmt.Errorf("uploader: %w", err)
	}
	n, err := u.tmp.CleanTemp()
	if err != nil {
		return nil, fmt.Errorf("uploader: cleaning staging dir: %w", err)
	}
	if n != 0 {
		u.log.LogPrintf(NOTICE, "removed %d stale staging files", n)
	}

	return u, nil
}

func (u *Uploader) HashType() ht.HashType {
	return u.htype
}

// stage copies r into new staging file and returns its name and size.
func (u *Uploader) stage(r io.Reader) (name string, n int64, err error) {
	f, err := u.tmp.TempFile("up-", ".part")
	if err != nil {
		return "", 0, fmt.Errorf("error creating staging file: %w", err)
	}
	name = f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(name)
		}
	}()

	n, err = io.Copy(f, r)
	if err != nil {
		return "", 0, fmt.Errorf("error writing staging file: %w", err)
	}
	if !u.nosync {
		if err = f.Sync(); err != nil {
			return "", 0, fmt.Errorf("error syncing staging file: %w", err)
		}
	}
	if err = f.Close(); err != nil {
		return "", 0, fmt.Errorf("error closing staging file: %w", err)
	}
	return name, n, nil
}

// Accept fingerprints r, and unless content is known, stores it under
// normalized form of rawName and records fingerprint.
// r must be positioned at start.
func (u *Uploader) Accept(rawName string, r io.ReadSeeker) (res Result, err error) {
	res.Fingerprint, err = ht.MakeFingerprint(r, u.htype)
	if err != nil {
		return Result{}, fmt.Errorf("uploader: %w", err)
	}

	// early check; authoritative one is RecordIfAbsent below
	if u.store.Contains(res.Fingerprint) {
		u.log.LogPrintf(INFO, "duplicate %q (%s)", rawName, res.Fingerprint)
		res.Status = StatusDuplicate
		return res, nil
	}

	tmpname, size, err := u.stage(r)
	if err != nil {
		return Result{}, fmt.Errorf("uploader: %w", err)
	}
	defer os.Remove(tmpname)
	res.Size = size

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.store.Contains(res.Fingerprint) {
		u.log.LogPrintf(INFO, "duplicate %q (%s), raced", rawName, res.Fingerprint)
		res.Status = StatusDuplicate
		return res, nil
	}

	taken, err := u.namespace()
	if err != nil {
		return Result{}, fmt.Errorf("uploader: %w", err)
	}

	var name, full string
	for i := 0; ; i++ {
		name = u.nn.Normalize(rawName, taken)
		full = filepath.Join(u.dir, name)
		err = u.mover.Place(tmpname, full)
		if err == nil {
			break
		}
		if !fstore.IsExists(err) || i+1 >= maxPlaceAttempts {
			return Result{}, fmt.Errorf("uploader: placing %q: %w", name, err)
		}
		// created behind our back
		u.log.LogPrintf(DEBUG, "name %q appeared during placement, retrying", name)
		taken.Add(name)
	}

	wasNew, err := u.store.RecordIfAbsent(res.Fingerprint)
	if err != nil || !wasNew {
		if e := os.Remove(full); e != nil {
			u.log.LogPrintf(ERROR, "failed to remove unrecorded %q: %v", full, e)
		}
		if err != nil {
			return Result{}, fmt.Errorf("uploader: recording fingerprint: %w", err)
		}
		res.Status = StatusDuplicate
		return res, nil
	}

	if !u.nosync {
		if err = fileutil.SyncDir(u.dir); err != nil {
			// file and fingerprint are in place already
			u.log.LogPrintf(WARN, "upload dir sync failed: %v", err)
		}
	}

	u.log.LogPrintf(INFO, "accepted %q as %q (%s, %d bytes)",
		rawName, name, res.Fingerprint, size)
	res.Status = StatusAccepted
	res.Name = name
	return res, nil
}

// namespace returns every name present in upload dir, ignored ones included.
func (u *Uploader) namespace() (namenorm.NameSet, error) {
	ents, err := os.ReadDir(u.dir)
	if err != nil {
		return nil, fmt.Errorf("error listing upload dir: %w", err)
	}
	s := make(namenorm.NameSet, len(ents))
	for _, e := range ents {
		s.Add(e.Name())
	}
	return s, nil
}

func (l *Lister) ignored(name string) bool {
	for _, g := range l.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// List returns sorted stored names, skipping directories and ignored names.
func (l *Lister) List() ([]string, error) {
	ents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("uploader: error listing upload dir: %w", err)
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || l.ignored(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
