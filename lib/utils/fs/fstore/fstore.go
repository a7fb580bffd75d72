package fstore

// abstracts and automates some filestore operations

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	Path string
}

// FStore hands out uniquely named files under its root.
type FStore struct {
	root     string // root folder + path separator
	initMu   sync.Mutex
	initDirs map[string]struct{}
}

func cleanWSlash(p string) string {
	p = path.Clean(p)
	if p != "." {
		return p + string(os.PathSeparator)
	} else {
		return ""
	}
}

func OpenFStore(cfg Config) (*FStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("fstore: empty path")
	}
	fs := &FStore{
		root:     cleanWSlash(cfg.Path),
		initDirs: make(map[string]struct{}),
	}
	err := os.MkdirAll(cfg.Path, 0777)
	if err != nil {
		return nil, fmt.Errorf("fstore: %w", err)
	}
	return fs, nil
}

func (fs *FStore) ensureDir(fulldir, dir string) (err error) {
	fs.initMu.Lock()
	defer fs.initMu.Unlock()

	if _, inited := fs.initDirs[dir]; !inited {
		err = os.MkdirAll(fulldir, 0700)
		if err != nil {
			return fmt.Errorf("error at os.MkdirAll: %w", err)
		}
		fs.initDirs[dir] = struct{}{}
	}

	return
}

// createUnique creates new file named pfx+random+ext inside dir.
func createUnique(dir, pfx, ext string) (f *os.File, err error) {
	nconflict := 0
	for i := 0; i < 10000; i++ {
		name := filepath.Join(dir, pfx+nextSuffix()+ext)
		f, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if os.IsExist(err) {
			nconflict++
			if nconflict > 10 {
				reseed()
			}
			continue
		}
		break
	}
	return
}

func (fs *FStore) NewFile(dir, pfx, ext string) (*os.File, error) {
	fulldir := fs.root + dir

	err := fs.ensureDir(fulldir, dir)
	if err != nil {
		return nil, err
	}

	return createUnique(fulldir, pfx, ext)
}

const tmpDir = "_tmp"

func (fs *FStore) TempFile(pfx, ext string) (f *os.File, err error) {
	return fs.NewFile(tmpDir, pfx, ext)
}

// CleanTemp removes temporary files left over by previous process.
// Must not be called while temp files are in use.
func (fs *FStore) CleanTemp() (n int, err error) {
	fulldir := fs.root + tmpDir
	ents, err := os.ReadDir(fulldir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	for _, e := range ents {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err = os.Remove(filepath.Join(fulldir, e.Name())); err != nil {
			return
		}
		n++
	}
	return
}
