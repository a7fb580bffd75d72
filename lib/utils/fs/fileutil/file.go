package fileutil

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// SyncFileName fsyncs named file.
func SyncFileName(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return xerrors.Errorf("failed os.Open %q: %w", fname, err)
	}
	err = f.Sync()
	cerr := f.Close()
	if err != nil {
		return xerrors.Errorf("failed f.Sync %q: %w", fname, err)
	}
	if cerr != nil {
		return xerrors.Errorf("failed f.Close %q: %w", fname, cerr)
	}
	return nil
}

// SyncDir makes directory entry changes (creates, links, renames) durable.
// No-op where directories can't be synced.
func SyncDir(dir string) error {
	return syncDir(dir)
}

// SyncParentDir syncs directory containing fname.
func SyncParentDir(fname string) error {
	return syncDir(filepath.Dir(fname))
}
