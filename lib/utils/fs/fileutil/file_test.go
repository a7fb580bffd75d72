package fileutil

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestSyncFileName(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "x")
	if err := ioutil.WriteFile(fn, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	if err := SyncFileName(fn); err != nil {
		t.Errorf("SyncFileName err: %v", err)
	}
	if err := SyncParentDir(fn); err != nil {
		t.Errorf("SyncParentDir err: %v", err)
	}
}

func TestSyncFileNameMissing(t *testing.T) {
	err := SyncFileName(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
