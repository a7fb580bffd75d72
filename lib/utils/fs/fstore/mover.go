package fstore

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrExists is returned when placement target is already taken.
var ErrExists = fmt.Errorf("target %w", os.ErrExist)

// Mover places finished files under their final names without
// ever replacing existing files. Not safe for concurrent use.
type Mover struct {
	nohardlink bool
}

func NewMover() *Mover {
	return &Mover{}
}

// copyNoClobber is slow path used when hard links aren't possible.
// Target is created exclusively so existing file is never touched.
func (m *Mover) copyNoClobber(from, to string) (err error) {
	rf, err := os.Open(from)
	if err != nil {
		return
	}
	defer rf.Close()

	wf, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return
	}
	defer func() {
		if err != nil {
			_ = wf.Close()
			_ = os.Remove(to)
		}
	}()

	_, err = io.Copy(wf, rf)
	if err != nil {
		return
	}

	// sync to ensure consistency
	err = wf.Sync()
	if err != nil {
		return
	}

	return wf.Close()
}

// Place links or copies from to to. If to exists, ErrExists is returned
// and nothing is changed. from is left in place.
func (m *Mover) Place(from, to string) error {
	if !m.nohardlink {
		done, err := m.link(from, to)
		if done || err != nil {
			return err
		}
	}
	return m.copyNoClobber(from, to)
}

// IsExists reports whether err came from occupied target.
func IsExists(err error) bool {
	return errors.Is(err, os.ErrExist)
}
