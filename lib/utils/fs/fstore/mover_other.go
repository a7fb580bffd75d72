//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris
// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package fstore

// link always defers to copy on platforms without reliable link errors.
func (m *Mover) link(from, to string) (done bool, err error) {
	m.nohardlink = true
	return false, nil
}
