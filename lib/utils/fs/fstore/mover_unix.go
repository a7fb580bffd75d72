//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package fstore

import "golang.org/x/sys/unix"

// link returns done=false if hardlinks are unsupported and copy must be used.
func (m *Mover) link(from, to string) (done bool, err error) {
	// hardlink syscall aborts incase file already exists
	// using unix.Link instead of os.Link is simpler
	e := unix.Link(from, to)
	if e == nil {
		return true, nil // OK
	}
	n, ok := e.(unix.Errno)
	if !ok {
		return false, e
	}
	switch n {
	case unix.EEXIST:
		return false, ErrExists
	case unix.EXDEV, /* cross device */
		unix.EOPNOTSUPP, /* not supported by FS */
		unix.EPERM /* used by linux to mark no support */ :
		// will need to use copy
		m.nohardlink = true
		return false, nil
	default:
		return false, e
	}
}
