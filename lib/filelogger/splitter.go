package filelogger

import (
	"bufio"
	"bytes"
	"io"
)

var _ io.Writer = (*splitter)(nil)

// splitter copies message into w, putting prefix p before each of its lines.
type splitter struct {
	w   *bufio.Writer
	p   bytes.Buffer
	mid bool // inside line, prefix already written
	any bool // prefix written at least once
}

func (s *splitter) reset() {
	s.mid, s.any = false, false
	s.p.Reset()
}

func (s *splitter) Write(b []byte) (int, error) {
	for rem := b; len(rem) != 0; {
		if !s.mid {
			s.w.Write(s.p.Bytes())
			s.mid, s.any = true, true
		}
		i := bytes.IndexByte(rem, '\n')
		if i < 0 {
			s.w.Write(rem)
			break
		}
		s.w.Write(rem[:i+1])
		rem = rem[i+1:]
		s.mid = false
	}
	// bufio.Writer keeps first error
	if _, err := s.w.Write(nil); err != nil {
		return 0, err
	}
	return len(b), nil
}

// finish terminates last line and flushes.
// Empty message still gets its prefix.
func (s *splitter) finish() {
	if !s.any {
		s.w.Write(s.p.Bytes())
		s.mid, s.any = true, true
	}
	if s.mid {
		s.w.WriteByte('\n')
		s.mid = false
	}
	s.w.Flush()
}
