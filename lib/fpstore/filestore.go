package fpstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	. "docdrop/lib/logx"
	ht "docdrop/lib/utils/hashtools"
)

type FileConfig struct {
	Path   string
	NoSync bool // don't fsync after each append
	Logger LoggerX
}

var _ Store = (*FileStore)(nil)

// FileStore is fingerprint log file, one text fingerprint per line.
type FileStore struct {
	wmu    sync.Mutex // single writer: check, append and set insert
	set    *Set
	f      *os.File
	path   string
	nosync bool
	torn   bool // last line lacks newline
	log    Logger
}

// LoadStats describes what Load saw.
type LoadStats struct {
	Lines      int
	Entries    int
	Malformed  int
	Duplicates int
}

// longer lines can't be fingerprints; they're skipped without buffering
const maxLineLen = 256

// Load reads fingerprint log from r. Malformed lines are logged and
// skipped; only read errors fail it.
func Load(r io.Reader, log Logger) (
	set map[ht.Fingerprint]struct{}, st LoadStats, err error) {

	set = make(map[ht.Fingerprint]struct{})
	br := bufio.NewReaderSize(r, 4096)
	var line []byte
	long := false
	for {
		chunk, isPrefix, e := br.ReadLine()
		if e != nil {
			if e == io.EOF {
				break
			}
			return nil, st, fmt.Errorf("error reading fingerprint log: %w", e)
		}
		if !long {
			line = append(line, chunk...)
			if len(line) > maxLineLen {
				long = true
				line = line[:0]
			}
		}
		if isPrefix {
			continue
		}

		st.Lines++
		if long {
			st.Malformed++
			log.LogPrintf(WARN, "line %d: overlong line skipped", st.Lines)
		} else if t := bytes.TrimSpace(line); len(t) != 0 {
			fp, pe := ht.ParseFingerprint(string(t))
			if pe != nil {
				st.Malformed++
				log.LogPrintf(WARN, "line %d: %v, skipped", st.Lines, pe)
			} else if _, dup := set[fp]; dup {
				st.Duplicates++
			} else {
				set[fp] = struct{}{}
			}
		}
		line = line[:0]
		long = false
	}
	st.Entries = len(set)
	return
}

// OpenFileStore opens (creating if needed) log at cfg.Path and loads it.
func OpenFileStore(cfg FileConfig) (_ *FileStore, err error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("fpstore: empty log path")
	}

	s := &FileStore{
		path:   cfg.Path,
		nosync: cfg.NoSync,
		log:    NewLogToX(cfg.Logger, fmt.Sprintf("fpstore.file(%s)", cfg.Path)),
	}

	s.f, err = os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("fpstore: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.f.Close()
		}
	}()

	fi, err := s.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fpstore: stat: %w", err)
	}

	m, st, err := Load(io.NewSectionReader(s.f, 0, fi.Size()), s.log)
	if err != nil {
		return nil, fmt.Errorf("fpstore: %w", err)
	}
	s.set = NewSet(m)

	if fi.Size() > 0 {
		var last [1]byte
		if _, err = s.f.ReadAt(last[:], fi.Size()-1); err != nil {
			return nil, fmt.Errorf("fpstore: reading log tail: %w", err)
		}
		s.torn = last[0] != '\n'
	}

	lvl := INFO
	if st.Malformed != 0 || s.torn {
		lvl = WARN
	}
	s.log.LogPrintf(lvl,
		"loaded %d fingerprints from %d lines (%d malformed, %d duplicate, torn tail: %v)",
		st.Entries, st.Lines, st.Malformed, st.Duplicates, s.torn)

	return s, nil
}

func (s *FileStore) Contains(fp ht.Fingerprint) bool {
	return s.set.Has(fp)
}

func (s *FileStore) RecordIfAbsent(fp ht.Fingerprint) (wasNew bool, err error) {
	if !fp.Type.Valid() {
		return false, ht.ErrMalformedFingerprint
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.f == nil {
		return false, ErrClosed
	}
	if s.set.Has(fp) {
		return false, nil
	}

	var buf bytes.Buffer
	if s.torn {
		// terminate torn line so it doesn't swallow our entry
		buf.WriteByte('\n')
	}
	buf.WriteString(fp.String())
	buf.WriteByte('\n')

	if _, err = s.f.Write(buf.Bytes()); err != nil {
		// we can't know how much made it
		s.torn = true
		s.log.LogPrintf(ERROR, "append of %s failed: %v", fp, err)
		return false, fmt.Errorf("fpstore: append: %w", err)
	}
	s.torn = false

	if !s.nosync {
		if err = s.f.Sync(); err != nil {
			s.log.LogPrintf(ERROR, "sync after append of %s failed: %v", fp, err)
			return false, fmt.Errorf("fpstore: sync: %w", err)
		}
	}

	s.set.Add(fp)
	s.log.LogPrintf(DEBUG, "recorded %s", fp)
	return true, nil
}

func (s *FileStore) Record(fp ht.Fingerprint) error {
	return Record(s, fp)
}

func (s *FileStore) Len() int {
	return s.set.Len()
}

// Snapshot returns copy of known fingerprints.
func (s *FileStore) Snapshot() map[ht.Fingerprint]struct{} {
	return s.set.Snapshot()
}

func (s *FileStore) Close() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
