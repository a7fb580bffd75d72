// Package fpstore keeps set of content fingerprints seen so far.
//
// Every backend pairs durable append-only storage with in-memory set
// rebuilt at open. RecordIfAbsent is the atomic primitive: concurrent
// uploads of the same content get exactly one wasNew=true and exactly
// one persisted entry. Contains followed by Record is racy as a pair
// and only useful as a cheap early check.
package fpstore

import (
	"errors"
	"sync"

	ht "docdrop/lib/utils/hashtools"
)

var (
	ErrAlreadyRecorded = errors.New("fingerprint already recorded")
	ErrClosed          = errors.New("fingerprint store is closed")
)

type Store interface {
	// Contains tests in-memory set; it never waits on storage I/O.
	Contains(fp ht.Fingerprint) bool
	// RecordIfAbsent persists fp unless known. wasNew tells which happened.
	RecordIfAbsent(fp ht.Fingerprint) (wasNew bool, err error)
	// Record is RecordIfAbsent returning ErrAlreadyRecorded for known fp.
	Record(fp ht.Fingerprint) error
	Len() int
	Close() error
}

// Set is concurrency-safe fingerprint set shared by backends.
type Set struct {
	mu sync.RWMutex
	m  map[ht.Fingerprint]struct{}
}

func NewSet(m map[ht.Fingerprint]struct{}) *Set {
	if m == nil {
		m = make(map[ht.Fingerprint]struct{})
	}
	return &Set{m: m}
}

func (s *Set) Has(fp ht.Fingerprint) bool {
	s.mu.RLock()
	_, ok := s.m[fp]
	s.mu.RUnlock()
	return ok
}

func (s *Set) Add(fp ht.Fingerprint) {
	s.mu.Lock()
	s.m[fp] = struct{}{}
	s.mu.Unlock()
}

func (s *Set) Len() int {
	s.mu.RLock()
	n := len(s.m)
	s.mu.RUnlock()
	return n
}

// Snapshot returns copy of current members.
func (s *Set) Snapshot() map[ht.Fingerprint]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := make(map[ht.Fingerprint]struct{}, len(s.m))
	for k := range s.m {
		c[k] = struct{}{}
	}
	return c
}

// Record implements Store.Record on top of RecordIfAbsent
// so that backends can't diverge on duplicate handling.
func Record(s Store, fp ht.Fingerprint) error {
	wasNew, err := s.RecordIfAbsent(fp)
	if err != nil {
		return err
	}
	if !wasNew {
		return ErrAlreadyRecorded
	}
	return nil
}
