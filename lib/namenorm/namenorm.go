// Package namenorm turns uploaded file names into stored names.
package namenorm

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMarker = "_freemagazines_top"
	DefaultExt    = ".pdf"
	unnamed       = "unnamed"
)

// Existing is view of names already taken in target namespace.
type Existing interface {
	Has(name string) bool
}

// NameSet is simple Existing.
type NameSet map[string]struct{}

func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

type Normalizer struct {
	// Marker and everything after its first occurrence is cut off.
	// Empty disables cutting.
	Marker string
	// DefaultExt is appended after cut if name doesn't end with it already.
	DefaultExt string
}

var Default = Normalizer{Marker: DefaultMarker, DefaultExt: DefaultExt}

// Clean applies name rewriting without collision handling.
func (n Normalizer) Clean(raw string) string {
	name := norm.NFC.String(raw)

	// flat namespace: keep last path component only
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, name)

	if n.Marker != "" {
		if i := strings.Index(name, n.Marker); i >= 0 {
			name = name[:i]
			if !strings.HasSuffix(name, n.DefaultExt) {
				name += n.DefaultExt
			}
		}
	}

	name = strings.ReplaceAll(name, "_", " ")

	if name == "" || name == "." || name == ".." || name == n.DefaultExt {
		name = unnamed + n.DefaultExt
	}
	return name
}

// Normalize returns cleaned raw name, disambiguated with " (n)" suffix
// before extension so that it isn't in existing.
// Result is unique only against existing as it was during call.
func (n Normalizer) Normalize(raw string, existing Existing) string {
	name := n.Clean(raw)
	if existing == nil || !existing.Has(name) {
		return name
	}
	base, ext := SplitExt(name)
	for i := 1; ; i++ {
		cand := base + " (" + strconv.Itoa(i) + ")" + ext
		if !existing.Has(cand) {
			return cand
		}
	}
}

// Normalize uses Default normalizer.
func Normalize(raw string, existing Existing) string {
	return Default.Normalize(raw, existing)
}

// SplitExt splits name at last dot. Leading dots don't start extension,
// so ".profile" has none and "a.tar.gz" has ".gz".
func SplitExt(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	if strings.Trim(name[:i], ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}
