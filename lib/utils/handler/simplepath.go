package handler

import (
	"net/http"
	"net/url"
	"strings"
)

// pathRoute matches exact path, or with prefix set,
// path followed by '/' and anything.
type pathRoute struct {
	path   string
	prefix bool
	h      http.Handler
}

// match returns path seen by route handler.
func (rt *pathRoute) match(p string) (rest string, ok bool) {
	if !rt.prefix {
		return p, p == rt.path
	}
	l := len(rt.path)
	if len(p) > l && p[l] == '/' && strings.HasPrefix(p, rt.path) {
		return p[l:], true
	}
	return "", false
}

// SimplePath routes by exact path, or by path prefix with stripping.
// First registered match wins; unmatched requests go to fallback (400).
type SimplePath struct {
	routes   []pathRoute
	fallback http.Handler
}

func NewSimplePath() *SimplePath {
	return &SimplePath{fallback: http.HandlerFunc(badRequest)}
}

// Handle registers h for path; with strip, for everything under path,
// and h sees remainder starting with '/'.
func (p *SimplePath) Handle(path string, strip bool, h http.Handler) *SimplePath {
	p.routes = append(p.routes, pathRoute{path: path, prefix: strip, h: h})
	return p
}

func (p *SimplePath) Fallback(h http.Handler) *SimplePath {
	p.fallback = h
	return p
}

// stripped returns shallow copy of r with URL path replaced.
// r itself is left intact.
func stripped(r *http.Request, rest string) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = rest
	r2.URL.RawPath = ""
	return r2
}

func (p *SimplePath) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for i := range p.routes {
		rt := &p.routes[i]
		rest, ok := rt.match(r.URL.Path)
		if !ok {
			continue
		}
		if rt.prefix {
			r = stripped(r, rest)
		}
		rt.h.ServeHTTP(w, r)
		return
	}
	p.fallback.ServeHTTP(w, r)
}

var _ http.Handler = (*SimplePath)(nil)
