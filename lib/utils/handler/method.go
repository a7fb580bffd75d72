package handler

import (
	"net/http"
	"strings"
)

// Method dispatches by request method. OPTIONS is answered with Allow.
type Method struct {
	// methods[0]=OPTIONS,handlers[0]=fallback,methods[1:n]--handlers[1:n]
	methods  []string
	handlers []http.Handler
}

func NewMethod() *Method {
	return new(Method).Initialize()
}

func (m *Method) Initialize() *Method {
	m.methods = append(m.methods[:0], "OPTIONS")
	m.handlers = append(m.handlers[:0], http.HandlerFunc(methodNotAllowed))
	return m
}

func (m *Method) has(um string) bool {
	for _, s := range m.methods {
		if um == s {
			return true
		}
	}
	return false
}

func (m *Method) Handle(method string, handler http.Handler) *Method {
	if len(m.methods) < 1 {
		panic("Method struct is not properly initialized")
	}

	// not going to use non-standard lowercase or mixed-case methods
	um := strings.ToUpper(method)

	if !m.has(um) {
		m.methods = append(m.methods, um)
		m.handlers = append(m.handlers, handler)
		// HEAD is consistent with GET
		if um == http.MethodGet && !m.has(http.MethodHead) {
			m.methods = append(m.methods, http.MethodHead)
			m.handlers = append(m.handlers, handler)
		}
	}

	return m
}

func (m *Method) Fallback(handler http.Handler) *Method {
	if len(m.handlers) < 1 {
		panic("Method struct is not properly initialized")
	}
	m.handlers[0] = handler
	return m
}

func (m *Method) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for i := 1; i < len(m.methods); i++ {
		if r.Method == m.methods[i] {
			m.handlers[i].ServeHTTP(w, r)
			return
		}
	}
	w.Header().Set("Allow", strings.Join(m.methods, ", "))
	if r.Method != http.MethodOptions {
		m.handlers[0].ServeHTTP(w, r)
	}
}

var _ http.Handler = (*Method)(nil)
