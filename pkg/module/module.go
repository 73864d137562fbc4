// Package module mounts prefixed HTTP sub-applications, each with its own
// middleware stack, beside the health and metrics endpoints of a process.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/rapid/pkg/middleware"
)

// Module strips its prefix and delegates to an inner router wrapped in the
// module's middleware.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module with a single-level prefix such as "/api". It panics
// when the prefix is empty, lacks a leading slash, or has more than one
// segment.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the inner router wrapped with the middleware stack. The
// stack is composed on first use; later calls to Use have no effect.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the prefix from the request path and dispatches to the inner
// router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

// Use appends middleware. The first middleware added runs outermost.
func (m *Module) Use(mws ...func(http.Handler) http.Handler) {
	for _, mw := range mws {
		m.middleware.Use(mw)
	}
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	rest, ok := strings.CutPrefix(prefix, "/")
	if !ok {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if rest == "" || strings.Contains(rest, "/") {
		return fmt.Errorf("module prefix must be a single-level sub-path: %s", prefix)
	}
	return nil
}
