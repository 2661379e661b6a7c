package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Page is a canned response served by a SourceServer.
type Page struct {
	Status      int
	Body        string
	ContentType string
	Delay       time.Duration
}

// HTMLPage builds a 200 text/html page with the given body markup.
func HTMLPage(body string) Page {
	return Page{
		Status:      http.StatusOK,
		Body:        "<!doctype html><html><head><title>t</title><style>p{}</style></head><body>" + body + "</body></html>",
		ContentType: "text/html; charset=utf-8",
	}
}

// StatusPage builds an empty page with the given status code.
func StatusPage(status int) Page {
	return Page{Status: status, ContentType: "text/html"}
}

// SourceServer stands in for an official source site. Unknown paths get 404.
type SourceServer struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string]Page
	hits  map[string]int
}

// NewSourceServer starts a SourceServer that is closed when the test ends.
func NewSourceServer(t *testing.T) *SourceServer {
	t.Helper()
	s := &SourceServer{
		pages: make(map[string]Page),
		hits:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Serve registers the page returned for path.
func (s *SourceServer) Serve(path string, p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = p
}

// URL returns the absolute URL for path.
func (s *SourceServer) URL(path string) string {
	return s.Server.URL + path
}

// Hits returns how many requests path has received.
func (s *SourceServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *SourceServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	page, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if page.Delay > 0 {
		select {
		case <-time.After(page.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if page.ContentType != "" {
		w.Header().Set("Content-Type", page.ContentType)
	}
	w.WriteHeader(page.Status)
	_, _ = w.Write([]byte(page.Body))
}
