// File: internal/fetch/recorder.go
package fetch

import (
	"sync"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
)

// Request is one recorded fetch request.
type Request struct {
	URL          string
	AllowedTypes []string
	Width        int
	Height       int
	Background   bool
}

// Recorder is a Fetcher that performs no network activity. Every request
// is recorded and immediately completed as successful, which keeps the
// object registry consistent for dry runs and offline conversion.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FetchObject implements boxtree.Fetcher.
func (r *Recorder) FetchObject(c *boxtree.Content, rawurl string, owner *boxtree.Box,
	allowedTypes []string, availableWidth, availableHeight int, background bool) bool {

	r.mu.Lock()
	r.requests = append(r.requests, Request{
		URL:          rawurl,
		AllowedTypes: allowedTypes,
		Width:        availableWidth,
		Height:       availableHeight,
		Background:   background,
	})
	r.mu.Unlock()

	c.ObjectDone(rawurl, false)
	return true
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}
