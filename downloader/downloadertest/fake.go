// Package downloadertest provides a scripted, call-counting Downloader for
// tests.
package downloadertest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ytget/ytplayer/downloader"
)

// Call records one request made through a Fake.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Responder produces the response for a call.
type Responder func(Call) (*downloader.Response, error)

// Fake is a Downloader answering from registered routes. Unrouted requests
// get a 404 response.
type Fake struct {
	mu     sync.Mutex
	routes map[string]Responder
	calls  []Call
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{routes: make(map[string]Responder)}
}

func key(method, url string) string { return method + " " + url }

// Handle registers a responder for method and url.
func (f *Fake) Handle(method, url string, r Responder) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key(method, url)] = r
	return f
}

// Respond registers a fixed response for method and url.
func (f *Fake) Respond(method, url string, status int, body string, header http.Header) *Fake {
	return f.Handle(method, url, func(Call) (*downloader.Response, error) {
		return &downloader.Response{StatusCode: status, Body: []byte(body), Header: header.Clone()}, nil
	})
}

// Fail registers a responder returning err for method and url.
func (f *Fake) Fail(method, url string, err error) *Fake {
	return f.Handle(method, url, func(Call) (*downloader.Response, error) {
		return nil, err
	})
}

// Calls returns a copy of every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of requests made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// CountFor returns the number of requests made for method and url.
func (f *Fake) CountFor(method, url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.URL == url {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps routes.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Get implements downloader.Downloader.
func (f *Fake) Get(ctx context.Context, url string, header http.Header) (*downloader.Response, error) {
	return f.do(ctx, Call{Method: http.MethodGet, URL: url, Header: header})
}

// Post implements downloader.Downloader.
func (f *Fake) Post(ctx context.Context, url string, header http.Header, body []byte) (*downloader.Response, error) {
	return f.do(ctx, Call{Method: http.MethodPost, URL: url, Header: header, Body: body})
}

// Head implements downloader.Downloader.
func (f *Fake) Head(ctx context.Context, url string, header http.Header) (*downloader.Response, error) {
	return f.do(ctx, Call{Method: http.MethodHead, URL: url, Header: header})
}

func (f *Fake) do(ctx context.Context, c Call) (*downloader.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fake downloader: %w", err)
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	r, ok := f.routes[key(c.Method, c.URL)]
	f.mu.Unlock()

	if !ok {
		return &downloader.Response{StatusCode: http.StatusNotFound, Header: http.Header{}, LatestURL: c.URL}, nil
	}
	resp, err := r(c)
	if err != nil {
		return nil, err
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	if resp.LatestURL == "" {
		resp.LatestURL = c.URL
	}
	return resp, nil
}

var _ downloader.Downloader = (*Fake)(nil)
