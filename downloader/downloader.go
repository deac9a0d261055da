package downloader

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 3 * time.Second
	retryableMinCode = http.StatusInternalServerError // 500

	headerUserAgent       = "User-Agent"
	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerAcceptLanguage  = "Accept-Language"

	// UserAgentValue is the desktop browser user agent sent by default.
	UserAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	// LatestURL is the URL of the last request after transport redirects.
	LatestURL string
}

// ContentType returns the Content-Type header and whether it was present.
func (r *Response) ContentType() (string, bool) {
	if r == nil || r.Header == nil {
		return "", false
	}
	values, ok := r.Header[http.CanonicalHeaderKey("Content-Type")]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Downloader performs the HTTP requests the engine needs. Implementations
// must honour ctx cancellation.
type Downloader interface {
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
	Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error)
	Head(ctx context.Context, url string, header http.Header) (*Response, error)
}

// defaultTransport is a tuned HTTP transport reused across downloaders.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Bodies are decoded by decodeBody so that brotli is covered too.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional downloader parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// HTTPDownloader implements Downloader on top of net/http with a simple
// retry policy for idempotent requests.
type HTTPDownloader struct {
	HTTPClient *http.Client
	Retries    int
	UserAgent  string

	log *logger.ComponentLogger
}

// New creates a downloader with a tuned Transport. Zero config values use defaults.
func New(cfg Config) *HTTPDownloader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		}
	}

	return &HTTPDownloader{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		Retries:   retries,
		UserAgent: ua,
		log:       logger.WithComponent(logger.ComponentDownloader),
	}
}

// NewWithClient wraps an existing http.Client.
func NewWithClient(client *http.Client) *HTTPDownloader {
	if client == nil {
		return New(Config{})
	}
	return &HTTPDownloader{
		HTTPClient: client,
		Retries:    defaultRetries,
		UserAgent:  UserAgentValue,
		log:        logger.WithComponent(logger.ComponentDownloader),
	}
}

// WithLogger replaces the component logger.
func (d *HTTPDownloader) WithLogger(l *logger.Logger) *HTTPDownloader {
	if l != nil {
		d.log = l.WithComponent(logger.ComponentDownloader)
	}
	return d
}

// Get performs a GET request.
func (d *HTTPDownloader) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return d.Do(ctx, http.MethodGet, url, header, nil)
}

// Post performs a POST request. POST is never retried.
func (d *HTTPDownloader) Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error) {
	return d.Do(ctx, http.MethodPost, url, header, body)
}

// Head performs a HEAD request.
func (d *HTTPDownloader) Head(ctx context.Context, url string, header http.Header) (*Response, error) {
	return d.Do(ctx, http.MethodHead, url, header, nil)
}

// Do sends the request, retrying transport errors and 5xx responses with
// exponential backoff for GET and HEAD. A final non-2xx response is returned
// as is; only transport failures become errors.
func (d *HTTPDownloader) Do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*Response, error) {
	retries := d.Retries
	if retries < 1 || method == http.MethodPost {
		retries = 1
	}

	var (
		resp    *Response
		lastErr error
	)
	backoff := initialBackoff
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errs.Network("request cancelled", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		resp, lastErr = d.once(ctx, method, rawURL, header, body)
		lastErr = redactErr(lastErr)
		if lastErr == nil && resp.StatusCode < retryableMinCode {
			return resp, nil
		}
		if d.log != nil {
			fields := map[string]interface{}{"method": method, "url": redact(rawURL), "attempt": attempt + 1}
			if lastErr != nil {
				fields["error"] = lastErr.Error()
			} else {
				fields["status"] = resp.StatusCode
			}
			d.log.Debug("request failed", fields)
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		return nil, errs.Network(fmt.Sprintf("%s %s", method, redact(rawURL)), lastErr)
	}
	return resp, nil
}

func (d *HTTPDownloader) once(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(headerUserAgent) == "" {
		ua := d.UserAgent
		if ua == "" {
			ua = UserAgentValue
		}
		req.Header.Set(headerUserAgent, ua)
	}
	if req.Header.Get(headerAcceptEncoding) == "" {
		req.Header.Set(headerAcceptEncoding, "gzip, br")
	}
	if req.Header.Get(headerAcceptLanguage) == "" {
		req.Header.Set(headerAcceptLanguage, "en-US,en;q=0.9")
	}

	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := decodeBody(httpResp)
	if err != nil {
		return nil, err
	}

	latest := rawURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		latest = httpResp.Request.URL.String()
	}
	if d.log != nil {
		d.log.Trace("response", map[string]interface{}{
			"method": method,
			"status": httpResp.StatusCode,
			"bytes":  len(data),
		})
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       data,
		Header:     httpResp.Header,
		LatestURL:  latest,
	}, nil
}

// decodeBody reads the body and undoes gzip or brotli content encoding.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get(headerContentEncoding))) {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %v", err)
		}
		defer func() { _ = gzReader.Close() }()
		reader = gzReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}
	return data, nil
}

// redact drops the query so signed parameters stay out of error messages.
// redactErr strips the query from the URL a transport error carries.
func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redact(ue.URL)
	}
	return err
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}
