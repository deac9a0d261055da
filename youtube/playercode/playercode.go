// Package playercode discovers, downloads and caches the YouTube base
// player script.
package playercode

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/logger"
	"github.com/ytget/ytplayer/internal/metrics"
)

const (
	ytBase            = "https://www.youtube.com"
	iframeAPIURL      = ytBase + "/iframe_api"
	embedURLPrefix    = ytBase + "/embed/"
	playerURLTemplate = ytBase + "/s/player/%s/player_ias.vflset/en_GB/base.js"
	cacheName         = "playercode"
)

// script tag name attributes that carry the base player URL
var playerScriptNames = []string{"player/base", "player_ias/base"}

var (
	iframeHashRe = regexp.MustCompile(`player\\/([a-z0-9]{8})\\/`)
	embedJSURLRe = regexp.MustCompile(`"jsUrl":"(/s/player/[A-Za-z0-9]+/player_ias\.vflset/[A-Za-z_-]+/base\.js)"`)
)

// Fetcher retrieves the player code once and serves it from memory until
// Reset. It is safe for concurrent use; concurrent first calls may each
// download, and the last completed download is kept.
type Fetcher struct {
	dl      downloader.Downloader
	log     *logger.ComponentLogger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	code    string
	url     string
	fetched bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l.WithComponent(logger.ComponentPlayerCode)
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher using dl for every request.
func New(dl downloader.Downloader, opts ...Option) *Fetcher {
	f := &Fetcher{
		dl:  dl,
		log: logger.WithComponent(logger.ComponentPlayerCode),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PlayerCode returns the cached player code, fetching it on first use.
// hintID is a video id used by the embed page fallback.
func (f *Fetcher) PlayerCode(ctx context.Context, hintID string) (string, error) {
	f.mu.RLock()
	code, ok := f.code, f.fetched
	f.mu.RUnlock()
	f.metrics.CacheLookup(cacheName, ok)
	if ok {
		return code, nil
	}

	playerURL, err := f.PlayerURL(ctx, hintID)
	if err != nil {
		return "", err
	}
	code, err = f.download(ctx, playerURL)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.code, f.url, f.fetched = code, playerURL, true
	f.mu.Unlock()
	f.log.Info("player code fetched", map[string]interface{}{"url": playerURL, "bytes": len(code)})
	return code, nil
}

// CachedURL returns the URL the cached code was downloaded from.
func (f *Fetcher) CachedURL() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.url, f.fetched
}

// Reset forgets the cached player code.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code, f.url, f.fetched = "", "", false
}

// PlayerURL discovers the absolute player code URL, trying the iframe API
// first and the embed page second.
func (f *Fetcher) PlayerURL(ctx context.Context, hintID string) (string, error) {
	u, errA := f.fromIframeAPI(ctx)
	if errA == nil {
		return u, nil
	}
	f.log.Debug("iframe api discovery failed", map[string]interface{}{"error": errA.Error()})

	u, errB := f.fromEmbedPage(ctx, hintID)
	if errB == nil {
		return NormalizeURL(u), nil
	}
	f.log.Warn("player code discovery failed", map[string]interface{}{
		"iframe_api": errA.Error(),
		"embed":      errB.Error(),
	})
	return "", errs.Discovery("could not find player code url", fmt.Errorf("iframe api: %v; embed page: %w", errA, errB))
}

func (f *Fetcher) fromIframeAPI(ctx context.Context) (string, error) {
	resp, err := f.dl.Get(ctx, iframeAPIURL, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iframe api returned status %d", resp.StatusCode)
	}
	m := iframeHashRe.FindSubmatch(resp.Body)
	if m == nil {
		return "", fmt.Errorf("player hash not found in iframe api")
	}
	return fmt.Sprintf(playerURLTemplate, m[1]), nil
}

func (f *Fetcher) fromEmbedPage(ctx context.Context, hintID string) (string, error) {
	if hintID == "" {
		return "", fmt.Errorf("no video id for embed page")
	}
	resp, err := f.dl.Get(ctx, embedURLPrefix+url.PathEscape(hintID), nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("embed page returned status %d", resp.StatusCode)
	}

	if src := playerScriptSrc(resp.Body); src != "" {
		return src, nil
	}
	if m := embedJSURLRe.FindSubmatch(resp.Body); m != nil {
		return string(m[1]), nil
	}
	return "", fmt.Errorf("player url not found in embed page")
}

// playerScriptSrc returns the src of the first script element whose name
// attribute marks it as the base player.
func playerScriptSrc(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			var name, src string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "src":
					src = a.Val
				}
			}
			for _, want := range playerScriptNames {
				if name == want && src != "" {
					found = src
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func (f *Fetcher) download(ctx context.Context, playerURL string) (string, error) {
	resp, err := f.dl.Get(ctx, playerURL, nil)
	if err != nil {
		return "", errs.Network("could not download player code", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.Network(fmt.Sprintf("player code download returned status %d", resp.StatusCode), nil)
	}
	if len(resp.Body) == 0 {
		return "", errs.Network("player code is empty", nil)
	}
	return string(resp.Body), nil
}

// NormalizeURL makes scheme relative and host relative player URLs absolute.
func NormalizeURL(u string) string {
	switch {
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "/"):
		return ytBase + u
	default:
		return u
	}
}
