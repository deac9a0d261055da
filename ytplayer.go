// Package ytplayer wires the YouTube player code pipeline: player code
// discovery, signature and throttling parameter deobfuscation, stream URL
// resolution and DASH manifest synthesis.
package ytplayer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/config"
	"github.com/ytget/ytplayer/internal/logger"
	"github.com/ytget/ytplayer/internal/metrics"
	"github.com/ytget/ytplayer/javascript"
	"github.com/ytget/ytplayer/youtube/dash"
	"github.com/ytget/ytplayer/youtube/formats"
	"github.com/ytget/ytplayer/youtube/innertube"
	"github.com/ytget/ytplayer/youtube/player"
	"github.com/ytget/ytplayer/youtube/playercode"
)

// Engine owns one set of caches. Engines are independent of each other
// and safe for concurrent use.
type Engine struct {
	dl      downloader.Downloader
	runner  javascript.Runner
	log     *logger.Logger
	metrics *metrics.Metrics
	client  innertube.Client

	manifestCacheSize int

	fetcher   *playercode.Fetcher
	manager   *player.Manager
	manifests *dash.Creator
}

// Option configures an Engine.
type Option func(*Engine)

// WithDownloader sets the HTTP collaborator.
func WithDownloader(dl downloader.Downloader) Option {
	return func(e *Engine) { e.dl = dl }
}

// WithRunner sets the JavaScript runner.
func WithRunner(r javascript.Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics registers the engine collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = metrics.NewWithRegisterer(reg) }
}

// WithManifestCacheSize bounds each manifest cache.
func WithManifestCacheSize(size int) Option {
	return func(e *Engine) { e.manifestCacheSize = size }
}

// WithInnertubeClient sets the client used for /player requests.
func WithInnertubeClient(c innertube.Client) Option {
	return func(e *Engine) { e.client = c }
}

// New creates an Engine. Without options it uses the HTTP downloader, the
// goja runner, the global logger and no metrics.
func New(opts ...Option) *Engine {
	e := &Engine{client: innertube.Web}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.GetGlobalLogger()
	}
	if e.dl == nil {
		e.dl = downloader.New(downloader.Config{}).WithLogger(e.log)
	}
	if e.runner == nil {
		e.runner = javascript.NewGojaRunner(0)
	}

	e.fetcher = playercode.New(e.dl, playercode.WithLogger(e.log), playercode.WithMetrics(e.metrics))
	e.manager = player.NewManager(e.fetcher, e.runner, player.WithLogger(e.log), player.WithMetrics(e.metrics))
	e.manifests = dash.NewCreator(e.dl,
		dash.WithLogger(e.log),
		dash.WithMetrics(e.metrics),
		dash.WithCacheSize(e.manifestCacheSize))
	return e
}

// NewFromEnv loads .env, then builds an Engine from YTPLAYER_* variables.
// Options are applied after the environment settings.
func NewFromEnv(opts ...Option) (*Engine, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	logConfig := logger.EnvironmentConfig()
	if err := logConfig.ValidateConfig(); err != nil {
		return nil, err
	}
	log, err := logger.CreateLoggerFromConfig(logConfig)
	if err != nil {
		return nil, err
	}
	s := config.FromEnv()
	runner, err := javascript.NewRunner(s.JSEngine, s.JSTimeout)
	if err != nil {
		return nil, err
	}
	dl := downloader.New(downloader.Config{
		Timeout:   s.HTTPTimeout,
		Retries:   s.HTTPRetries,
		UserAgent: s.UserAgent,
		ProxyURL:  s.ProxyURL,
	}).WithLogger(log)

	base := []Option{
		WithLogger(log),
		WithDownloader(dl),
		WithRunner(runner),
		WithManifestCacheSize(s.ManifestCacheSize),
	}
	return New(append(base, opts...)...), nil
}

// Manager returns the deobfuscation manager.
func (e *Engine) Manager() *player.Manager { return e.manager }

// Manifests returns the manifest creator.
func (e *Engine) Manifests() *dash.Creator { return e.manifests }

// MetricsHandler serves the engine collectors, or 404 without metrics.
func (e *Engine) MetricsHandler() http.Handler { return e.metrics.Handler() }

// Formats requests the player response of videoID with the current
// signature timestamp and returns its supported formats.
func (e *Engine) Formats(ctx context.Context, videoID string) ([]formats.Format, error) {
	sts, err := e.manager.SignatureTimestamp(ctx, videoID)
	if err != nil {
		if !errs.IsExtractionFailure(err) {
			return nil, err
		}
		// ciphered formats may not match, direct ones still work
		e.log.WithComponent(logger.ComponentApp).Warn("no signature timestamp", map[string]interface{}{"error": err.Error()})
		sts = 0
	}
	body, err := innertube.Player(ctx, e.dl, e.client, videoID, sts)
	if err != nil {
		return nil, err
	}
	return formats.Parse(body)
}

// ResolveURL returns the playable URL of f.
func (e *Engine) ResolveURL(ctx context.Context, hintID string, f formats.Format) (string, error) {
	return formats.Resolve(ctx, e.manager, hintID, f)
}

// Manifest resolves f and synthesizes the DASH manifest for its delivery
// type.
func (e *Engine) Manifest(ctx context.Context, hintID string, f formats.Format, durationFallbackSec int64) (string, error) {
	streamURL, err := e.ResolveURL(ctx, hintID, f)
	if err != nil {
		return "", err
	}
	switch f.Delivery {
	case dash.OTF:
		return e.manifests.FromOTFStreamingURL(ctx, streamURL, f.Item, durationFallbackSec)
	case dash.Live:
		return e.manifests.FromPostLiveStreamDVRStreamingURL(ctx, streamURL, f.Item, f.Item.TargetDurationSec, durationFallbackSec)
	default:
		return e.manifests.FromProgressiveStreamingURL(streamURL, f.Item, durationFallbackSec)
	}
}

// ClearAllCaches drops the player code, every deobfuscation artifact and
// every manifest.
func (e *Engine) ClearAllCaches() {
	e.manager.ClearAllCaches()
	e.manifests.ClearCaches()
}

// ExtractVideoID returns the video id of a watch, short, embed or
// youtu.be URL.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil {
		return "", errs.Discovery("invalid video url", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) >= 2 {
				id = parts[1]
			}
		}
	}
	if id == "" {
		return "", errs.Discovery(fmt.Sprintf("not a youtube video url: %q", videoURL), nil)
	}
	return id, nil
}
