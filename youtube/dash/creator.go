package dash

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/logger"
	"github.com/ytget/ytplayer/internal/metrics"
	"github.com/ytget/ytplayer/youtube/itag"
)

const (
	segmentDurationsPrefix = "Segment-Durations-Ms: "

	HeaderHeadTimeMillis = "X-Head-Time-Millis"
	HeaderHeadSeqnum     = "X-Head-Seqnum"
)

// Creator builds manifests and caches them per delivery type, keyed by the
// base streaming URL the caller passed in.
type Creator struct {
	dl      downloader.Downloader
	log     *logger.ComponentLogger
	metrics *metrics.Metrics

	progressive *ManifestCache
	otf         *ManifestCache
	postLive    *ManifestCache
}

// Option configures a Creator.
type Option func(*Creator)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Creator) {
		if l != nil {
			c.log = l.WithComponent(logger.ComponentDash)
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Creator) { c.metrics = m }
}

// WithCacheSize bounds each manifest cache to size entries. Non-positive
// sizes leave the caches unbounded.
func WithCacheSize(size int) Option {
	return func(c *Creator) {
		if size <= 0 {
			return
		}
		for _, mc := range []*ManifestCache{c.progressive, c.otf, c.postLive} {
			_ = mc.SetMaximumSize(size)
		}
	}
}

// NewCreator returns a Creator probing streams through dl.
func NewCreator(dl downloader.Downloader, opts ...Option) *Creator {
	c := &Creator{
		dl:          dl,
		log:         logger.WithComponent(logger.ComponentDash),
		progressive: NewManifestCache(),
		otf:         NewManifestCache(),
		postLive:    NewManifestCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the manifest cache for delivery.
func (c *Creator) Cache(delivery DeliveryType) *ManifestCache {
	switch delivery {
	case OTF:
		return c.otf
	case Live:
		return c.postLive
	default:
		return c.progressive
	}
}

// ClearCaches empties every manifest cache.
func (c *Creator) ClearCaches() {
	c.progressive.Clear()
	c.otf.Clear()
	c.postLive.Clear()
}

func (c *Creator) cached(delivery DeliveryType, baseURL string) (string, bool) {
	doc, ok := c.Cache(delivery).Get(baseURL)
	c.metrics.CacheLookup("manifest_"+delivery.String(), ok)
	return doc, ok
}

func (c *Creator) store(delivery DeliveryType, baseURL string, mpd *Node) string {
	doc := mpd.Document()
	c.Cache(delivery).Put(baseURL, doc)
	c.metrics.ManifestGenerated(delivery.String())
	c.log.Debug("manifest generated", map[string]interface{}{"delivery": delivery.String(), "bytes": len(doc)})
	return doc
}

// FromProgressiveStreamingURL builds the manifest of a progressive stream.
// The duration is the item's approximate duration when known, otherwise
// durationFallbackSec which must then be positive.
func (c *Creator) FromProgressiveStreamingURL(baseURL string, item itag.Item, durationFallbackSec int64) (string, error) {
	if doc, ok := c.cached(Progressive, baseURL); ok {
		return doc, nil
	}

	var durationMs int64
	switch {
	case item.ApproxDurationMs > 0:
		durationMs = item.ApproxDurationMs
	case durationFallbackSec > 0:
		durationMs = durationFallbackSec * 1000
	default:
		return "", manifestErr("unknown duration for progressive itag %d", item.ID)
	}
	if item.IndexStart < 0 || item.IndexEnd < 0 {
		return "", manifestErr("invalid index range %d-%d", item.IndexStart, item.IndexEnd)
	}
	if item.InitStart < 0 || item.InitEnd < 0 {
		return "", manifestErr("invalid initialization range %d-%d", item.InitStart, item.InitEnd)
	}

	mpd, rep, err := newMPD(item, durationMs)
	if err != nil {
		return "", err
	}
	rep.Append(&Node{Name: "BaseURL", Text: baseURL})
	rep.Append(NewNode("SegmentBase").Set("indexRange", byteRange(item.IndexStart, item.IndexEnd))).
		Append(NewNode("Initialization").Set("range", byteRange(item.InitStart, item.InitEnd)))

	return c.store(Progressive, baseURL, mpd), nil
}

// FromOTFStreamingURL builds the manifest of an OTF stream from the segment
// durations announced in its initialization segment.
func (c *Creator) FromOTFStreamingURL(ctx context.Context, baseURL string, item itag.Item, durationFallbackSec int64) (string, error) {
	if doc, ok := c.cached(OTF, baseURL); ok {
		return doc, nil
	}

	resp, err := c.InitializationResponse(ctx, baseURL, OTF)
	if err != nil {
		return "", err
	}
	realURL := stripProbeParams(resp.LatestURL)

	segments, err := SegmentDurations(string(resp.Body))
	if err != nil {
		return "", err
	}
	durationMs, err := TotalDurationMs(segments)
	if err != nil {
		c.log.Warn("unparsable segment durations, using fallback", map[string]interface{}{"error": err.Error()})
		durationMs = durationFallbackSec * 1000
	}
	if durationMs <= 0 {
		return "", manifestErr("unknown duration for OTF itag %d", item.ID)
	}

	mpd, rep, err := newMPD(item, durationMs)
	if err != nil {
		return "", err
	}
	timeline := rep.Append(segmentTemplate(realURL, OTF)).Append(NewNode("SegmentTimeline"))
	for _, s := range segments {
		d, r, err := parseSegment(s)
		if err != nil {
			return "", errs.Manifest(fmt.Sprintf("invalid segment %q", s), err)
		}
		node := NewNode("S").SetInt("d", d)
		if r > 0 {
			node.SetInt("r", r)
		}
		timeline.Append(node)
	}

	return c.store(OTF, baseURL, mpd), nil
}

// FromPostLiveStreamDVRStreamingURL builds the manifest of an ended live
// stream with a DVR buffer. targetDurationSec is the segment length.
func (c *Creator) FromPostLiveStreamDVRStreamingURL(ctx context.Context, baseURL string, item itag.Item, targetDurationSec int, durationFallbackSec int64) (string, error) {
	if doc, ok := c.cached(Live, baseURL); ok {
		return doc, nil
	}
	if targetDurationSec <= 0 {
		return "", manifestErr("invalid target duration %d", targetDurationSec)
	}

	resp, err := c.InitializationResponse(ctx, baseURL, Live)
	if err != nil {
		return "", err
	}
	realURL := stripProbeParams(resp.LatestURL)

	headTime, okTime := headerValue(resp, HeaderHeadTimeMillis)
	seqnum, okSeq := headerValue(resp, HeaderHeadSeqnum)
	if !okTime || !okSeq {
		return "", errs.Discovery(fmt.Sprintf("missing %s or %s header", HeaderHeadTimeMillis, HeaderHeadSeqnum), nil)
	}
	// the segment count is passed through as the server wrote it
	segmentCount := strings.TrimSpace(seqnum)
	if segmentCount == "" {
		return "", errs.Discovery("empty segment count", nil)
	}

	durationMs, err := strconv.ParseInt(strings.TrimSpace(headTime), 10, 64)
	if err != nil {
		c.log.Warn("unparsable head time, using fallback", map[string]interface{}{"head_time": headTime})
		durationMs = durationFallbackSec * 1000
	}
	if durationMs <= 0 {
		return "", manifestErr("invalid duration %d ms for post-live itag %d", durationMs, item.ID)
	}

	mpd, rep, err := newMPD(item, durationMs)
	if err != nil {
		return "", err
	}
	rep.Append(segmentTemplate(realURL, Live)).
		Append(NewNode("SegmentTimeline")).
		Append(NewNode("S").SetInt("d", int64(targetDurationSec)*1000).Set("r", segmentCount))

	return c.store(Live, baseURL, mpd), nil
}

func headerValue(resp *downloader.Response, name string) (string, bool) {
	values := resp.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func byteRange(start, end int) string {
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// SegmentDurations returns the comma separated entries of the
// Segment-Durations-Ms line of an OTF initialization segment. A trailing
// empty entry is dropped.
func SegmentDurations(body string) ([]string, error) {
	i := strings.Index(body, segmentDurationsPrefix)
	if i < 0 {
		return nil, errs.Discovery("no segment durations in initialization segment", nil)
	}
	line := body[i+len(segmentDurationsPrefix):]
	if j := strings.IndexAny(line, "\r\n"); j >= 0 {
		line = line[:j]
	}
	tokens := strings.Split(line, ",")
	for k := range tokens {
		tokens[k] = strings.TrimSpace(tokens[k])
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return nil, errs.Discovery("empty segment durations in initialization segment", nil)
	}
	return tokens, nil
}

// TotalDurationMs sums segments written as "d" or "d(r=n)", the latter
// standing for n+1 segments of d milliseconds.
func TotalDurationMs(segments []string) (int64, error) {
	var total int64
	for _, s := range segments {
		d, r, err := parseSegment(s)
		if err != nil {
			return 0, err
		}
		total += d * (1 + r)
	}
	return total, nil
}

func parseSegment(s string) (d, r int64, err error) {
	length, repeat, hasRepeat := strings.Cut(s, "(r=")
	d, err = strconv.ParseInt(strings.TrimSpace(length), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if !hasRepeat {
		return d, 0, nil
	}
	r, err = strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(repeat), ")")), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return d, r, nil
}
