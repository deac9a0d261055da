package dash

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/youtube/innertube"
)

const (
	sq0    = "&sq=0"
	rn0    = "&rn=0"
	alrYes = "&alr=yes"

	// MaxRedirects bounds the text/plain redirects followed by a probe.
	MaxRedirects = 20
)

// InitializationResponse requests the first segment of baseURL the way the
// client it was issued for does. Web clients follow the streaming
// servers' text/plain redirects; mobile clients send an empty POST.
func (c *Creator) InitializationResponse(ctx context.Context, baseURL string, delivery DeliveryType) (*downloader.Response, error) {
	client := innertube.FromStreamingURL(baseURL)
	u := baseURL
	if client.IsBrowser() {
		u += alrYes
	}
	if delivery != Progressive {
		u += sq0
	}
	u += rn0

	log := c.log.With(map[string]interface{}{
		"client":   string(client),
		"delivery": delivery.String(),
	})
	log.Debug("probing initialization segment")

	switch {
	case client.IsBrowser():
		return c.followRedirects(ctx, u, delivery)
	case client.IsMobile():
		resp, err := c.dl.Post(ctx, u, innertube.MobileHeaders(client), []byte{})
		if err != nil {
			return nil, err
		}
		log.Trace("initialization response", map[string]interface{}{"status": resp.StatusCode, "bytes": len(resp.Body)})
		return resp, checkStatus(resp)
	default:
		resp, err := c.dl.Get(ctx, u, nil)
		if err != nil {
			return nil, err
		}
		return resp, checkStatus(resp)
	}
}

func (c *Creator) followRedirects(ctx context.Context, u string, delivery DeliveryType) (*downloader.Response, error) {
	header := innertube.BrowserHeaders()
	for hop := 0; hop < MaxRedirects; hop++ {
		var (
			resp *downloader.Response
			err  error
		)
		if delivery == Progressive {
			resp, err = c.dl.Head(ctx, u, header)
		} else {
			resp, err = c.dl.Get(ctx, u, header)
		}
		if err != nil {
			return nil, err
		}
		if err := checkStatus(resp); err != nil {
			return nil, err
		}
		contentType, ok := resp.ContentType()
		if !ok {
			return nil, errs.Network("streaming server sent no Content-Type", nil)
		}
		if contentType != "text/plain" {
			c.metrics.ObserveRedirects(hop)
			return resp, nil
		}
		next := strings.TrimSpace(string(resp.Body))
		if next == "" {
			return nil, errs.Network("streaming server sent an empty redirect", nil)
		}
		u = next
	}
	c.metrics.ObserveRedirects(MaxRedirects)
	return nil, errs.Network(fmt.Sprintf("more than %d streaming redirects", MaxRedirects), nil)
}

func checkStatus(resp *downloader.Response) error {
	if resp.StatusCode != http.StatusOK {
		return errs.Network(fmt.Sprintf("initialization request returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// stripProbeParams removes the parameters added for probing.
func stripProbeParams(u string) string {
	u = strings.ReplaceAll(u, sq0, "")
	u = strings.ReplaceAll(u, rn0, "")
	return strings.ReplaceAll(u, alrYes, "")
}
