// Package innertube knows the YouTube client families that streaming URLs
// are issued for and the request shapes each family expects.
package innertube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/errs"
)

// Client is an InnerTube client name.
type Client string

const (
	Web                         Client = "WEB"
	WebEmbeddedPlayer           Client = "WEB_EMBEDDED_PLAYER"
	TVHTML5SimplyEmbeddedPlayer Client = "TVHTML5_SIMPLY_EMBEDDED_PLAYER"
	MWeb                        Client = "MWEB"
	Android                     Client = "ANDROID"
	IOS                         Client = "IOS"
	// Other is any client without dedicated handling.
	Other Client = ""
)

const (
	ytBase = "https://www.youtube.com"

	androidVersion = "19.28.35"
	iosVersion     = "19.28.1"
	webVersion     = "2.20250312.04.00"
	iosDevice      = "iPhone16,2"
	iosOSVersion   = "17.5.1.21F90"

	androidUserAgent = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 14; US) gzip"
	iosUserAgent     = "com.google.ios.youtube/" + iosVersion + " (" + iosDevice + "; U; CPU iOS 17_5_1 like Mac OS X; US)"

	playerEndpoint = ytBase + "/youtubei/v1/player?prettyPrint=false"
)

// IsBrowser reports whether c is one of the web clients.
func (c Client) IsBrowser() bool {
	switch c {
	case Web, WebEmbeddedPlayer, TVHTML5SimplyEmbeddedPlayer, MWeb:
		return true
	}
	return false
}

// IsMobile reports whether c is one of the mobile app clients.
func (c Client) IsMobile() bool {
	return c == Android || c == IOS
}

// Version returns the client version sent with requests.
func (c Client) Version() string {
	switch c {
	case Android:
		return androidVersion
	case IOS:
		return iosVersion
	case WebEmbeddedPlayer, TVHTML5SimplyEmbeddedPlayer:
		return "2.0"
	default:
		return webVersion
	}
}

// UserAgent returns the User-Agent the family sends.
func (c Client) UserAgent() string {
	switch c {
	case Android:
		return androidUserAgent
	case IOS:
		return iosUserAgent
	default:
		return downloader.UserAgentValue
	}
}

// Code returns the X-YouTube-Client-Name numeric code, or "" if unknown.
func (c Client) Code() string {
	return clientCodeFromName(string(c))
}

// clientCodeFromName returns X-YouTube-Client-Name numeric code for known clients
func clientCodeFromName(name string) string {
	switch strings.ToUpper(name) {
	case "WEB":
		return "1"
	case "MWEB":
		return "2"
	case "ANDROID":
		return "3"
	case "IOS":
		return "5"
	case "TVHTML5":
		return "7"
	case "WEB_EMBEDDED_PLAYER":
		return "56"
	case "WEB_CREATOR":
		return "62"
	case "WEB_REMIX":
		return "67"
	case "TVHTML5_SIMPLY":
		return "75"
	case "TVHTML5_SIMPLY_EMBEDDED_PLAYER":
		return "85"
	default:
		return ""
	}
}

// FromStreamingURL returns the client a streaming URL was issued for, read
// from its c query parameter.
func FromStreamingURL(streamingURL string) Client {
	u, err := url.Parse(streamingURL)
	if err != nil {
		return Other
	}
	switch c := Client(strings.ToUpper(u.Query().Get("c"))); c {
	case Web, WebEmbeddedPlayer, TVHTML5SimplyEmbeddedPlayer, MWeb, Android, IOS:
		return c
	}
	return Other
}

// BrowserHeaders returns the headers web clients send to the streaming
// servers.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Origin", ytBase)
	h.Set("Referer", ytBase)
	h.Set("User-Agent", downloader.UserAgentValue)
	return h
}

// MobileHeaders returns the headers the mobile client c sends.
func MobileHeaders(c Client) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.UserAgent())
	return h
}

// PlayerRequest is the body of a /player call.
type PlayerRequest struct {
	Context struct {
		Client map[string]any `json:"client"`
	} `json:"context"`
	VideoID         string           `json:"videoId"`
	ContentCheckOK  bool             `json:"contentCheckOk"`
	RacyCheckOK     bool             `json:"racyCheckOk"`
	PlaybackContext *PlaybackContext `json:"playbackContext,omitempty"`
}

// PlaybackContext carries the signature timestamp of a /player call.
type PlaybackContext struct {
	ContentPlaybackContext ContentPlaybackContext `json:"contentPlaybackContext"`
}

// ContentPlaybackContext is the inner playback context.
type ContentPlaybackContext struct {
	HTML5Preference    string `json:"html5Preference"`
	SignatureTimestamp int    `json:"signatureTimestamp"`
}

// NewPlayerRequest builds the /player body for c. A positive sts is sent as
// the signature timestamp so ciphered URLs match the player code.
func NewPlayerRequest(c Client, videoID string, sts int) PlayerRequest {
	client := map[string]any{
		"clientName":    string(c),
		"clientVersion": c.Version(),
		"hl":            "en",
		"gl":            "US",
	}
	switch c {
	case Android:
		client["androidSdkVersion"] = 34
		client["osName"] = "Android"
		client["osVersion"] = "14"
		client["userAgent"] = androidUserAgent
	case IOS:
		client["deviceMake"] = "Apple"
		client["deviceModel"] = iosDevice
		client["osName"] = "iPhone"
		client["osVersion"] = iosOSVersion
		client["userAgent"] = iosUserAgent
	}

	var req PlayerRequest
	req.Context.Client = client
	req.VideoID = videoID
	req.ContentCheckOK = true
	req.RacyCheckOK = true
	if sts > 0 {
		req.PlaybackContext = &PlaybackContext{ContentPlaybackContext{
			HTML5Preference:    "HTML5_PREF_WANTS",
			SignatureTimestamp: sts,
		}}
	}
	return req
}

// Headers returns the request headers for a /player call made as c.
func (c Client) Headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", c.UserAgent())
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("X-YouTube-Client-Version", c.Version())
	if code := c.Code(); code != "" {
		h.Set("X-YouTube-Client-Name", code)
	}
	if c.IsBrowser() {
		h.Set("Origin", ytBase)
		h.Set("Referer", ytBase+"/")
	}
	return h
}

// Player posts a /player request for videoID as c and returns the raw JSON
// player response.
func Player(ctx context.Context, dl downloader.Downloader, c Client, videoID string, sts int) ([]byte, error) {
	body, err := json.Marshal(NewPlayerRequest(c, videoID, sts))
	if err != nil {
		return nil, errs.Network("could not encode player request", err)
	}
	resp, err := dl.Post(ctx, playerEndpoint, c.Headers(), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Network(fmt.Sprintf("player request for %s returned status %d", videoID, resp.StatusCode), nil)
	}
	return resp.Body, nil
}
