package innertube

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytplayer/downloader"
	"github.com/ytget/ytplayer/downloader/downloadertest"
	"github.com/ytget/ytplayer/errs"
)

func TestFromStreamingURL(t *testing.T) {
	tests := []struct {
		url  string
		want Client
	}{
		{"https://rr1---sn.googlevideo.com/videoplayback?expire=1&c=WEB&n=x", Web},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=web_embedded_player", WebEmbeddedPlayer},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=TVHTML5_SIMPLY_EMBEDDED_PLAYER", TVHTML5SimplyEmbeddedPlayer},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=MWEB", MWeb},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=ANDROID", Android},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=IOS", IOS},
		{"https://rr1---sn.googlevideo.com/videoplayback?c=TVHTML5", Other},
		{"https://rr1---sn.googlevideo.com/videoplayback?itag=22", Other},
		{"://bad", Other},
	}
	for _, tt := range tests {
		if got := FromStreamingURL(tt.url); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFamilies(t *testing.T) {
	for _, c := range []Client{Web, WebEmbeddedPlayer, TVHTML5SimplyEmbeddedPlayer, MWeb} {
		if !c.IsBrowser() || c.IsMobile() {
			t.Errorf("%s should be a browser client", c)
		}
		if c.UserAgent() != downloader.UserAgentValue {
			t.Errorf("%s user agent = %q", c, c.UserAgent())
		}
	}
	for _, c := range []Client{Android, IOS} {
		if c.IsBrowser() || !c.IsMobile() {
			t.Errorf("%s should be a mobile client", c)
		}
	}
	if Other.IsBrowser() || Other.IsMobile() {
		t.Error("other client belongs to no family")
	}
	if Android.UserAgent() == IOS.UserAgent() {
		t.Error("mobile clients should have distinct user agents")
	}
}

func TestClientCodeFromName(t *testing.T) {
	tests := map[string]string{
		"WEB":                            "1",
		"web":                            "1",
		"MWEB":                           "2",
		"ANDROID":                        "3",
		"IOS":                            "5",
		"TVHTML5":                        "7",
		"WEB_EMBEDDED_PLAYER":            "56",
		"WEB_CREATOR":                    "62",
		"WEB_REMIX":                      "67",
		"TVHTML5_SIMPLY":                 "75",
		"TVHTML5_SIMPLY_EMBEDDED_PLAYER": "85",
		"UNKNOWN":                        "",
		"":                               "",
	}
	for name, want := range tests {
		if got := clientCodeFromName(name); got != want {
			t.Errorf("clientCodeFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestBrowserAndMobileHeaders(t *testing.T) {
	h := BrowserHeaders()
	if h.Get("Origin") != "https://www.youtube.com" || h.Get("Referer") != "https://www.youtube.com" {
		t.Errorf("unexpected browser headers: %v", h)
	}
	m := MobileHeaders(IOS)
	if m.Get("User-Agent") != iosUserAgent {
		t.Errorf("ios user agent = %q", m.Get("User-Agent"))
	}
	if m.Get("Origin") != "" {
		t.Error("mobile headers should not carry an origin")
	}
}

func TestNewPlayerRequest(t *testing.T) {
	raw, err := json.Marshal(NewPlayerRequest(Android, "dQw4w9WgXcQ", 19834))
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(raw)
	if got := doc.Get("context.client.clientName").String(); got != "ANDROID" {
		t.Errorf("clientName = %q", got)
	}
	if got := doc.Get("context.client.androidSdkVersion").Int(); got != 34 {
		t.Errorf("androidSdkVersion = %d", got)
	}
	if got := doc.Get("playbackContext.contentPlaybackContext.signatureTimestamp").Int(); got != 19834 {
		t.Errorf("signatureTimestamp = %d", got)
	}
	if got := doc.Get("videoId").String(); got != "dQw4w9WgXcQ" {
		t.Errorf("videoId = %q", got)
	}

	raw, _ = json.Marshal(NewPlayerRequest(Web, "x", 0))
	if gjson.GetBytes(raw, "playbackContext").Exists() {
		t.Error("playbackContext should be omitted without a timestamp")
	}
}

func TestPlayer(t *testing.T) {
	fake := downloadertest.New().
		Respond(http.MethodPost, playerEndpoint, 200, `{"streamingData":{}}`, nil)
	body, err := Player(context.Background(), fake, Web, "abc", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"streamingData":{}}` {
		t.Errorf("body = %s", body)
	}
	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[0].Header.Get("X-YouTube-Client-Name") != "1" {
		t.Errorf("client name header = %q", calls[0].Header.Get("X-YouTube-Client-Name"))
	}
	if gjson.GetBytes(calls[0].Body, "context.client.clientName").String() != "WEB" {
		t.Errorf("body = %s", calls[0].Body)
	}

	fake = downloadertest.New().Respond(http.MethodPost, playerEndpoint, 403, "", nil)
	if _, err := Player(context.Background(), fake, Web, "abc", 1); !errs.IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
}
