package formats

import (
	"testing"

	"github.com/ytget/ytplayer/youtube/itag"
)

func format(id int, mime, u, label string, h, bitrate int) Format {
	it, err := itag.Lookup(id)
	if err != nil {
		it = itag.NewItem(id, itag.Video, itag.MPEG4)
	}
	it.Height = h
	it.Bitrate = bitrate
	return Format{Item: it, MimeType: mime, URL: u, QualityLabel: label}
}

func TestHasDirectURL(t *testing.T) {
	if !hasDirectURL(Format{URL: "http://x"}) {
		t.Fatal("expected true for non-empty URL")
	}
	if hasDirectURL(Format{URL: ""}) {
		t.Fatal("expected false for empty URL")
	}
}

func TestMimeSubtypeEquals(t *testing.T) {
	f := Format{MimeType: "video/mp4; codecs=\"avc1.64001F\""}
	if !mimeSubtypeEquals(f, "mp4") {
		t.Fatal("mp4 should match")
	}
	if !mimeSubtypeEquals(f, ".mp4") {
		t.Fatal(".mp4 should match")
	}
	if mimeSubtypeEquals(f, "webm") {
		t.Fatal("webm should not match mp4")
	}
	if !mimeSubtypeEquals(f, "") {
		t.Fatal("empty extension should not filter")
	}
}

func TestWithinHeight(t *testing.T) {
	f := Format{QualityLabel: "720p"}
	if !withinHeight(f, 0, 0) {
		t.Fatal("no bounds should pass")
	}
	if !withinHeight(f, 480, 1080) {
		t.Fatal("720p should be within 480..1080")
	}
	if withinHeight(f, 1080, 0) {
		t.Fatal("720p should not be >=1080")
	}
	if withinHeight(f, 0, 360) {
		t.Fatal("720p should not be <=360")
	}
}

func TestHeightPrefersItem(t *testing.T) {
	f := format(22, "video/mp4", "", "360p", 720, 0)
	if h := height(f); h != 720 {
		t.Fatalf("height = %d, want 720", h)
	}
	f.Item.Height = 0
	f.QualityLabel = ""
	if h := height(f); h != 720 {
		t.Fatalf("height from resolution label = %d, want 720", h)
	}
}

func TestBetterByHeightThenBitrate(t *testing.T) {
	a := Format{QualityLabel: "720p"}
	a.Item.Bitrate = 1
	b := Format{QualityLabel: "1080p"}
	b.Item.Bitrate = 1
	if !betterByHeightThenBitrate(b, a) {
		t.Fatal("1080p should be better than 720p")
	}
	c := Format{QualityLabel: "720p"}
	c.Item.Bitrate = 100
	if !betterByHeightThenBitrate(c, a) {
		t.Fatal("higher bitrate should be better at same height")
	}
}

func TestSelect(t *testing.T) {
	list := []Format{
		format(18, "video/mp4", "u1", "360p", 360, 500000),
		format(22, "video/mp4", "u2", "720p", 720, 2000000),
		format(248, "video/webm", "u3", "1080p", 1080, 3000000),
	}
	tests := []struct {
		quality, ext, want string
	}{
		{"", "webm", "u3"},
		{"itag=18", "", "u1"},
		{"best", "", "u3"},
		{"worst", "", "u1"},
		{"height<=480", "", "u1"},
		{"height>=1080", "", "u3"},
		{"", "", "u2"},
		{"itag=999", "", "u2"},
	}
	for _, tt := range tests {
		f := Select(list, tt.quality, tt.ext)
		if f == nil || f.URL != tt.want {
			t.Errorf("Select(%q, %q) = %+v, want %s", tt.quality, tt.ext, f, tt.want)
		}
	}
	if Select(nil, "best", "") != nil {
		t.Error("empty list should select nothing")
	}
}
