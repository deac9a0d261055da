// Package formats reads stream formats out of a player response and turns
// them into playable URLs.
package formats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/internal/mimeext"
	"github.com/ytget/ytplayer/youtube/dash"
	"github.com/ytget/ytplayer/youtube/itag"
)

const otfStreamType = "FORMAT_STREAM_TYPE_OTF"

// Format is one stream listed in a player response.
type Format struct {
	Item            itag.Item
	Delivery        dash.DeliveryType
	MimeType        string
	QualityLabel    string
	URL             string
	SignatureCipher string
}

// Ext returns the file extension of the format's container.
func (f Format) Ext() string {
	return mimeext.ExtFromMime(f.MimeType)
}

// Deobfuscator turns ciphered signatures and throttled URLs into playable
// ones. *player.Manager implements it.
type Deobfuscator interface {
	DeobfuscateSignature(ctx context.Context, hintID, obfuscated string) (string, error)
	URLWithThrottlingParameterDeobfuscated(ctx context.Context, hintID, streamingURL string) (string, error)
}

// Parse returns the supported formats of a player response, progressive
// formats first. Formats with unknown itags are skipped.
func Parse(playerResponse []byte) ([]Format, error) {
	if !gjson.ValidBytes(playerResponse) {
		return nil, errs.Discovery("player response is not valid JSON", nil)
	}
	doc := gjson.ParseBytes(playerResponse)
	streaming := doc.Get("streamingData")
	if !streaming.Exists() {
		reason := doc.Get("playabilityStatus.reason").String()
		return nil, errs.Discovery(fmt.Sprintf("player response has no streaming data (%s)", reason), nil)
	}
	postLive := doc.Get("videoDetails.isPostLiveDvr").Bool()

	var out []Format
	for _, list := range []string{"formats", "adaptiveFormats"} {
		streaming.Get(list).ForEach(func(_, f gjson.Result) bool {
			if format, ok := parseFormat(f, postLive); ok {
				out = append(out, format)
			}
			return true
		})
	}
	return out, nil
}

func parseFormat(f gjson.Result, postLive bool) (Format, bool) {
	item, err := itag.Lookup(int(f.Get("itag").Int()))
	if err != nil {
		return Format{}, false
	}

	mime := f.Get("mimeType").String()
	_, codec := mimeext.Split(mime)

	item.Bitrate = int(f.Get("bitrate").Int())
	item.Width = int(f.Get("width").Int())
	item.Height = int(f.Get("height").Int())
	if fps := f.Get("fps"); fps.Exists() {
		item.FPS = int(fps.Int())
	}
	item.Quality = f.Get("quality").String()
	item.Codec = codec
	item.AudioChannels = int(f.Get("audioChannels").Int())
	item.SampleRate = int(f.Get("audioSampleRate").Int())
	item.InitStart = intOr(f.Get("initRange.start"), itag.Unknown)
	item.InitEnd = intOr(f.Get("initRange.end"), itag.Unknown)
	item.IndexStart = intOr(f.Get("indexRange.start"), itag.Unknown)
	item.IndexEnd = intOr(f.Get("indexRange.end"), itag.Unknown)
	item.ApproxDurationMs = int64(intOr(f.Get("approxDurationMs"), itag.Unknown))
	item.ContentLength = int64(intOr(f.Get("contentLength"), itag.Unknown))
	item.TargetDurationSec = intOr(f.Get("targetDurationSec"), itag.Unknown)

	format := Format{
		MimeType:        mime,
		QualityLabel:    f.Get("qualityLabel").String(),
		URL:             f.Get("url").String(),
		SignatureCipher: f.Get("signatureCipher").String(),
	}
	if format.SignatureCipher == "" {
		format.SignatureCipher = f.Get("cipher").String()
	}

	if track := f.Get("audioTrack"); track.Exists() {
		item.AudioTrackID = track.Get("id").String()
		item.AudioTrackName = track.Get("displayName").String()
		item.AudioLocale, _, _ = strings.Cut(item.AudioTrackID, ".")
		item.AudioTrackType = audioTrackType(format.streamURL())
	}
	format.Item = item

	switch {
	case f.Get("type").String() == otfStreamType:
		format.Delivery = dash.OTF
	case postLive:
		format.Delivery = dash.Live
	default:
		format.Delivery = dash.Progressive
	}
	return format, true
}

// intOr reads r as an integer, numbers sent as strings included, or
// returns def.
func intOr(r gjson.Result, def int) int {
	if !r.Exists() {
		return def
	}
	if r.Type == gjson.String {
		v, err := strconv.Atoi(strings.TrimSpace(r.String()))
		if err != nil {
			return def
		}
		return v
	}
	return int(r.Int())
}

func (f Format) streamURL() string {
	if f.URL != "" {
		return f.URL
	}
	q, err := url.ParseQuery(f.SignatureCipher)
	if err != nil {
		return ""
	}
	return q.Get("url")
}

// audioTrackType reads the acont entry of the xtags query parameter.
func audioTrackType(streamURL string) itag.AudioTrackType {
	u, err := url.Parse(streamURL)
	if err != nil {
		return itag.TrackUnknown
	}
	for _, tag := range strings.Split(u.Query().Get("xtags"), ":") {
		k, v, ok := strings.Cut(tag, "=")
		if !ok || k != "acont" {
			continue
		}
		switch {
		case v == "original":
			return itag.TrackOriginal
		case strings.HasPrefix(v, "dubbed"):
			return itag.TrackDubbed
		case v == "descriptive":
			return itag.TrackDescriptive
		case v == "secondary":
			return itag.TrackSecondary
		}
	}
	return itag.TrackUnknown
}

// Resolve returns the playable URL of f: a direct URL, or the URL of its
// signature cipher with the deobfuscated signature appended, and in both
// cases with the throttling parameter deobfuscated.
func Resolve(ctx context.Context, d Deobfuscator, hintID string, f Format) (string, error) {
	streamURL := strings.TrimSpace(f.URL)
	if streamURL == "" {
		if strings.TrimSpace(f.SignatureCipher) == "" {
			return "", errs.Discovery(fmt.Sprintf("itag %d has neither url nor signatureCipher", f.Item.ID), nil)
		}
		parsed, err := url.ParseQuery(f.SignatureCipher)
		if err != nil {
			return "", errs.Discovery("could not parse signatureCipher", err)
		}
		sig := parsed.Get("s")
		sp := parsed.Get("sp")
		if sp == "" {
			sp = "signature"
		}
		cipherURL := parsed.Get("url")
		if cipherURL == "" || sig == "" {
			return "", errs.Discovery("signatureCipher missing signature or url", nil)
		}
		decoded, err := d.DeobfuscateSignature(ctx, hintID, sig)
		if err != nil {
			return "", err
		}
		streamURL = cipherURL + "&" + sp + "=" + url.QueryEscape(decoded)
	}
	return d.URLWithThrottlingParameterDeobfuscated(ctx, hintID, streamURL)
}
