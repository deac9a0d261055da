// Package dash synthesizes DASH manifests for YouTube streams delivered as
// progressive files, OTF segments or post-live DVR segments.
package dash

import (
	"fmt"
	"strconv"

	"github.com/ytget/ytplayer/errs"
	"github.com/ytget/ytplayer/youtube/itag"
)

// DeliveryType is how a stream is served.
type DeliveryType int

const (
	Progressive DeliveryType = iota
	OTF
	Live
)

func (d DeliveryType) String() string {
	switch d {
	case Progressive:
		return "progressive"
	case OTF:
		return "otf"
	case Live:
		return "post_live_dvr"
	default:
		return "delivery(" + strconv.Itoa(int(d)) + ")"
	}
}

// Wire constants read by strict MPD parsers.
const (
	schemaInstanceNS      = "http://www.w3.org/2001/XMLSchema-instance"
	mpdNS                 = "urn:mpeg:DASH:schema:MPD:2011"
	schemaLocation        = "urn:mpeg:dash:schema:mpd:2011 DASH-MPD.xsd"
	minBufferTime         = "PT1.500S"
	fullProfile           = "urn:mpeg:dash:profile:full:2011"
	roleScheme            = "urn:mpeg:DASH:role:2011"
	audioChannelScheme    = "urn:mpeg:dash:23003:3:audio_channel_configuration:2011"
	segmentTimescale      = "1000"
	segmentNumberTemplate = "&sq=$Number$"
)

// FormatDuration renders ms as PT<seconds>.<millis>S.
func FormatDuration(ms int64) string {
	return fmt.Sprintf("PT%d.%03dS", ms/1000, ms%1000)
}

func manifestErr(format string, args ...any) error {
	return errs.Manifest(fmt.Sprintf(format, args...), nil)
}

// newMPD builds the MPD/Period/AdaptationSet/Role/Representation chain
// shared by every delivery type and returns the root and the
// Representation to extend.
func newMPD(item itag.Item, durationMs int64) (*Node, *Node, error) {
	if item.Format.MimeType == "" {
		return nil, nil, manifestErr("itag %d has no media format", item.ID)
	}
	if item.Codec == "" {
		return nil, nil, manifestErr("itag %d has no codec", item.ID)
	}
	if item.Bitrate <= 0 {
		return nil, nil, manifestErr("itag %d has invalid bitrate %d", item.ID, item.Bitrate)
	}

	mpd := NewNode("MPD").
		Set("xmlns:xsi", schemaInstanceNS).
		Set("xmlns", mpdNS).
		Set("xsi:schemaLocation", schemaLocation).
		Set("minBufferTime", minBufferTime).
		Set("profiles", fullProfile).
		Set("type", "static").
		Set("mediaPresentationDuration", FormatDuration(durationMs))

	adaptation := NewNode("AdaptationSet").Set("id", "0")
	if item.AudioLocale != "" {
		adaptation.Set("lang", item.AudioLocale)
	}
	adaptation.Set("mimeType", item.Format.MimeType).Set("subsegmentAlignment", "true")
	mpd.Append(NewNode("Period")).Append(adaptation)

	adaptation.Append(NewNode("Role").Set("schemeIdUri", roleScheme).Set("value", roleValue(item.AudioTrackType)))

	rep := NewNode("Representation").
		SetInt("id", int64(item.ID)).
		Set("codecs", item.Codec).
		Set("startWithSAP", "1").
		Set("maxPlayoutRate", "1").
		SetInt("bandwidth", int64(item.Bitrate))
	adaptation.Append(rep)

	if item.IsAudio() {
		if item.SampleRate > 0 {
			rep.SetInt("audioSamplingRate", int64(item.SampleRate))
		}
		if item.AudioChannels <= 0 {
			return nil, nil, manifestErr("itag %d has invalid audio channel count %d", item.ID, item.AudioChannels)
		}
		rep.Append(NewNode("AudioChannelConfiguration").
			Set("schemeIdUri", audioChannelScheme).
			SetInt("value", int64(item.AudioChannels)))
		return mpd, rep, nil
	}

	if item.Width <= 0 && item.Height <= 0 {
		return nil, nil, manifestErr("itag %d has invalid dimensions %dx%d", item.ID, item.Width, item.Height)
	}
	if item.Width > 0 {
		rep.SetInt("width", int64(item.Width))
	}
	rep.SetInt("height", int64(item.Height))
	if item.FPS > 0 {
		rep.SetInt("frameRate", int64(item.FPS))
	}
	return mpd, rep, nil
}

func roleValue(t itag.AudioTrackType) string {
	switch t {
	case itag.TrackDubbed:
		return "dub"
	case itag.TrackDescriptive:
		return "description"
	case itag.TrackSecondary:
		return "alternate"
	default:
		return "main"
	}
}

func segmentTemplate(baseURL string, delivery DeliveryType) *Node {
	t := NewNode("SegmentTemplate")
	if delivery != Live {
		t.Set("initialization", baseURL+sq0)
	}
	t.Set("media", baseURL+segmentNumberTemplate)
	if delivery == Live {
		t.Set("startNumber", "0")
	} else {
		t.Set("startNumber", "1")
	}
	return t.Set("timescale", segmentTimescale)
}
