// Package itag describes YouTube stream renditions identified by their
// numeric format id (itag).
package itag

import (
	"fmt"

	"github.com/ytget/ytplayer/errs"
)

// Kind is the rendition kind of an Item.
type Kind int

const (
	Audio Kind = iota
	Video
	VideoOnly
)

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Video:
		return "video"
	case VideoOnly:
		return "video_only"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MediaFormat is a container format.
type MediaFormat struct {
	Name     string
	Suffix   string
	MimeType string
}

var (
	MPEG4     = MediaFormat{Name: "MPEG-4", Suffix: "mp4", MimeType: "video/mp4"}
	ThreeGPP  = MediaFormat{Name: "3GPP", Suffix: "3gp", MimeType: "video/3gpp"}
	WebM      = MediaFormat{Name: "WebM", Suffix: "webm", MimeType: "video/webm"}
	M4A       = MediaFormat{Name: "m4a", Suffix: "m4a", MimeType: "audio/mp4"}
	WebMA     = MediaFormat{Name: "WebM", Suffix: "webm", MimeType: "audio/webm"}
	WebMAOpus = MediaFormat{Name: "WebM Opus", Suffix: "webm", MimeType: "audio/webm"}
)

// AudioTrackType classifies an audio track.
type AudioTrackType int

const (
	TrackUnknown AudioTrackType = iota
	TrackOriginal
	TrackDubbed
	TrackDescriptive
	TrackSecondary
)

// Unknown marks numeric fields without a value.
const Unknown = -1

// Item describes one rendition. The kind is fixed at construction.
type Item struct {
	ID              int
	kind            Kind
	Format          MediaFormat
	ResolutionLabel string
	FPS             int
	AvgBitrate      int

	Bitrate           int
	Width             int
	Height            int
	InitStart         int
	InitEnd           int
	IndexStart        int
	IndexEnd          int
	Quality           string
	Codec             string
	AudioChannels     int
	SampleRate        int
	ApproxDurationMs  int64
	ContentLength     int64
	TargetDurationSec int

	AudioTrackID   string
	AudioTrackName string
	AudioTrackType AudioTrackType
	AudioLocale    string
}

// NewItem builds an Item of the given kind with every DASH field unknown.
func NewItem(id int, kind Kind, format MediaFormat) Item {
	return Item{
		ID:                id,
		kind:              kind,
		Format:            format,
		FPS:               Unknown,
		AvgBitrate:        Unknown,
		InitStart:         Unknown,
		InitEnd:           Unknown,
		IndexStart:        Unknown,
		IndexEnd:          Unknown,
		ApproxDurationMs:  Unknown,
		ContentLength:     Unknown,
		TargetDurationSec: Unknown,
	}
}

// Kind returns the rendition kind.
func (it Item) Kind() Kind { return it.kind }

// IsAudio reports whether the item carries only audio.
func (it Item) IsAudio() bool { return it.kind == Audio }

func video(id int, f MediaFormat, label string) Item {
	it := NewItem(id, Video, f)
	it.ResolutionLabel = label
	it.FPS = 30
	return it
}

func videoOnly(id int, f MediaFormat, label string, fps int) Item {
	it := NewItem(id, VideoOnly, f)
	it.ResolutionLabel = label
	it.FPS = fps
	return it
}

func audio(id int, f MediaFormat, avgBitrate int) Item {
	it := NewItem(id, Audio, f)
	it.AvgBitrate = avgBitrate
	return it
}

var table = []Item{
	video(17, ThreeGPP, "144p"),
	video(36, ThreeGPP, "240p"),

	video(18, MPEG4, "360p"),
	video(34, MPEG4, "360p"),
	video(35, MPEG4, "480p"),
	video(59, MPEG4, "480p"),
	video(78, MPEG4, "480p"),
	video(22, MPEG4, "720p"),
	video(37, MPEG4, "1080p"),
	video(38, MPEG4, "1080p"),

	video(43, WebM, "360p"),
	video(44, WebM, "480p"),
	video(45, WebM, "720p"),
	video(46, WebM, "1080p"),

	audio(171, WebMA, 128),
	audio(172, WebMA, 256),
	audio(139, M4A, 48),
	audio(140, M4A, 128),
	audio(141, M4A, 256),
	audio(249, WebMAOpus, 50),
	audio(250, WebMAOpus, 70),
	audio(251, WebMAOpus, 160),

	videoOnly(160, MPEG4, "144p", 30),
	videoOnly(394, MPEG4, "144p", 30),
	videoOnly(133, MPEG4, "240p", 30),
	videoOnly(395, MPEG4, "240p", 30),
	videoOnly(134, MPEG4, "360p", 30),
	videoOnly(396, MPEG4, "360p", 30),
	videoOnly(135, MPEG4, "480p", 30),
	videoOnly(212, MPEG4, "480p", 30),
	videoOnly(397, MPEG4, "480p", 30),
	videoOnly(136, MPEG4, "720p", 30),
	videoOnly(398, MPEG4, "720p", 30),
	videoOnly(298, MPEG4, "720p60", 60),
	videoOnly(137, MPEG4, "1080p", 30),
	videoOnly(399, MPEG4, "1080p", 30),
	videoOnly(299, MPEG4, "1080p60", 60),
	videoOnly(400, MPEG4, "1440p", 30),
	videoOnly(266, MPEG4, "2160p", 30),
	videoOnly(401, MPEG4, "2160p", 30),

	videoOnly(278, WebM, "144p", 30),
	videoOnly(242, WebM, "240p", 30),
	videoOnly(243, WebM, "360p", 30),
	videoOnly(244, WebM, "480p", 30),
	videoOnly(245, WebM, "480p", 30),
	videoOnly(246, WebM, "480p", 30),
	videoOnly(247, WebM, "720p", 30),
	videoOnly(248, WebM, "1080p", 30),
	videoOnly(271, WebM, "1440p", 30),
	videoOnly(272, WebM, "2160p", 30),
	videoOnly(302, WebM, "720p60", 60),
	videoOnly(303, WebM, "1080p60", 60),
	videoOnly(308, WebM, "1440p60", 60),
	videoOnly(313, WebM, "2160p", 30),
	videoOnly(315, WebM, "2160p60", 60),
}

var byID = func() map[int]int {
	m := make(map[int]int, len(table))
	for i, it := range table {
		m[it.ID] = i
	}
	return m
}()

// IDs returns every supported format id in table order.
func IDs() []int {
	ids := make([]int, len(table))
	for i, it := range table {
		ids[i] = it.ID
	}
	return ids
}

// IsSupported reports whether id is in the table.
func IsSupported(id int) bool {
	_, ok := byID[id]
	return ok
}

// Lookup returns a copy of the table row for id.
func Lookup(id int) (Item, error) {
	i, ok := byID[id]
	if !ok {
		return Item{}, errs.Discovery(fmt.Sprintf("itag %d is not supported", id), nil)
	}
	return table[i], nil
}
