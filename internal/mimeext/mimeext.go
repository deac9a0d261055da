// Package mimeext splits stream MIME types and maps them to file
// extensions.
package mimeext

import (
	"strings"
)

const (
	// DefaultExt is the extension used when MIME is unknown or empty.
	DefaultExt = "mp4"

	ExtM4A  = "m4a"
	ExtWebM = "webm"
	Ext3GP  = "3gp"

	MimeVideoMP4  = "video/mp4"
	MimeAudioMP4  = "audio/mp4"
	MimeVideoWebM = "video/webm"
	MimeAudioWebM = "audio/webm"
	MimeVideo3GPP = "video/3gpp"
)

// Split separates a MIME type such as `video/mp4; codecs="avc1.64001F, mp4a.40.2"`
// into its base type and the unquoted codecs parameter.
func Split(mime string) (base, codecs string) {
	mime = strings.TrimSpace(mime)
	base, params, _ := strings.Cut(mime, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "codecs") {
			continue
		}
		codecs = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return base, codecs
}

// ExtFromMime returns file extension (without dot) for given mime type.
// Falls back to subtype or mp4 if unknown.
func ExtFromMime(mime string) string {
	base, _ := Split(mime)
	if base == "" {
		return DefaultExt
	}
	switch base {
	case MimeVideoMP4:
		return DefaultExt
	case MimeAudioMP4:
		return ExtM4A
	case MimeVideoWebM, MimeAudioWebM:
		return ExtWebM
	case MimeVideo3GPP:
		return Ext3GP
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" {
		return sub
	}
	return DefaultExt
}
