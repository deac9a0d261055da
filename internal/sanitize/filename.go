// Package sanitize builds file names that are safe on every platform.
package sanitize

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength is the maximum allowed length for the filename base.
	MaxFilenameLength = 120
	// ManifestExt is the extension of written DASH manifests.
	ManifestExt = "mpd"
	// DefaultName replaces an empty base name.
	DefaultName = "manifest"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// ToSafeFilename joins base and ext (without dot) into a file name with the
// path separators and reserved characters of base replaced.
func ToSafeFilename(base, ext string) string {
	name := strings.TrimSpace(base)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = DefaultName
	}
	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = ManifestExt
	}
	return filepath.Clean(name + "." + ext)
}

// ManifestFilename names the manifest of one itag of a video.
func ManifestFilename(videoID string, itag int) string {
	return ToSafeFilename(fmt.Sprintf("%s-%d", videoID, itag), ManifestExt)
}
