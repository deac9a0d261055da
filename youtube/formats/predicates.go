package formats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytplayer/internal/mimeext"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

// height returns the pixel height of a format, read from the label when
// the player response had no height.
func height(f Format) int {
	if f.Item.Height > 0 {
		return f.Item.Height
	}
	label := f.QualityLabel
	if label == "" {
		label = f.Item.ResolutionLabel
	}
	m := heightRe.FindStringSubmatch(label)
	if len(m) >= 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

// hasDirectURL returns true when the format already contains a resolvable URL.
// Formats without direct URLs need signature deobfuscation.
func hasDirectURL(f Format) bool {
	return strings.TrimSpace(f.URL) != ""
}

// mimeSubtypeEquals checks that MIME subtype (e.g., mp4, webm) equals desiredExt.
// The desiredExt is case-insensitive and may start with a dot.
// If desiredExt is empty, the function returns true (no filtering).
func mimeSubtypeEquals(f Format, desiredExt string) bool {
	desired := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(desiredExt)), ".")
	if desired == "" {
		return true
	}
	base, _ := mimeext.Split(f.MimeType)
	_, sub, _ := strings.Cut(base, "/")
	return sub == desired
}

// itagEquals checks that format's itag matches the specified itag value.
// Returns false if itag is 0 or negative.
func itagEquals(f Format, id int) bool {
	return id > 0 && f.Item.ID == id
}

// withinHeight checks whether the format's height is within [minHeight, maxHeight].
// A bound of 0 is ignored.
func withinHeight(f Format, minHeight int, maxHeight int) bool {
	if minHeight <= 0 && maxHeight <= 0 {
		return true
	}
	h := height(f)
	if minHeight > 0 && h < minHeight {
		return false
	}
	if maxHeight > 0 && h > maxHeight {
		return false
	}
	return true
}

// betterByHeightThenBitrate reports whether candidate beats current, by
// height first and bitrate second.
func betterByHeightThenBitrate(candidate Format, current Format) bool {
	ch, cur := height(candidate), height(current)
	if ch != cur {
		return ch > cur
	}
	return candidate.Item.Bitrate > current.Item.Bitrate
}
