package formats

import (
	"strconv"
	"strings"
)

// Select chooses a format by quality selector and extension.
// Supported selectors:
//   - itag=NN: specific format by itag
//   - best: highest quality (height, then bitrate)
//   - worst: lowest quality
//   - height<=NNN, height>=NNN: height bounds
//
// Without a selector, or when nothing matches, itag 22 is preferred, then
// itag 18, then a progressive avc1 mp4, then any format with a direct URL,
// then the first one. Select returns nil for an empty list.
func Select(list []Format, quality, ext string) *Format {
	if len(list) == 0 {
		return nil
	}
	filtered := make([]Format, 0, len(list))
	for i := range list {
		if mimeSubtypeEquals(list[i], ext) {
			filtered = append(filtered, list[i])
		}
	}
	if len(filtered) == 0 {
		filtered = append(filtered, list...)
	}

	q := strings.TrimSpace(strings.ToLower(quality))
	if v, ok := strings.CutPrefix(q, "itag="); ok {
		if id, err := strconv.Atoi(v); err == nil {
			for i := range filtered {
				if itagEquals(filtered[i], id) {
					return &filtered[i]
				}
			}
		}
	}

	var minH, maxH int
	if v, ok := strings.CutPrefix(q, "height<="); ok {
		maxH, _ = strconv.Atoi(v)
	}
	if v, ok := strings.CutPrefix(q, "height>="); ok {
		minH, _ = strconv.Atoi(v)
	}
	if minH > 0 || maxH > 0 {
		tmp := make([]Format, 0, len(filtered))
		for i := range filtered {
			if withinHeight(filtered[i], minH, maxH) {
				tmp = append(tmp, filtered[i])
			}
		}
		if len(tmp) > 0 {
			filtered = tmp
		}
	}

	switch q {
	case "best":
		best := filtered[0]
		for _, f := range filtered[1:] {
			if betterByHeightThenBitrate(f, best) {
				best = f
			}
		}
		return &best
	case "worst":
		worst := filtered[0]
		for _, f := range filtered[1:] {
			if betterByHeightThenBitrate(worst, f) {
				worst = f
			}
		}
		return &worst
	}

	for _, id := range []int{22, 18} {
		for i := range filtered {
			if filtered[i].Item.ID == id {
				return &filtered[i]
			}
		}
	}
	for i := range filtered {
		if strings.Contains(filtered[i].MimeType, "video/mp4") && strings.Contains(filtered[i].MimeType, "avc1") {
			return &filtered[i]
		}
	}
	for i := range filtered {
		if hasDirectURL(filtered[i]) {
			return &filtered[i]
		}
	}
	return &filtered[0]
}
