package sanitize

import "testing"

func TestToSafeFilename_Basics(t *testing.T) {
	got := ToSafeFilename("Hello:/\\*?\"<>| World", "mpd")
	if got != "Hello_ World.mpd" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Defaults(t *testing.T) {
	for _, base := range []string{"", "  ", ".."} {
		if got := ToSafeFilename(base, ""); got != "manifest.mpd" {
			t.Fatalf("ToSafeFilename(%q) = %q", base, got)
		}
	}
}

func TestToSafeFilename_Long(t *testing.T) {
	title := "a"
	for len(title) < 200 {
		title += "a"
	}
	got := ToSafeFilename(title, "mpd")
	if len(got) > MaxFilenameLength+len(".mpd") {
		t.Fatalf("too long: %d", len(got))
	}
}

func TestManifestFilename(t *testing.T) {
	if got := ManifestFilename("dQw4w9WgXcQ", 140); got != "dQw4w9WgXcQ-140.mpd" {
		t.Fatalf("got %q", got)
	}
	if got := ManifestFilename("../etc/x", 18); got != "_etc_x-18.mpd" {
		t.Fatalf("got %q", got)
	}
}
