//go:build e2e

package e2e

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ytget/ytplayer"
	"github.com/ytget/ytplayer/youtube/formats"
)

func TestE2E_ResolveAndManifest(t *testing.T) {
	if os.Getenv("YTPLAYER_E2E") == "" {
		t.Skip("YTPLAYER_E2E not set")
	}
	videoURL := os.Getenv("YTPLAYER_E2E_URL")
	if videoURL == "" {
		videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	}
	id, err := ytplayer.ExtractVideoID(videoURL)
	if err != nil {
		t.Fatal(err)
	}
	e, err := ytplayer.NewFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sts, err := e.Manager().SignatureTimestamp(ctx, id)
	if err != nil {
		t.Fatalf("signature timestamp: %v", err)
	}
	t.Logf("signature timestamp %d", sts)

	list, err := e.Formats(ctx, id)
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	f := formats.Select(list, "best", "")
	if f == nil {
		t.Fatal("no format selected")
	}
	u, err := e.ResolveURL(ctx, id, *f)
	if err != nil {
		t.Fatalf("resolve itag %d: %v", f.Item.ID, err)
	}
	if !strings.HasPrefix(u, "https://") {
		t.Fatalf("unexpected stream url %q", u)
	}

	for _, cand := range list {
		if cand.Item.IndexStart < 0 {
			continue
		}
		doc, err := e.Manifest(ctx, id, cand, 0)
		if err != nil {
			t.Fatalf("manifest itag %d: %v", cand.Item.ID, err)
		}
		if !strings.Contains(doc, "<MPD") {
			t.Fatalf("manifest itag %d has no MPD element", cand.Item.ID)
		}
		break
	}
}
