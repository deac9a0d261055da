package itag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytplayer/errs"
)

func TestTableRowsAreSupported(t *testing.T) {
	for _, row := range table {
		require.True(t, IsSupported(row.ID), "itag %d", row.ID)
		got, err := Lookup(row.ID)
		require.NoError(t, err)
		assert.Equal(t, row.Kind(), got.Kind(), "itag %d", row.ID)
		assert.Equal(t, row.Format, got.Format, "itag %d", row.ID)
	}
}

func TestTableIDsAreUnique(t *testing.T) {
	assert.Len(t, byID, len(table))
	assert.Equal(t, len(table), len(IDs()))
}

func TestLookup_Known(t *testing.T) {
	it, err := Lookup(22)
	require.NoError(t, err)
	assert.Equal(t, Video, it.Kind())
	assert.Equal(t, MPEG4, it.Format)
	assert.Equal(t, "720p", it.ResolutionLabel)
	assert.Equal(t, 30, it.FPS)

	it, err = Lookup(251)
	require.NoError(t, err)
	assert.True(t, it.IsAudio())
	assert.Equal(t, 160, it.AvgBitrate)

	it, err = Lookup(303)
	require.NoError(t, err)
	assert.Equal(t, VideoOnly, it.Kind())
	assert.Equal(t, 60, it.FPS)
	assert.Equal(t, "1080p60", it.ResolutionLabel)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	it, err := Lookup(140)
	require.NoError(t, err)
	it.Bitrate = 999
	it.Codec = "mp4a.40.2"

	again, err := Lookup(140)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Bitrate)
	assert.Empty(t, again.Codec)
}

func TestLookup_Unsupported(t *testing.T) {
	assert.False(t, IsSupported(9999))
	_, err := Lookup(9999)
	assert.True(t, errs.IsDiscovery(err))
}

func TestNewItemDefaults(t *testing.T) {
	it := NewItem(5, Audio, M4A)
	assert.Equal(t, Audio, it.Kind())
	assert.EqualValues(t, Unknown, it.ApproxDurationMs)
	assert.EqualValues(t, Unknown, it.ContentLength)
	assert.Equal(t, Unknown, it.TargetDurationSec)
	assert.Equal(t, Unknown, it.IndexStart)
	assert.Equal(t, "audio", it.Kind().String())
}
