package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenditionSpec(t *testing.T) {
	spec, err := NewRenditionSpec("720p", "1280x720", "2000k")
	require.NoError(t, err)
	assert.Equal(t, 1280, spec.Width())
	assert.Equal(t, 720, spec.Height())
	assert.Equal(t, 2000000, spec.BitrateBps())
	assert.Equal(t, "4000k", spec.BufSize())
}

func TestRenditionSpecValidate(t *testing.T) {
	cases := []struct {
		name    string
		spec    RenditionSpec
		wantErr bool
	}{
		{"valid", RenditionSpec{Name: "360p", Resolution: "640x360", Bitrate: "500k"}, false},
		{"shorthand resolution", RenditionSpec{Name: "hd", Resolution: "720p", Bitrate: "2M"}, false},
		{"empty name", RenditionSpec{Name: "", Resolution: "640x360", Bitrate: "500k"}, true},
		{"name with slash", RenditionSpec{Name: "a/b", Resolution: "640x360", Bitrate: "500k"}, true},
		{"name with space", RenditionSpec{Name: "360 p", Resolution: "640x360", Bitrate: "500k"}, true},
		{"bad resolution", RenditionSpec{Name: "360p", Resolution: "wide", Bitrate: "500k"}, true},
		{"zero height", RenditionSpec{Name: "360p", Resolution: "640x0", Bitrate: "500k"}, true},
		{"bad bitrate", RenditionSpec{Name: "360p", Resolution: "640x360", Bitrate: "fast"}, true},
		{"negative bitrate", RenditionSpec{Name: "360p", Resolution: "640x360", Bitrate: "-500k"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseBitrateBps(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"500k", 500000},
		{"2000k", 2000000},
		{"2M", 2000000},
		{"2m", 2000000},
		{"1500kbps", 1500000},
		{"1.5mbps", 1500000},
		{"800000", 800000},
	}
	for _, tc := range cases {
		got, err := ParseBitrateBps(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "k", "abc", "0", "-1k"} {
		_, err := ParseBitrateBps(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := ParseResolution("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	w, h, err = ParseResolution("720p")
	require.NoError(t, err)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	w, h, err = ParseResolution("4k")
	require.NoError(t, err)
	assert.Equal(t, 3840, w)
	assert.Equal(t, 2160, h)

	for _, bad := range []string{"", "x", "640x", "x360", "0x0", "wide"} {
		_, _, err := ParseResolution(bad)
		assert.Error(t, err, bad)
	}
}
