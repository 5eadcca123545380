package backend

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 10, A: 255}) //nolint:gosec // test fixture only
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestDetectImageMimePNG(t *testing.T) {
	assert.Equal(t, "image/png", detectImageMime(samplePNG(t, 4, 4)))
}

func TestDetectImageMimeRejectsUnknown(t *testing.T) {
	assert.Equal(t, "", detectImageMime([]byte("not an image")))
}

func TestIsSVG(t *testing.T) {
	assert.True(t, isSVG([]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)))
	assert.False(t, isSVG([]byte("plain text")))
}

func TestThumbnailScalesDownAndShrinks(t *testing.T) {
	src := samplePNG(t, 200, 100)

	out, err := thumbnail(src, 50, 50, 1)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := decoded.Bounds()
	assert.LessOrEqual(t, b.Dx(), 50)
	assert.LessOrEqual(t, b.Dy(), 50)
}

func TestThumbnailDoesNotUpscale(t *testing.T) {
	src := samplePNG(t, 10, 10)

	out, err := thumbnail(src, 500, 500, 0)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := decoded.Bounds()
	assert.Equal(t, 10, b.Dx())
	assert.Equal(t, 10, b.Dy())
}
