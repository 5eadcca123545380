package backend

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Side-effect imports: register PNG/GIF decoders with image.Decode.
	// JPEG decoding comes from image/jpeg above, already needed for encoding.
	_ "image/gif"
	_ "image/png"
)

// jpegQualities maps the __thumbs "q" parameter (0..3) to a JPEG encoder
// quality setting, per spec §4.4.
var jpegQualities = [4]int{65, 75, 85, 95}

const (
	defaultThumbSize = 300
	maxThumbSize     = 65536
)

// thumbnail decodes src (any image/jpeg, image/png or image/gif payload),
// scales it to at most width x height (preserving aspect ratio, never
// upscaling), and re-encodes it as a JPEG at the given quality index.
//
// This is a minimal stand-in for the image-transcoder external
// collaborator the spec names but does not re-specify (§1): nearest-
// neighbor scaling rather than a production-quality resampling filter.
func thumbnail(src []byte, width, height, qualityIdx int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("backend: decode thumbnail source: %w", err)
	}

	if width <= 0 {
		width = defaultThumbSize
	}
	if height <= 0 {
		height = defaultThumbSize
	}
	width = clampInt(width, 0, maxThumbSize)
	height = clampInt(height, 0, maxThumbSize)

	scaled := scaleDown(img, width, height)

	if qualityIdx < 0 || qualityIdx >= len(jpegQualities) {
		qualityIdx = 0
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQualities[qualityIdx]}); err != nil {
		return nil, fmt.Errorf("backend: encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// scaleDown fits img within maxW x maxH without upscaling, using
// nearest-neighbor sampling.
func scaleDown(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW <= 0 || srcH <= 0 || (srcW <= maxW && srcH <= maxH) {
		return img
	}

	scale := float64(maxW) / float64(srcW)
	if s := float64(maxH) / float64(srcH); s < scale {
		scale = s
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		sy := b.Min.Y + y*srcH/dstH
		for x := 0; x < dstW; x++ {
			sx := b.Min.X + x*srcW/dstW
			dst.Set(x, y, img.At(sx, sy))
		}
	}

	return dst
}
