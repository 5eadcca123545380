package backend

import (
	"bytes"
	"net/http"
	"strings"
)

// allowedImageMimes is the whitelist of formats "__images" may serve,
// per spec §4.4: "only PNG/GIF/WebP/JPEG allowed."
var allowedImageMimes = map[string]bool{
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/jpeg": true,
}

// detectImageMime classifies raw as one of the allowed raster formats, or
// "" if it is not a recognized/allowed format. SVG is not detected here:
// http.DetectContentType has no SVG signature, so SVG payloads are
// recognized separately by isSVG.
func detectImageMime(raw []byte) string {
	mime := http.DetectContentType(raw)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}

	if allowedImageMimes[mime] {
		return mime
	}

	return ""
}

// isSVG reports whether raw looks like an SVG document: an "<svg" tag
// appears within its first kilobyte. No XML prolog or doctype is required.
func isSVG(raw []byte) bool {
	head := raw
	const sniffLen = 1024
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	return bytes.Contains(head, []byte("<svg"))
}
