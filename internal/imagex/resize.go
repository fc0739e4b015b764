// Package imagex re-encodes photos before upload. The hosted backend stores
// whatever it is given; keeping payloads small is the client's job.
package imagex

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Downscale decodes data (JPEG, PNG or GIF), caps the longer edge at
// maxLongEdge pixels preserving aspect ratio, and re-encodes as JPEG with the
// given quality (1..100). Images already within the cap are re-encoded
// without scaling so the quality setting still applies.
func Downscale(data []byte, maxLongEdge, quality int) ([]byte, error) {
	if maxLongEdge <= 0 {
		return nil, fmt.Errorf("invalid max edge: %d", maxLongEdge)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if longEdge := max(w, h); longEdge > maxLongEdge {
		scale := float64(maxLongEdge) / float64(longEdge)
		dw := max(int(float64(w)*scale+0.5), 1)
		dh := max(int(float64(h)*scale+0.5), 1)

		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
