package hosted

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/glowlog/internal/imagex"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

// Photo upload policy by subscription tier. The free tier trades detail for
// roughly an order of magnitude less payload; premium keeps close-up texture
// visible in before/after comparisons.
const (
	freeMaxLongEdge = 1280
	freeJPEGQuality = 60

	premiumMaxLongEdge = 2560
	premiumJPEGQuality = 92
)

func uploadPolicy(premium bool) (maxLongEdge, quality int) {
	if premium {
		return premiumMaxLongEdge, premiumJPEGQuality
	}
	return freeMaxLongEdge, freeJPEGQuality
}

// preparePhoto reads a device-local photo file and re-encodes it per the
// owner's tier. Downscaling is best-effort: if the file does not decode as an
// image, the original bytes go up unmodified. Only a failure to read the
// file at all is an error.
func (s *Store) preparePhoto(ctx context.Context, owner models.Identity, location string) (body []byte, contentType, ext string, err error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, "", "", fmt.Errorf("read photo %s: %w", location, err)
	}

	maxEdge, quality := uploadPolicy(owner.Premium)
	resized, err := imagex.Downscale(data, maxEdge, quality)
	if err != nil {
		s.logger.Warn(ctx, "photo downscale failed, uploading original",
			"location", location, "error", err)
		return data, mimeByExt(location), filepath.Ext(location), nil
	}
	return resized, "image/jpeg", ".jpg", nil
}

func mimeByExt(location string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(location), ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "heic":
		return "image/heic"
	case "heif":
		return "image/heif"
	default:
		return "image/jpeg"
	}
}
