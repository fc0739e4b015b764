package hosted

import (
	"bytes"
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/glowlog/internal/models"
)

func TestUploadPolicy(t *testing.T) {
	edge, quality := uploadPolicy(false)
	assert.Equal(t, freeMaxLongEdge, edge)
	assert.Equal(t, freeJPEGQuality, quality)

	edge, quality = uploadPolicy(true)
	assert.Equal(t, premiumMaxLongEdge, edge)
	assert.Equal(t, premiumJPEGQuality, quality)
}

func TestPreparePhoto_DownscalesLargeImage(t *testing.T) {
	s, _, _, db := newStoreWithMock(t)
	defer db.Close()

	location := writeTestJPEG(t, 3000, 1000)
	body, contentType, ext, err := s.preparePhoto(context.Background(), models.Identity{ID: "u-1"}, location)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, ".jpg", ext)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, freeMaxLongEdge, img.Bounds().Dx())
}

func TestPreparePhoto_PremiumKeepsMoreDetail(t *testing.T) {
	s, _, _, db := newStoreWithMock(t)
	defer db.Close()

	location := writeTestJPEG(t, 3000, 1000)
	body, _, _, err := s.preparePhoto(context.Background(), models.Identity{ID: "u-1", Premium: true}, location)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, premiumMaxLongEdge, img.Bounds().Dx())
}

func TestPreparePhoto_NonImageFallsBackToOriginal(t *testing.T) {
	s, _, _, db := newStoreWithMock(t)
	defer db.Close()

	location := filepath.Join(t.TempDir(), "photo.heic")
	original := []byte("not actually an image")
	require.NoError(t, os.WriteFile(location, original, 0o600))

	body, contentType, ext, err := s.preparePhoto(context.Background(), models.Identity{ID: "u-1"}, location)
	require.NoError(t, err)
	assert.Equal(t, original, body)
	assert.Equal(t, "image/heic", contentType)
	assert.Equal(t, ".heic", ext)
}

func TestPreparePhoto_MissingFile(t *testing.T) {
	s, _, _, db := newStoreWithMock(t)
	defer db.Close()

	_, _, _, err := s.preparePhoto(context.Background(), models.Identity{ID: "u-1"}, "/no/such/file.jpg")
	assert.Error(t, err)
}

func TestMimeByExt(t *testing.T) {
	assert.Equal(t, "image/png", mimeByExt("a/b.PNG"))
	assert.Equal(t, "image/gif", mimeByExt("x.gif"))
	assert.Equal(t, "image/webp", mimeByExt("x.webp"))
	assert.Equal(t, "image/heif", mimeByExt("x.heif"))
	assert.Equal(t, "image/jpeg", mimeByExt("x.jpeg"))
	assert.Equal(t, "image/jpeg", mimeByExt("no-extension"))
}

func TestS3ObjectStore_URL(t *testing.T) {
	s := &S3ObjectStore{bucket: "glowlog", endpoint: "http://127.0.0.1:9000"}
	assert.Equal(t, "http://127.0.0.1:9000/glowlog/u-1/r-1/1_before.jpg", s.URL("u-1/r-1/1_before.jpg"))
}
