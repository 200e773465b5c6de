package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	"pixel-basket/internal/metrics"
)

const (
	// ThumbnailSize bounds the larger side of a thumbnail.
	ThumbnailSize = 200

	thumbnailQuality = 85
	thumbnailSubdir  = "thumbnails"
)

// Thumbnail scales img to fit within ThumbnailSize×ThumbnailSize keeping
// its aspect ratio. Smaller images are copied unchanged.
func Thumbnail(img image.Image) *image.NRGBA {
	return imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Linear)
}

// ThumbnailDir is where thumbnails live under a cache directory.
func ThumbnailDir(cacheDir string) string {
	return filepath.Join(cacheDir, thumbnailSubdir)
}

// ThumbnailPath is the cache file for the item with the given id.
func ThumbnailPath(cacheDir string, id int64) string {
	return filepath.Join(ThumbnailDir(cacheDir), strconv.FormatInt(id, 10)+".jpg")
}

// WriteThumbnail encodes thumb as JPEG into the cache and returns its path.
func WriteThumbnail(cacheDir string, id int64, thumb image.Image) (string, error) {
	if err := os.MkdirAll(ThumbnailDir(cacheDir), 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}

	path := ThumbnailPath(cacheDir, id)
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return "", fmt.Errorf("write thumbnail %s: %w", path, err)
	}
	metrics.ThumbnailsWritten.Inc()
	return path, nil
}
