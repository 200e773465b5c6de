package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
)

// nativeFormats are decoded in-process. Other image extensions go through
// ffmpeg when it is installed.
var nativeFormats = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"bmp": true, "tiff": true, "webp": true,
}

// HasNativeDecoder reports whether ext decodes without external tools.
func HasNativeDecoder(ext string) bool {
	return nativeFormats[ext]
}

// Decoded is an image ready for the thumbnail pipeline. Width and Height
// are the source dimensions, which differ from Image's bounds when the
// loader shrank it.
type Decoded struct {
	Image  image.Image
	Width  int
	Height int
}

// ImageLoader decodes image files.
type ImageLoader struct {
	// UseVips enables libvips shrink-on-load. InitVips must have run.
	UseVips bool
	// FFmpeg decodes extensions with no Go decoder. Nil disables it.
	FFmpeg *FFmpeg
}

// Load decodes the file at path, whose lower-case extension is ext.
func (l *ImageLoader) Load(path, ext string) (Decoded, error) {
	if l.UseVips && IsVipsAvailable() {
		img, w, h, err := LoadImageWithVips(path, ThumbnailSize)
		if err == nil {
			metrics.ImageDecodeByFormat.WithLabelValues("vips", "success").Inc()
			return Decoded{Image: img, Width: w, Height: h}, nil
		}
		metrics.ImageDecodeByFormat.WithLabelValues("vips", "error").Inc()
		logging.Debug("vips could not load %s, falling back: %v", path, err)
	}

	if !HasNativeDecoder(ext) && l.FFmpeg != nil {
		img, err := l.FFmpeg.DecodeImage(path)
		if err != nil {
			metrics.ImageDecodeByFormat.WithLabelValues("ffmpeg", "error").Inc()
			return Decoded{}, err
		}
		metrics.ImageDecodeByFormat.WithLabelValues("ffmpeg", "success").Inc()
		return fromImage(img), nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		metrics.ImageDecodeByFormat.WithLabelValues("imaging", "error").Inc()
		return Decoded{}, fmt.Errorf("decode %s: %w", path, err)
	}
	metrics.ImageDecodeByFormat.WithLabelValues("imaging", "success").Inc()
	return fromImage(img), nil
}

// DecodeBytes decodes an in-memory image such as an embedded preview.
func DecodeBytes(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func fromImage(img image.Image) Decoded {
	b := img.Bounds()
	return Decoded{Image: img, Width: b.Dx(), Height: b.Dy()}
}
