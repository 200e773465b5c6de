package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"pixel-basket/internal/logging"
)

// maxPreviewCandidates caps how many embedded JPEG markers are tried.
const maxPreviewCandidates = 16

var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// RawPreview is the decoded preview of a camera raw file.
type RawPreview struct {
	Image  image.Image
	Width  int
	Height int
	// EXIF is a JSON object of tag names to values.
	EXIF string
}

// DecodeRaw reads the embedded preview and EXIF tags of a raw file. Width
// and Height come from the EXIF pixel dimensions when present.
func DecodeRaw(path string) (RawPreview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawPreview{}, fmt.Errorf("read %s: %w", path, err)
	}

	var out RawPreview
	x, exifErr := exif.Decode(bytes.NewReader(data))
	if exifErr != nil {
		logging.Debug("no EXIF in %s: %v", path, exifErr)
	} else {
		out.EXIF = exifJSON(x)
		out.Width, out.Height = exifDimensions(x)
		if thumb, err := x.JpegThumbnail(); err == nil {
			out.Image, _ = DecodeBytes(thumb)
		}
	}

	// the EXIF thumbnail is usually tiny; prefer a larger embedded preview
	if preview := largestEmbeddedJPEG(data); preview != nil {
		if out.Image == nil || area(preview) > area(out.Image) {
			out.Image = preview
		}
	}
	if out.Image == nil {
		return RawPreview{}, fmt.Errorf("no decodable preview in %s", path)
	}

	if out.Width == 0 || out.Height == 0 {
		b := out.Image.Bounds()
		out.Width, out.Height = b.Dx(), b.Dy()
	}
	return out, nil
}

func exifDimensions(x *exif.Exif) (int, int) {
	pairs := [][2]exif.FieldName{
		{exif.PixelXDimension, exif.PixelYDimension},
		{exif.ImageWidth, exif.ImageLength},
	}
	for _, p := range pairs {
		w, errW := x.Get(p[0])
		h, errH := x.Get(p[1])
		if errW != nil || errH != nil {
			continue
		}
		wv, errW := w.Int(0)
		hv, errH := h.Int(0)
		if errW == nil && errH == nil && wv > 0 && hv > 0 {
			return wv, hv
		}
	}
	return 0, 0
}

type exifWalker struct{ m map[string]string }

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.m[string(name)] = tag.String()
	return nil
}

func exifJSON(x *exif.Exif) string {
	m := make(map[string]string)
	_ = x.Walk(exifWalker{m: m})
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// largestEmbeddedJPEG decodes the biggest JPEG stream found in data.
func largestEmbeddedJPEG(data []byte) image.Image {
	var (
		bestStart = -1
		bestArea  int
	)
	offset := 0
	for tries := 0; tries < maxPreviewCandidates; tries++ {
		i := bytes.Index(data[offset:], jpegSOI)
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + len(jpegSOI)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data[start:]))
		if err != nil || format != "jpeg" {
			continue
		}
		if a := cfg.Width * cfg.Height; a > bestArea {
			bestStart, bestArea = start, a
		}
	}
	if bestStart < 0 {
		return nil
	}

	img, err := DecodeBytes(data[bestStart:])
	if err != nil {
		return nil
	}
	return img
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
