package media

import (
	"fmt"
	"image"

	"github.com/oov/psd"

	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/logging"
)

// DecodePSD returns the merged composite of a Photoshop document. Layer
// pixels are not decoded.
func DecodePSD(path string) (image.Image, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	doc, _, err := psd.Decode(f, &psd.DecodeOptions{SkipLayerImage: true})
	if err != nil {
		return nil, fmt.Errorf("decode psd %s: %w", path, err)
	}
	if doc.Picker == nil {
		return nil, fmt.Errorf("psd %s has no composite image", path)
	}
	return doc.Picker, nil
}
