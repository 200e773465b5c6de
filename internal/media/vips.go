package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"pixel-basket/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips starts libvips. Call it once at startup when shrink-on-load
// decoding is wanted; without it the image loaders use imaging only.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// vips logging must be configured before Startup
	vips.LoggingSettings(vipsLogHandler, vipsLogLevel(logging.GetLevel()))

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

func vipsLogLevel(l logging.LogLevel) vips.LogLevel {
	switch l {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

func vipsLogHandler(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// ShutdownVips releases libvips.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips succeeded.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes path shrinking it to fit within maxSide while
// loading, and returns the shrunk image with the original dimensions.
// Images already within maxSide keep their size.
func LoadImageWithVips(path string, maxSide int) (image.Image, int, int, error) {
	if !IsVipsAvailable() {
		return nil, 0, 0, fmt.Errorf("libvips not available")
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read %s: %w", path, err)
	}

	// Header only; pixels are not decoded until the thumbnail below.
	header, err := vips.LoadImageFromBuffer(buf, vips.NewImportParams())
	if err != nil {
		return nil, 0, 0, fmt.Errorf("vips failed to load image: %w", err)
	}
	origWidth, origHeight := header.Width(), header.Height()
	if header.Orientation() >= 5 {
		origWidth, origHeight = origHeight, origWidth
	}
	header.Close()
	logging.Debug("Vips loaded %s: %dx%d, shrinking to %d", filepath.Base(path), origWidth, origHeight, maxSide)

	ref, err := vips.NewThumbnailWithSizeFromBuffer(buf, maxSide, maxSide, vips.InterestingNone, vips.SizeDown)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("vips resize failed: %w", err)
	}
	defer ref.Close()

	// PNG keeps the hand-off lossless; the thumbnail writer does the one
	// lossy encode.
	img, err := ref.ToImage(&vips.ExportParams{Format: vips.ImageTypePNG, Compression: 1})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("vips export failed: %w", err)
	}
	return img, origWidth, origHeight, nil
}
