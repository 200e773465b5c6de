package scanner

import (
	"context"
	"errors"
	"fmt"

	"pixel-basket/internal/media"
	"pixel-basket/internal/mediatypes"
)

func claims(family mediatypes.Family) func(string) bool {
	return func(ext string) bool { return mediatypes.FamilyOf(ext) == family }
}

// NewImagePlugin decodes raster images in-process.
func NewImagePlugin() Plugin {
	return &familyPlugin{name: "image", claims: claims(mediatypes.FamilyImage), decode: decodeImage}
}

func decodeImage(_ context.Context, path, ext string, sc *ScanContext) (decoded, error) {
	loader := sc.Images
	if loader == nil {
		loader = &media.ImageLoader{FFmpeg: sc.FFmpeg}
	}
	d, err := loader.Load(path, ext)
	if err != nil {
		return decoded{}, err
	}
	return decoded{img: d.Image, width: d.Width, height: d.Height}, nil
}

// NewVideoPlugin grabs a frame and the duration through ffmpeg.
func NewVideoPlugin() Plugin {
	return &familyPlugin{name: "video", claims: claims(mediatypes.FamilyVideo), decode: decodeVideo}
}

func decodeVideo(ctx context.Context, path, _ string, sc *ScanContext) (decoded, error) {
	if sc.FFmpeg == nil {
		return decoded{}, errors.New("video: ffmpeg not configured")
	}
	frame, err := sc.FFmpeg.ExtractFrame(ctx, path)
	if err != nil {
		return decoded{}, fmt.Errorf("video frame: %w", err)
	}
	ms, err := sc.FFmpeg.ProbeDuration(ctx, path)
	if err != nil {
		return decoded{}, fmt.Errorf("video duration: %w", err)
	}
	b := frame.Bounds()
	return decoded{img: frame, width: b.Dx(), height: b.Dy(), duration: ms}, nil
}

// NewModelPlugin records 3D models by their file facts only.
func NewModelPlugin() Plugin {
	return &familyPlugin{name: "model", claims: claims(mediatypes.FamilyModel), decode: decodeModel}
}

func decodeModel(context.Context, string, string, *ScanContext) (decoded, error) {
	return decoded{}, nil
}

// NewRawPlugin reads camera raw files through their embedded preview.
func NewRawPlugin() Plugin {
	return &familyPlugin{name: "raw", claims: claims(mediatypes.FamilyRaw), decode: decodeRaw}
}

func decodeRaw(_ context.Context, path, _ string, _ *ScanContext) (decoded, error) {
	raw, err := media.DecodeRaw(path)
	if err != nil {
		return decoded{}, err
	}
	return decoded{img: raw.Image, width: raw.Width, height: raw.Height, exif: raw.EXIF}, nil
}

// NewPSDPlugin reads the merged composite of Photoshop documents.
func NewPSDPlugin() Plugin {
	return &familyPlugin{name: "psd", claims: claims(mediatypes.FamilyPSD), decode: decodePSD}
}

func decodePSD(_ context.Context, path, _ string, _ *ScanContext) (decoded, error) {
	img, err := media.DecodePSD(path)
	if err != nil {
		return decoded{}, err
	}
	b := img.Bounds()
	return decoded{img: img, width: b.Dx(), height: b.Dy()}, nil
}
