package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// Family groups extensions handled by the same scanner plugin.
type Family string

const (
	// FamilyImage is a raster image decoded in-process.
	FamilyImage Family = "image"
	// FamilyVideo is a video probed through ffmpeg.
	FamilyVideo Family = "video"
	// FamilyModel is a 3D model. Only file facts are recorded.
	FamilyModel Family = "model"
	// FamilyRaw is a camera raw file with an embedded preview.
	FamilyRaw Family = "raw"
	// FamilyPSD is a layered image document.
	FamilyPSD Family = "psd"
	// FamilyOther is any extension no plugin claims.
	FamilyOther Family = "other"
)

// Extensions are lower case without the leading dot.
var (
	ImageExtensions = set("avif", "bmp", "dds", "farbfeld", "gif", "hdr", "ico", "jpg", "jpeg",
		"exr", "png", "pnm", "qoi", "tga", "tiff", "webp")
	VideoExtensions = set("mp4", "webm", "ogg")
	ModelExtensions = set("obj", "fbx")
	RawExtensions   = set("nef")
	PSDExtensions   = set("psd")
)

var families = []struct {
	family Family
	exts   map[string]bool
}{
	{FamilyImage, ImageExtensions},
	{FamilyVideo, VideoExtensions},
	{FamilyModel, ModelExtensions},
	{FamilyRaw, RawExtensions},
	{FamilyPSD, PSDExtensions},
}

// MimeTypes maps extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	"avif": "image/avif",
	"bmp":  "image/bmp",
	"dds":  "image/vnd-ms.dds",
	"gif":  "image/gif",
	"hdr":  "image/vnd.radiance",
	"ico":  "image/x-icon",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"exr":  "image/x-exr",
	"png":  "image/png",
	"pnm":  "image/x-portable-anymap",
	"qoi":  "image/qoi",
	"tga":  "image/x-tga",
	"tiff": "image/tiff",
	"webp": "image/webp",

	// Videos
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",

	// Models
	"obj": "model/obj",
	"fbx": "application/octet-stream",

	// Documents
	"nef": "image/x-nikon-nef",
	"psd": "image/vnd.adobe.photoshop",
}

func set(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// NormalizeExt returns the lower-case extension of a path or extension,
// without the leading dot. "IMG_01.JPG", ".JPG" and "jpg" all give "jpg".
func NormalizeExt(pathOrExt string) string {
	ext := pathOrExt
	if strings.ContainsAny(pathOrExt, `/\`) || strings.Count(pathOrExt, ".") > 0 {
		ext = filepath.Ext(pathOrExt)
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FamilyOf returns the family claiming ext, or FamilyOther.
func FamilyOf(ext string) Family {
	ext = NormalizeExt(ext)
	for _, f := range families {
		if f.exts[ext] {
			return f.family
		}
	}
	return FamilyOther
}

// Extensions returns the sorted extensions of a family.
func Extensions(family Family) []string {
	for _, f := range families {
		if f.family != family {
			continue
		}
		out := make([]string, 0, len(f.exts))
		for e := range f.exts {
			out = append(out, e)
		}
		sort.Strings(out)
		return out
	}
	return nil
}

// GetMimeType returns the MIME type for ext, or "application/octet-stream".
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExt(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile reports whether any family claims ext.
func IsMediaFile(ext string) bool {
	return FamilyOf(ext) != FamilyOther
}
