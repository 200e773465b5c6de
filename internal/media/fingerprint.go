package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pixel-basket/internal/filesystem"
	"pixel-basket/internal/logging"
)

// TimeLayout formats file timestamps in local time with second precision.
const TimeLayout = "2006-01-02 15:04:05"

// FileFacts is what the filesystem says about one file.
type FileFacts struct {
	FullPath string
	Dir      string
	Name     string
	Ext      string
	Size     int64
	Created  time.Time
	Modified time.Time
	SHA1     string
}

// SplitPath splits a file path into its directory, its base name without
// extension and its lower-case extension without the dot.
func SplitPath(path string) (dir, name, ext string) {
	dir = filepath.Dir(path)
	base := filepath.Base(path)
	rawExt := filepath.Ext(base)
	name = strings.TrimSuffix(base, rawExt)
	ext = strings.ToLower(strings.TrimPrefix(rawExt, "."))
	return dir, name, ext
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Stat collects the size and timestamps of path without reading it.
func Stat(path string) (FileFacts, error) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return FileFacts{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileFacts{}, fmt.Errorf("%s is a directory", path)
	}

	dir, name, ext := SplitPath(path)
	return FileFacts{
		FullPath: path,
		Dir:      dir,
		Name:     name,
		Ext:      ext,
		Size:     info.Size(),
		Created:  createdTime(info),
		Modified: info.ModTime(),
	}, nil
}

// Inspect is Stat followed by HashFile.
func Inspect(path string) (FileFacts, error) {
	facts, err := Stat(path)
	if err != nil {
		return facts, err
	}
	facts.SHA1, err = HashFile(path)
	if err != nil {
		return facts, err
	}
	return facts, nil
}

// HashFile returns the hex SHA-1 of the file's bytes.
func HashFile(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
