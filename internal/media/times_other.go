//go:build !linux

package media

import (
	"os"
	"time"
)

func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
