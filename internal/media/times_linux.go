//go:build linux

package media

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the inode change time; Linux stat has no birth time.
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
