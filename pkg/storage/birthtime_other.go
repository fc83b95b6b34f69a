//go:build !linux

package storage

import (
	"io/fs"
	"time"
)

// birthTime falls back to the modification time on platforms without statx.
func birthTime(path string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
