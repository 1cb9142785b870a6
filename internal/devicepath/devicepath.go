// Package devicepath converts between filesystem paths and the path
// convention used inside the device database, and derives the 4-byte
// file-type marker stored alongside each track.
package devicepath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Separator is the path separator used in device paths.
const Separator = ':'

// FSToDevice converts a filesystem path to device format.
// Pure string transform; performs no filesystem access.
func FSToDevice(fsPath string) string {
	return strings.ReplaceAll(fsPath, "/", string(Separator))
}

// DeviceToFS converts a device path back to filesystem format.
func DeviceToFS(devPath string) string {
	return strings.ReplaceAll(devPath, string(Separator), "/")
}

// Marker derives the 4-byte file-type code from a filename.
// It takes up to the first four characters after the last '.', uppercased,
// space-padded on the right, packed big-endian into a uint32. A filename
// without a suffix yields all spaces.
func Marker(filename string) uint32 {
	suffix := ""
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		suffix = filename[i+1:]
	}

	var marker uint32
	for i := 0; i < 4; i++ {
		c := byte(' ')
		if i < len(suffix) {
			c = upperByte(suffix[i])
		}
		marker = marker<<8 | uint32(c)
	}
	return marker
}

// MarkerString renders a marker as its 4-character code, e.g. "MP3 ".
func MarkerString(marker uint32) string {
	return string([]byte{
		byte(marker >> 24),
		byte(marker >> 16),
		byte(marker >> 8),
		byte(marker),
	})
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// Relative converts an absolute filesystem path under mountpoint into a
// mount-relative device path with a single leading separator.
// Returns an error if absPath does not live under mountpoint.
func Relative(mountpoint, absPath string) (string, error) {
	if mountpoint == "" {
		return "", fmt.Errorf("mountpoint is empty")
	}
	mp := strings.TrimSuffix(mountpoint, "/")
	if !strings.HasPrefix(absPath, mp) || len(absPath) <= len(mp) {
		return "", fmt.Errorf("path %q is not under mountpoint %q", absPath, mountpoint)
	}
	rel := absPath[len(mp):]
	if rel[0] != filepath.Separator {
		rel = string(filepath.Separator) + rel
	}
	return FSToDevice(rel), nil
}
