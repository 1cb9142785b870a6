// Package tags reads metadata and audio stream properties from music
// files about to be transferred to a device.
package tags

import (
	"strings"
	"time"
)

// File extensions supported by the tags package.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// Tag contains the tag metadata a device track record needs.
type Tag struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Genre  string

	TrackNumber int
	DiscNumber  int
	Year        int
}

// AudioInfo contains audio stream properties (not tags).
type AudioInfo struct {
	Duration   time.Duration
	Format     string // MP3, FLAC, AAC, ALAC, M4A
	SampleRate int
	Bitrate    int // kbit/s, derived from file size when the stream does not carry it
}

// FileTypeDescription returns the human-readable file type string stored
// on the device for this stream format.
func (a *AudioInfo) FileTypeDescription() string {
	switch a.Format {
	case "MP3":
		return "MPEG audio file"
	case "FLAC":
		return "FLAC audio file"
	case "AAC", "M4A":
		return "AAC audio file"
	case "ALAC":
		return "Apple Lossless audio file"
	default:
		return "Audio file"
	}
}

// FileInfo combines Tag and AudioInfo for a complete file description.
type FileInfo struct {
	Tag
	AudioInfo
}

// IsMusicFile returns true if the path has a supported music file extension.
func IsMusicFile(path string) bool {
	ext := strings.ToLower(path)
	if idx := strings.LastIndex(ext, "."); idx >= 0 {
		ext = ext[idx:]
	} else {
		return false
	}
	return ext == ExtMP3 || ext == ExtFLAC || ext == ExtM4A || ext == ExtMP4
}
