package tags

import (
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// Read reads tag metadata from a music file.
// It returns only tag metadata, not audio stream properties.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	title := m.Title()
	if title == "" {
		title = filepath.Base(path)
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	return &Tag{
		Path:        path,
		Title:       title,
		Artist:      m.Artist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		TrackNumber: track,
		DiscNumber:  disc,
		Year:        m.Year(),
	}, nil
}

// ReadWithAudio reads both tag metadata and audio stream properties.
// Missing or unreadable tags fall back to the filename; unreadable audio
// is an error since a track record without a duration is useless.
func ReadWithAudio(path string) (*FileInfo, error) {
	t, err := Read(path)
	if err != nil {
		t = &Tag{
			Path:  path,
			Title: filepath.Base(path),
		}
	}

	audio, err := ReadAudioInfo(path)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Tag:       *t,
		AudioInfo: *audio,
	}, nil
}
