package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"
)

// ReadAudioInfo reads audio stream properties (duration, format, sample
// rate). This uses lighter-weight methods than full decoding where
// possible.
func ReadAudioInfo(path string) (*AudioInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		info *AudioInfo
		err  error
	)
	switch ext {
	case ExtMP3:
		info, err = readMP3AudioInfo(path)
	case ExtFLAC:
		info, err = readFLACStreamInfo(path)
	case ExtM4A, ExtMP4:
		info, err = readM4AAudioInfo(path)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	if info.Bitrate == 0 {
		info.Bitrate = bitrateFromSize(path, info.Duration)
	}
	return info, nil
}

// readMP3AudioInfo extracts audio info from an MP3 file.
func readMP3AudioInfo(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}

	sampleCount := max(decoder.SampleCount(), 0)
	duration := time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second))

	return &AudioInfo{
		Duration:   duration,
		Format:     "MP3",
		SampleRate: sampleRate,
	}, nil
}

// readFLACStreamInfo extracts audio info from FLAC streaminfo metadata.
func readFLACStreamInfo(path string) (*AudioInfo, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		return nil, err
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Sample rate is in bits 0-19 of bytes 10-12
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		// Total samples is in bytes 14-17 (plus 4 bits from byte 13)
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		duration := time.Duration(0)
		if sampleRate > 0 {
			duration = time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
		}

		return &AudioInfo{
			Duration:   duration,
			Format:     "FLAC",
			SampleRate: sampleRate,
		}, nil
	}

	return nil, errors.New("flac: no streaminfo block")
}

// readM4AAudioInfo extracts audio info from an M4A/MP4 file.
func readM4AAudioInfo(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	container, err := m4a.Open(f)
	if err != nil {
		return nil, err
	}

	var format string
	switch container.Codec() {
	case m4a.CodecAAC:
		format = "AAC"
	case m4a.CodecALAC:
		format = "ALAC"
	case m4a.CodecUnknown:
		format = "M4A"
	}

	return &AudioInfo{
		Duration:   container.Duration(),
		Format:     format,
		SampleRate: int(container.SampleRate()),
	}, nil
}

// bitrateFromSize estimates the average bitrate in kbit/s from the file
// size. Good enough for display on streams that do not carry one.
func bitrateFromSize(path string, duration time.Duration) int {
	if duration <= 0 {
		return 0
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return int(float64(fi.Size()*8) / duration.Seconds() / 1000)
}
