// Debug tool: dump the tags and audio properties read from music files.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tunesreloaded/podlib/internal/tags"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s FILE...\n", os.Args[0])
		os.Exit(2)
	}

	for _, path := range os.Args[1:] {
		info, err := tags.ReadWithAudio(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		fmt.Printf("%s\n", path)
		fmt.Printf("  title:       %s\n", info.Title)
		fmt.Printf("  artist:      %s\n", info.Artist)
		fmt.Printf("  album:       %s\n", info.Album)
		fmt.Printf("  genre:       %s\n", info.Genre)
		fmt.Printf("  track/disc:  %d/%d\n", info.TrackNumber, info.DiscNumber)
		fmt.Printf("  year:        %d\n", info.Year)
		fmt.Printf("  format:      %s (%s)\n", info.Format, info.FileTypeDescription())
		fmt.Printf("  duration:    %s\n", info.Duration)
		fmt.Printf("  sample rate: %d Hz\n", info.SampleRate)
		fmt.Printf("  bitrate:     %d kbit/s\n", info.Bitrate)
	}
}
