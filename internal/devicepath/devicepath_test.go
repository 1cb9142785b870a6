package devicepath

import "testing"

func TestFSToDevice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/iPod_Control/Music/F00/track.mp3", ":iPod_Control:Music:F00:track.mp3"},
		{"no-separators", "no-separators"},
		{"", ""},
		{"/", ":"},
	}
	for _, tt := range tests {
		if got := FSToDevice(tt.in); got != tt.want {
			t.Errorf("FSToDevice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	paths := []string{
		":iPod_Control:Music:F03:song.m4a",
		":a:b:c",
		"plain",
	}
	for _, p := range paths {
		if got := FSToDevice(DeviceToFS(p)); got != p {
			t.Errorf("FSToDevice(DeviceToFS(%q)) = %q, want unchanged", p, got)
		}
	}

	fsPaths := []string{
		"/iPod_Control/Music/F03/song.m4a",
		"/a/b/c",
	}
	for _, p := range fsPaths {
		if got := DeviceToFS(FSToDevice(p)); got != p {
			t.Errorf("DeviceToFS(FSToDevice(%q)) = %q, want unchanged", p, got)
		}
	}
}

func TestMarker(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mp3", "song.mp3", "MP3 "},
		{"m4a", "song.m4a", "M4A "},
		{"flac truncated to four", "song.flac", "FLAC"},
		{"longer suffix truncated", "song.flacx", "FLAC"},
		{"already upper", "SONG.AIFF", "AIFF"},
		{"no suffix", "song", "    "},
		{"trailing dot", "song.", "    "},
		{"single char", "song.m", "M   "},
		{"dot in directory only", "dir.d/song", "D/SO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkerString(Marker(tt.in))
			if got != tt.want {
				t.Errorf("Marker(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRelative(t *testing.T) {
	got, err := Relative("/mnt/ipod", "/mnt/ipod/iPod_Control/Music/F00/a.mp3")
	if err != nil {
		t.Fatalf("Relative: %v", err)
	}
	want := ":iPod_Control:Music:F00:a.mp3"
	if got != want {
		t.Errorf("Relative = %q, want %q", got, want)
	}
}

func TestRelative_TrailingSlashMountpoint(t *testing.T) {
	got, err := Relative("/mnt/ipod/", "/mnt/ipod/Music/a.mp3")
	if err != nil {
		t.Fatalf("Relative: %v", err)
	}
	if got != ":Music:a.mp3" {
		t.Errorf("Relative = %q, want :Music:a.mp3", got)
	}
}

func TestRelative_OutsideMountpoint(t *testing.T) {
	tests := []struct {
		name       string
		mountpoint string
		abs        string
	}{
		{"different root", "/mnt/ipod", "/home/user/a.mp3"},
		{"equal to mountpoint", "/mnt/ipod", "/mnt/ipod"},
		{"empty mountpoint", "", "/a.mp3"},
		{"shorter than mountpoint", "/mnt/ipod", "/mnt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Relative(tt.mountpoint, tt.abs); err == nil {
				t.Errorf("Relative(%q, %q) should fail", tt.mountpoint, tt.abs)
			}
		})
	}
}
