package devicedb

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunesreloaded/podlib/internal/ipod"
)

func newTestStore() *SQLiteStore {
	return NewSQLiteStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func initDevice(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	s := newTestStore()
	mountpoint := t.TempDir()
	if err := s.InitNew(mountpoint, "MA450", "Test iPod"); err != nil {
		t.Fatalf("InitNew: %v", err)
	}
	return s, mountpoint
}

func sampleTrack(title string) *ipod.Track {
	now := time.Unix(1700000000, 0)
	return &ipod.Track{
		Title: title, Artist: "Artist", Album: "Album", Genre: "Rock",
		FileType: "MPEG audio file", DurationMS: 180000, Bitrate: 320,
		SampleRate: 44100, AddedAt: now, ModifiedAt: now,
	}
}

func TestInitNew_CreatesControlTree(t *testing.T) {
	_, mountpoint := initDevice(t)

	for _, rel := range []string{
		filepath.Join(controlDir, "iTunes", dbFileName),
		filepath.Join(controlDir, "Device", "SysInfo"),
		filepath.Join(controlDir, "Music", "F00"),
		filepath.Join(controlDir, "Music", "F19"),
	} {
		if _, err := os.Stat(filepath.Join(mountpoint, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestInitNew_SeedsMasterPlaylistOnce(t *testing.T) {
	s, mountpoint := initDevice(t)

	// Re-initializing an existing device must not add another master.
	if err := s.InitNew(mountpoint, "MA450", "Test iPod"); err != nil {
		t.Fatalf("second InitNew: %v", err)
	}

	lib, err := s.Parse(mountpoint)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lib.Playlists.Len() != 1 {
		t.Fatalf("playlists = %d, want 1", lib.Playlists.Len())
	}
	master := lib.Playlists.At(0)
	if !master.Master || master.Name != "Test iPod" {
		t.Errorf("master = %+v, want master playlist named Test iPod", master)
	}
}

func TestParse_MissingDatabase(t *testing.T) {
	s := newTestStore()
	_, err := s.Parse(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Parse = %v, want ErrNotFound", err)
	}
}

func TestWriteParse_RoundTrip(t *testing.T) {
	s, mountpoint := initDevice(t)
	lib, err := s.Parse(mountpoint)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tr := sampleTrack("Song")
	tr.DevicePath = ":iPod_Control:Music:F03:song.mp3"
	tr.Size = 4096
	tr.Transferred = true
	lib.Tracks.Add(tr)
	lib.MasterPlaylist().Add(tr.Handle())

	pl := &ipod.Playlist{Name: "Mix"}
	pl.Add(tr.Handle())
	lib.Playlists.Add(pl)

	if err := s.Write(lib); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if tr.ID == 0 || pl.ID == 0 {
		t.Fatal("write should assign identities to new entities")
	}

	got, err := s.Parse(mountpoint)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got.Tracks.Len() != 1 || got.Playlists.Len() != 2 {
		t.Fatalf("reparsed %d tracks, %d playlists, want 1 and 2",
			got.Tracks.Len(), got.Playlists.Len())
	}

	gt := got.Tracks.At(0)
	if gt.ID != tr.ID {
		t.Errorf("track id = %d, want %d", gt.ID, tr.ID)
	}
	if gt.Title != "Song" || gt.DevicePath != tr.DevicePath || !gt.Transferred {
		t.Errorf("reparsed track = %+v", gt)
	}
	if !gt.AddedAt.Equal(tr.AddedAt) {
		t.Errorf("AddedAt = %v, want %v", gt.AddedAt, tr.AddedAt)
	}

	gpl := got.Playlists.At(1)
	if gpl.Name != "Mix" || gpl.MemberCount() != 1 {
		t.Errorf("reparsed playlist = %+v, members %d", gpl, gpl.MemberCount())
	}
	if !gpl.Contains(gt.Handle()) {
		t.Error("playlist should reference the reparsed track")
	}
}

func TestWrite_NeverReusesIdentities(t *testing.T) {
	s, mountpoint := initDevice(t)
	lib, _ := s.Parse(mountpoint)

	first := sampleTrack("First")
	lib.Tracks.Add(first)
	if err := s.Write(lib); err != nil {
		t.Fatalf("first write: %v", err)
	}
	firstID := first.ID

	lib.Tracks.Remove(lib.Tracks.IndexOf(first.Handle()))
	second := sampleTrack("Second")
	lib.Tracks.Add(second)
	if err := s.Write(lib); err != nil {
		t.Fatalf("second write: %v", err)
	}

	if second.ID == 0 || second.ID == firstID {
		t.Errorf("second id = %d, must be fresh (first was %d)", second.ID, firstID)
	}
}

func TestWrite_KeepsExistingIdentity(t *testing.T) {
	s, mountpoint := initDevice(t)
	lib, _ := s.Parse(mountpoint)

	tr := sampleTrack("Song")
	lib.Tracks.Add(tr)
	if err := s.Write(lib); err != nil {
		t.Fatalf("write: %v", err)
	}
	id := tr.ID

	tr.Title = "Renamed"
	if err := s.Write(lib); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if tr.ID != id {
		t.Errorf("id changed on rewrite: %d != %d", tr.ID, id)
	}

	got, _ := s.Parse(mountpoint)
	if gt := got.Tracks.At(0); gt.Title != "Renamed" || gt.ID != id {
		t.Errorf("reparsed = %+v, want Renamed with id %d", gt, id)
	}
}

func TestFinalizeTrack(t *testing.T) {
	s, mountpoint := initDevice(t)

	dest := filepath.Join(mountpoint, controlDir, "Music", "F05", "song.mp3")
	if err := os.WriteFile(dest, make([]byte, 1234), 0o644); err != nil {
		t.Fatalf("place file: %v", err)
	}

	tr := sampleTrack("Song")
	if err := s.FinalizeTrack(tr, mountpoint, dest); err != nil {
		t.Fatalf("FinalizeTrack: %v", err)
	}
	if tr.DevicePath != ":iPod_Control:Music:F05:song.mp3" {
		t.Errorf("DevicePath = %q", tr.DevicePath)
	}
	if tr.Size != 1234 || !tr.Transferred {
		t.Errorf("Size = %d, Transferred = %v", tr.Size, tr.Transferred)
	}
}

func TestFinalizeTrack_OutsideMountpoint(t *testing.T) {
	s, mountpoint := initDevice(t)

	other := t.TempDir()
	dest := filepath.Join(other, "song.mp3")
	if err := os.WriteFile(dest, []byte("x"), 0o644); err != nil {
		t.Fatalf("place file: %v", err)
	}

	tr := sampleTrack("Song")
	err := s.FinalizeTrack(tr, mountpoint, dest)
	if !errors.Is(err, ErrOutsideMountpoint) {
		t.Errorf("FinalizeTrack = %v, want ErrOutsideMountpoint", err)
	}
	if tr.Transferred {
		t.Error("failed finalize must not mark the track transferred")
	}
}

func TestDestPath(t *testing.T) {
	s := newTestStore()

	a, err := s.DestPath("/mnt/ipod", "/home/user/song.mp3")
	if err != nil {
		t.Fatalf("DestPath: %v", err)
	}
	b, err := s.DestPath("/mnt/ipod", "/elsewhere/song.mp3")
	if err != nil {
		t.Fatalf("DestPath: %v", err)
	}
	if a != b {
		t.Errorf("same basename should map to the same slot: %q != %q", a, b)
	}
	if filepath.Base(a) != "song.mp3" {
		t.Errorf("basename = %q", filepath.Base(a))
	}

	dir := filepath.Base(filepath.Dir(a))
	if len(dir) != 3 || dir[0] != 'F' {
		t.Errorf("music dir = %q, want Fnn", dir)
	}

	if _, err := s.DestPath("", "song.mp3"); err == nil {
		t.Error("empty mountpoint should fail")
	}
	if _, err := s.DestPath("/mnt/ipod", "."); err == nil {
		t.Error("invalid filename should fail")
	}
}

func TestDeviceInfo(t *testing.T) {
	s, mountpoint := initDevice(t)

	info, err := s.DeviceInfo(mountpoint)
	if err != nil {
		t.Fatalf("DeviceInfo: %v", err)
	}
	if info.ModelNumber != "MA450" || info.DeviceName != "Test iPod" {
		t.Errorf("info = %+v", info)
	}
	if !info.Recognized || info.ModelName != "iPod Video" {
		t.Errorf("model lookup = %+v, want recognized iPod Video", info)
	}
	if info.ChecksumRequired {
		t.Error("MA450 does not require a checksummed database")
	}
}

func TestDeviceInfo_MissingSysInfo(t *testing.T) {
	s := newTestStore()
	if _, err := s.DeviceInfo(t.TempDir()); err == nil {
		t.Error("missing SysInfo should fail")
	}
}

func TestLookupModel(t *testing.T) {
	tests := []struct {
		in         string
		wantOK     bool
		generation string
	}{
		{"MA450", true, "5.5 Generation"},
		{"xMA450", true, "5.5 Generation"},
		{"MB150LL", true, "6th Generation"},
		{"mc293", true, "7th Generation"},
		{"ZZ999", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		m, ok := lookupModel(tt.in)
		if ok != tt.wantOK {
			t.Errorf("lookupModel(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && m.generation != tt.generation {
			t.Errorf("lookupModel(%q) generation = %q, want %q", tt.in, m.generation, tt.generation)
		}
	}
}
