package validate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/tunesreloaded/podlib/internal/ipod"
)

func newValidator() *Validator {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		repaired bool
	}{
		{"valid ascii", "Hello", "Hello", false},
		{"valid multibyte", "Björk — Début", "Björk — Début", false},
		{"empty", "", "", false},
		{"trailing invalid byte", "Title\xff", "Title", true},
		{"invalid byte mid-string", "Ti\xfftle", "Ti", true},
		{"leading invalid byte", "\xff\xfe", "", true},
		{"truncated multibyte sequence", "caf\xc3", "caf", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired := SanitizeUTF8(tt.in)
			if got != tt.want || repaired != tt.repaired {
				t.Errorf("SanitizeUTF8(%q) = %q, %v, want %q, %v",
					tt.in, got, repaired, tt.want, tt.repaired)
			}
		})
	}
}

func TestRun_SanitizesTrackFields(t *testing.T) {
	lib := ipod.NewLibrary("/mnt/ipod")
	lib.Tracks.Add(&ipod.Track{Title: "Song\xff", Artist: "Artist", Genre: "Rock\xfe"})

	rep := newValidator().Run(lib)

	if rep.TextRepairs != 2 {
		t.Errorf("TextRepairs = %d, want 2", rep.TextRepairs)
	}
	tr := lib.Tracks.At(0)
	if tr.Title != "Song" {
		t.Errorf("Title = %q, want Song", tr.Title)
	}
	if tr.Genre != "Rock" {
		t.Errorf("Genre = %q, want Rock", tr.Genre)
	}
	if tr.Artist != "Artist" {
		t.Errorf("Artist = %q, should be untouched", tr.Artist)
	}
}

func TestRun_SanitizesPlaylistName(t *testing.T) {
	lib := ipod.NewLibrary("/mnt/ipod")
	lib.Playlists.Add(&ipod.Playlist{Name: "Mix\xff"})

	newValidator().Run(lib)

	if got := lib.Playlists.At(0).Name; got != "Mix" {
		t.Errorf("Name = %q, want Mix", got)
	}
}

func TestRun_DropsDanglingMembers(t *testing.T) {
	lib := ipod.NewLibrary("/mnt/ipod")
	lib.Tracks.Add(&ipod.Track{Title: "A"})
	lib.Tracks.Add(&ipod.Track{Title: "B"})
	live := lib.Tracks.At(0).Handle()
	dead := lib.Tracks.At(1).Handle()

	pl := &ipod.Playlist{Name: "Mix"}
	pl.Add(live)
	pl.Add(dead)
	pl.SetMembers(append(pl.Members(), 0)) // simulate an empty reference
	lib.Playlists.Add(pl)

	lib.Tracks.Remove(1)

	rep := newValidator().Run(lib)

	if rep.MembersDropped != 2 {
		t.Errorf("MembersDropped = %d, want 2", rep.MembersDropped)
	}
	members := pl.Members()
	if len(members) != 1 || members[0] != live {
		t.Errorf("Members = %v, want [%v]", members, live)
	}
	// Repair must not touch the track store itself.
	if lib.Tracks.Len() != 1 {
		t.Errorf("Tracks.Len() = %d, want 1", lib.Tracks.Len())
	}
}

func TestRun_DisablesSmartPlaylists(t *testing.T) {
	lib := ipod.NewLibrary("/mnt/ipod")
	lib.Playlists.Add(&ipod.Playlist{Name: "Rules", Smart: true})
	lib.Playlists.Add(&ipod.Playlist{Name: "Plain"})

	rep := newValidator().Run(lib)

	if rep.SmartDisabled != 1 {
		t.Errorf("SmartDisabled = %d, want 1", rep.SmartDisabled)
	}
	if lib.Playlists.At(0).Smart {
		t.Error("smart flag should be forced off")
	}
}

func TestRun_Idempotent(t *testing.T) {
	lib := ipod.NewLibrary("/mnt/ipod")
	lib.Tracks.Add(&ipod.Track{Title: "Song\xff"})
	lib.Tracks.Add(&ipod.Track{Title: "Gone"})
	dead := lib.Tracks.At(1).Handle()

	pl := &ipod.Playlist{Name: "Mix", Smart: true}
	pl.Add(lib.Tracks.At(0).Handle())
	pl.Add(dead)
	lib.Playlists.Add(pl)
	lib.Tracks.Remove(1)

	v := newValidator()
	first := v.Run(lib)
	if !first.Changed() {
		t.Fatal("first run should repair something")
	}

	second := v.Run(lib)
	if second.Changed() {
		t.Errorf("second run changed the library: %+v", second)
	}
}
