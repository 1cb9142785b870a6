// Package validate repairs a library immediately before it is written to
// the device. The device database assumes every playlist member resolves
// to a live track and every text field is valid UTF-8; this pass enforces
// both instead of letting the write fail. It never rejects a library —
// problems are repaired in place and logged.
package validate

import (
	"log/slog"
	"unicode/utf8"

	"github.com/tunesreloaded/podlib/internal/ipod"
)

// Report summarizes the repairs made by a single run.
type Report struct {
	TextRepairs    int // fields truncated to a valid UTF-8 prefix
	MembersDropped int // playlist member references removed
	SmartDisabled  int // smart flags forced off
}

// Changed reports whether the run modified the library.
func (r Report) Changed() bool {
	return r.TextRepairs > 0 || r.MembersDropped > 0 || r.SmartDisabled > 0
}

// Validator runs the pre-write repair pass over a library.
type Validator struct {
	log *slog.Logger
}

// New creates a validator that logs repairs to log.
func New(log *slog.Logger) *Validator {
	return &Validator{log: log}
}

// Run repairs lib in place. Running it twice in a row makes no further
// changes the second time.
func (v *Validator) Run(lib *ipod.Library) Report {
	var rep Report
	v.sanitizeTracks(lib, &rep)
	v.sanitizePlaylists(lib, &rep)
	v.repairMembers(lib, &rep)
	v.disableSmart(lib, &rep)
	return rep
}

func (v *Validator) sanitizeTracks(lib *ipod.Library, rep *Report) {
	for i, t := range lib.Tracks.All() {
		fields := []struct {
			name  string
			value *string
		}{
			{"title", &t.Title},
			{"artist", &t.Artist},
			{"album", &t.Album},
			{"genre", &t.Genre},
			{"filetype", &t.FileType},
			{"device_path", &t.DevicePath},
		}
		for _, f := range fields {
			clean, repaired := SanitizeUTF8(*f.value)
			if repaired {
				v.log.Warn("track has invalid UTF-8, truncating",
					"track", i, "field", f.name)
				*f.value = clean
				rep.TextRepairs++
			}
		}
	}
}

func (v *Validator) sanitizePlaylists(lib *ipod.Library, rep *Report) {
	for i, p := range lib.Playlists.All() {
		clean, repaired := SanitizeUTF8(p.Name)
		if repaired {
			v.log.Warn("playlist has invalid UTF-8 in name, truncating",
				"playlist", i)
			p.Name = clean
			rep.TextRepairs++
		}
	}
}

// repairMembers drops playlist member references that do not resolve to a
// live track. Detection and removal are two separate phases so removal
// never perturbs the sequence being scanned.
func (v *Validator) repairMembers(lib *ipod.Library, rep *Report) {
	for _, p := range lib.Playlists.All() {
		var invalid []int
		for pos, h := range p.Members() {
			if h == 0 {
				v.log.Warn("playlist has empty member reference",
					"playlist", p.Name, "position", pos)
				invalid = append(invalid, pos)
				continue
			}
			if !lib.Tracks.Live(h) {
				v.log.Warn("playlist references removed track",
					"playlist", p.Name, "position", pos)
				invalid = append(invalid, pos)
			}
		}

		// Remove back to front so earlier positions stay valid.
		for i := len(invalid) - 1; i >= 0; i-- {
			p.RemoveAt(invalid[i])
			rep.MembersDropped++
		}
	}
}

func (v *Validator) disableSmart(lib *ipod.Library, rep *Report) {
	for _, p := range lib.Playlists.All() {
		if p.Smart {
			v.log.Warn("disabling smart playlist", "playlist", p.Name)
			p.Smart = false
			rep.SmartDisabled++
		}
	}
}

// SanitizeUTF8 returns s truncated at the last valid UTF-8 boundary and
// whether truncation happened. Valid strings are returned unchanged.
func SanitizeUTF8(s string) (string, bool) {
	if utf8.ValidString(s) {
		return s, false
	}
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		i += size
	}
	return s[:i], true
}
