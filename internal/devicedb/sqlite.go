package devicedb

import (
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/tunesreloaded/podlib/internal/db"
	"github.com/tunesreloaded/podlib/internal/devicepath"
	"github.com/tunesreloaded/podlib/internal/ipod"
)

const (
	controlDir = "iPod_Control"
	dbFileName = "Library.db"

	// Audio files are fanned out over numbered music directories the
	// way stock firmware expects.
	musicDirCount = 20
)

// SQLiteStore keeps the on-device database as a SQLite file under the
// device control directory.
type SQLiteStore struct {
	log *slog.Logger
}

// NewSQLiteStore creates a store that logs through log.
func NewSQLiteStore(log *slog.Logger) *SQLiteStore {
	return &SQLiteStore{log: log}
}

// DatabasePath returns the database location under mountpoint.
func DatabasePath(mountpoint string) string {
	return filepath.Join(mountpoint, controlDir, "iTunes", dbFileName)
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Parse reads the on-device database into a library.
func (s *SQLiteStore) Parse(mountpoint string) (*ipod.Library, error) {
	path := DatabasePath(mountpoint)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer db.Close()

	lib := ipod.NewLibrary(mountpoint)

	byID, err := s.loadTracks(db, lib)
	if err != nil {
		return nil, fmt.Errorf("%w: load tracks: %v", ErrCorrupt, err)
	}
	if err := s.loadPlaylists(db, lib, byID); err != nil {
		return nil, fmt.Errorf("%w: load playlists: %v", ErrCorrupt, err)
	}

	s.log.Info("parsed device database",
		"mountpoint", mountpoint,
		"tracks", lib.Tracks.Len(),
		"playlists", lib.Playlists.Len())
	return lib, nil
}

func (s *SQLiteStore) loadTracks(db *sql.DB, lib *ipod.Library) (map[uint64]ipod.Handle, error) {
	rows, err := db.Query(`
		SELECT id, title, artist, album, genre, filetype,
			track_number, disc_number, year, duration_ms, bitrate,
			samplerate, size, play_count, rating,
			device_path, marker, transferred, added_at, modified_at
		FROM tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uint64]ipod.Handle)
	for rows.Next() {
		var t ipod.Track
		var transferred int
		var addedAt, modifiedAt int64
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.Genre,
			&t.FileType, &t.TrackNumber, &t.DiscNumber, &t.Year,
			&t.DurationMS, &t.Bitrate, &t.SampleRate, &t.Size,
			&t.PlayCount, &t.Rating, &t.DevicePath, &t.Marker,
			&transferred, &addedAt, &modifiedAt); err != nil {
			return nil, err
		}
		t.Transferred = transferred != 0
		t.AddedAt = time.Unix(addedAt, 0)
		t.ModifiedAt = time.Unix(modifiedAt, 0)

		lib.Tracks.Add(&t)
		byID[t.ID] = t.Handle()
	}
	return byID, rows.Err()
}

func (s *SQLiteStore) loadPlaylists(db *sql.DB, lib *ipod.Library, byID map[uint64]ipod.Handle) error {
	rows, err := db.Query(`
		SELECT id, name, is_master, is_smart
		FROM playlists
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ipod.Playlist
		var master, smart int
		if err := rows.Scan(&p.ID, &p.Name, &master, &smart); err != nil {
			return err
		}
		p.Master = master != 0
		p.Smart = smart != 0
		lib.Playlists.Add(&p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range lib.Playlists.All() {
		members, err := s.loadMembers(db, p.ID, byID)
		if err != nil {
			return err
		}
		p.SetMembers(members)
	}
	return nil
}

func (s *SQLiteStore) loadMembers(db *sql.DB, playlistID uint64, byID map[uint64]ipod.Handle) ([]ipod.Handle, error) {
	rows, err := db.Query(`
		SELECT track_id FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []ipod.Handle
	for rows.Next() {
		var trackID uint64
		if err := rows.Scan(&trackID); err != nil {
			return nil, err
		}
		h, ok := byID[trackID]
		if !ok {
			s.log.Warn("playlist references unknown track, skipping",
				"playlist", playlistID, "track", trackID)
			continue
		}
		members = append(members, h)
	}
	return members, rows.Err()
}

// InitNew creates the on-device control tree, SysInfo file and an empty
// database containing only the master playlist.
func (s *SQLiteStore) InitNew(mountpoint, modelNumber, displayName string) error {
	dirs := []string{
		filepath.Join(mountpoint, controlDir, "iTunes"),
		filepath.Join(mountpoint, controlDir, "Device"),
	}
	for i := 0; i < musicDirCount; i++ {
		dirs = append(dirs, filepath.Join(mountpoint, controlDir, "Music", fmt.Sprintf("F%02d", i)))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create control tree: %w", err)
		}
	}

	if err := writeSysInfo(sysInfoPath(mountpoint), modelNumber, displayName); err != nil {
		return fmt.Errorf("write SysInfo: %w", err)
	}

	db, err := openDB(DatabasePath(mountpoint))
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer db.Close()

	if err := initSchema(db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	// Seed the master playlist on first initialization only.
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM playlists`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec(`
			INSERT INTO playlists (position, name, is_master) VALUES (0, ?, 1)
		`, displayName)
		if err != nil {
			return err
		}
	}

	s.log.Info("initialized device database",
		"mountpoint", mountpoint, "model", modelNumber, "name", displayName)
	return nil
}

// Write serializes the library in a single transaction, replacing the
// previous contents. Entities with a zero identity receive one here; it
// is reported back onto the in-memory entity.
func (s *SQLiteStore) Write(lib *ipod.Library) error {
	db, err := openDB(DatabasePath(lib.Mountpoint))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := initSchema(db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	err = dbutil.WithTx(db, func(tx *sql.Tx) error {
		if err := s.writeTracks(tx, lib); err != nil {
			return err
		}
		return s.writePlaylists(tx, lib)
	})
	if err != nil {
		return fmt.Errorf("write database: %w", err)
	}

	s.log.Info("wrote device database",
		"mountpoint", lib.Mountpoint,
		"tracks", lib.Tracks.Len(),
		"playlists", lib.Playlists.Len())
	return nil
}

func (s *SQLiteStore) writeTracks(tx *sql.Tx, lib *ipod.Library) error {
	if _, err := tx.Exec(`DELETE FROM playlist_tracks`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM tracks`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (id, position, title, artist, album, genre,
			filetype, track_number, disc_number, year, duration_ms,
			bitrate, samplerate, size, play_count, rating,
			device_path, marker, transferred, added_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, t := range lib.Tracks.All() {
		// NULL id lets AUTOINCREMENT assign a fresh identity that can
		// never collide with one handed out before.
		var id any
		if t.ID != 0 {
			id = t.ID
		}
		res, err := stmt.Exec(id, pos, t.Title, t.Artist, t.Album,
			t.Genre, t.FileType, t.TrackNumber, t.DiscNumber, t.Year,
			t.DurationMS, t.Bitrate, t.SampleRate, t.Size, t.PlayCount,
			t.Rating, t.DevicePath, t.Marker, boolToInt(t.Transferred),
			t.AddedAt.Unix(), t.ModifiedAt.Unix())
		if err != nil {
			return err
		}
		if t.ID == 0 {
			newID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			t.ID = uint64(newID)
		}
	}
	return nil
}

func (s *SQLiteStore) writePlaylists(tx *sql.Tx, lib *ipod.Library) error {
	if _, err := tx.Exec(`DELETE FROM playlists`); err != nil {
		return err
	}

	plStmt, err := tx.Prepare(`
		INSERT INTO playlists (id, position, name, is_master, is_smart)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer plStmt.Close()

	memberStmt, err := tx.Prepare(`
		INSERT INTO playlist_tracks (playlist_id, position, track_id)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()

	for pos, p := range lib.Playlists.All() {
		var id any
		if p.ID != 0 {
			id = p.ID
		}
		res, err := plStmt.Exec(id, pos, p.Name,
			boolToInt(p.Master), boolToInt(p.Smart))
		if err != nil {
			return err
		}
		if p.ID == 0 {
			newID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			p.ID = uint64(newID)
		}

		memberPos := 0
		for _, h := range p.Members() {
			t := lib.Tracks.ByHandle(h)
			if t == nil {
				// The validator runs before every write; a dead
				// reference surviving to here is skipped, never stored.
				s.log.Warn("skipping dead playlist member",
					"playlist", p.Name)
				continue
			}
			if _, err := memberStmt.Exec(p.ID, memberPos, t.ID); err != nil {
				return err
			}
			memberPos++
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FinalizeTrack inspects the placed file at dest and records its device
// path, file-type marker, size and transfer status on track.
func (s *SQLiteStore) FinalizeTrack(track *ipod.Track, mountpoint, dest string) error {
	fi, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}

	rel, err := devicepath.Relative(mountpoint, dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutsideMountpoint, err)
	}

	track.DevicePath = rel
	track.Marker = devicepath.Marker(dest)
	track.Size = fi.Size()
	track.Transferred = true

	s.log.Info("finalized track", "title", track.Title, "path", rel, "size", fi.Size())
	return nil
}

// DestPath picks the on-device destination for an audio file, fanning
// files out over the numbered music directories by filename hash.
func (s *SQLiteStore) DestPath(mountpoint, originalFilename string) (string, error) {
	if mountpoint == "" {
		return "", fmt.Errorf("mountpoint is empty")
	}
	base := filepath.Base(originalFilename)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid source filename %q", originalFilename)
	}

	h := fnv.New32a()
	h.Write([]byte(base))
	dir := fmt.Sprintf("F%02d", h.Sum32()%musicDirCount)

	return filepath.Join(mountpoint, controlDir, "Music", dir, base), nil
}

// DeviceInfo reads the SysInfo file and resolves the model table.
func (s *SQLiteStore) DeviceInfo(mountpoint string) (*Info, error) {
	values, err := readSysInfo(sysInfoPath(mountpoint))
	if err != nil {
		return nil, fmt.Errorf("read SysInfo: %w", err)
	}
	info := infoFromSysInfo(values)
	if info.ChecksumRequired && info.FirewireGUID == "" {
		s.log.Warn("device requires database checksum but FirewireGuid is not set",
			"model", info.ModelNumber)
	}
	return info, nil
}
