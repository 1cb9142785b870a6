// Package state persists per-user application state, currently the list
// of recently used devices.
package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "podlib"
	dbFileName = "podlib.db"

	recentDeviceLimit = 10
)

type Manager struct {
	db *sql.DB
}

func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the state database at an explicit path. Used by tests.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// DeviceRecord describes one device the user has opened before.
type DeviceRecord struct {
	Mountpoint string
	ModelName  string
	DeviceName string
	Tracks     int
	LastUsed   time.Time
}

// RecordDevice remembers that a device was just used. Entries beyond the
// retention limit are dropped, oldest first.
func (m *Manager) RecordDevice(rec DeviceRecord) error {
	if rec.LastUsed.IsZero() {
		rec.LastUsed = time.Now()
	}
	_, err := m.db.Exec(`
		INSERT INTO recent_devices (mountpoint, model_name, device_name, tracks, last_used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mountpoint) DO UPDATE SET
			model_name = excluded.model_name,
			device_name = excluded.device_name,
			tracks = excluded.tracks,
			last_used = excluded.last_used
	`, rec.Mountpoint, rec.ModelName, rec.DeviceName, rec.Tracks, rec.LastUsed.Unix())
	if err != nil {
		return err
	}

	_, err = m.db.Exec(`
		DELETE FROM recent_devices
		WHERE mountpoint NOT IN (
			SELECT mountpoint FROM recent_devices
			ORDER BY last_used DESC LIMIT ?
		)
	`, recentDeviceLimit)
	return err
}

// RecentDevices returns known devices, most recently used first.
func (m *Manager) RecentDevices() ([]DeviceRecord, error) {
	rows, err := m.db.Query(`
		SELECT mountpoint, model_name, device_name, tracks, last_used
		FROM recent_devices
		ORDER BY last_used DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeviceRecord
	for rows.Next() {
		var rec DeviceRecord
		var lastUsed int64
		if err := rows.Scan(&rec.Mountpoint, &rec.ModelName, &rec.DeviceName, &rec.Tracks, &lastUsed); err != nil {
			return nil, err
		}
		rec.LastUsed = time.Unix(lastUsed, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastUsedMountpoint returns the most recently used mountpoint, or empty
// when none is known.
func (m *Manager) LastUsedMountpoint() (string, error) {
	var mountpoint string
	err := m.db.QueryRow(`
		SELECT mountpoint FROM recent_devices
		ORDER BY last_used DESC LIMIT 1
	`).Scan(&mountpoint)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return mountpoint, nil
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
