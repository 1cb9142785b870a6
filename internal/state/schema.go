package state

import (
	"database/sql"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS recent_devices (
			mountpoint TEXT PRIMARY KEY,
			model_name TEXT NOT NULL DEFAULT '',
			device_name TEXT NOT NULL DEFAULT '',
			tracks INTEGER NOT NULL DEFAULT 0,
			last_used INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_recent_devices_last_used
			ON recent_devices(last_used DESC);
	`)
	return err
}
