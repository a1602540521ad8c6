package ppp

import (
	"database/sql"

	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// Profiles and secrets are not unique by name: the mirror holds whatever
// the device reported. Customers are unique per (device, username).
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create ppp mirror tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS ppp_profiles (
						id             TEXT PRIMARY KEY,
						device_id      TEXT NOT NULL,
						native_id      TEXT NOT NULL DEFAULT '',
						name           TEXT NOT NULL,
						local_address  TEXT NOT NULL DEFAULT '',
						remote_address TEXT NOT NULL DEFAULT '',
						rate_limit     TEXT NOT NULL DEFAULT '',
						created_at     DATETIME NOT NULL,
						updated_at     DATETIME NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_ppp_profiles_device ON ppp_profiles(device_id, name)`,

					`CREATE TABLE IF NOT EXISTS ppp_secrets (
						id             TEXT PRIMARY KEY,
						device_id      TEXT NOT NULL,
						native_id      TEXT NOT NULL DEFAULT '',
						name           TEXT NOT NULL,
						profile        TEXT NOT NULL DEFAULT 'default',
						local_address  TEXT NOT NULL DEFAULT '',
						remote_address TEXT NOT NULL DEFAULT '',
						comment        TEXT NOT NULL DEFAULT '',
						disabled       INTEGER NOT NULL DEFAULT 0,
						created_at     DATETIME NOT NULL,
						updated_at     DATETIME NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_ppp_secrets_device ON ppp_secrets(device_id, name)`,

					`CREATE TABLE IF NOT EXISTS ppp_customers (
						id              TEXT PRIMARY KEY,
						device_id       TEXT NOT NULL,
						name            TEXT NOT NULL,
						username        TEXT NOT NULL,
						connection_type TEXT NOT NULL DEFAULT 'PPPOE',
						profile_id      TEXT,
						service_price   INTEGER NOT NULL DEFAULT 0,
						due_date        INTEGER NOT NULL DEFAULT 1,
						status          TEXT NOT NULL,
						ip_address      TEXT NOT NULL DEFAULT '',
						created_at      DATETIME NOT NULL,
						updated_at      DATETIME NOT NULL,
						UNIQUE (device_id, username)
					)`,
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
