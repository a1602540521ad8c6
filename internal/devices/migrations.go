package devices

import (
	"database/sql"

	"github.com/HerbHall/pppmirror/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create devices table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS devices (
						id         TEXT PRIMARY KEY,
						name       TEXT NOT NULL UNIQUE,
						address    TEXT NOT NULL,
						port       INTEGER NOT NULL DEFAULT 8728,
						username   TEXT NOT NULL,
						password   TEXT NOT NULL DEFAULT '',
						status     TEXT NOT NULL DEFAULT 'unknown',
						last_sync  DATETIME,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
