// Package backup writes and restores gzip'd tar archives of the pppmirror
// database (a consistent VACUUM INTO snapshot), the config file if one is
// in use, and a manifest naming the version that wrote them.
package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register driver for snapshotting

	"github.com/HerbHall/pppmirror/internal/version"
)

// Archive member names.
const (
	DatabaseEntry = "pppmirror.db"
	ConfigEntry   = "pppmirror.yaml"
	ManifestEntry = "manifest.json"
)

// Manifest describes an archive.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	HasConfig bool      `json:"has_config"`
}

// Backup snapshots the database at dbPath (and configPath, when non-empty)
// into a new archive at archivePath. The database may be in use.
func Backup(ctx context.Context, dbPath, configPath, archivePath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "pppmirror-backup-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, DatabaseEntry)
	if err := snapshotDB(ctx, dbPath, snapshot); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	out, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	if err := writeArchive(out, snapshot, configPath); err != nil {
		out.Close()
		os.Remove(archivePath)
		return err
	}
	return out.Close()
}

// snapshotDB writes a transactionally consistent copy of src to dst.
func snapshotDB(ctx context.Context, src, dst string) error {
	db, err := sql.Open("sqlite", src)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, snapshot, configPath string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	m := Manifest{Version: version.Short(), CreatedAt: time.Now().UTC(), HasConfig: configPath != ""}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := writeEntry(tw, ManifestEntry, 0o644, int64(len(body)), bytes.NewReader(body)); err != nil {
		return err
	}
	if err := addFile(tw, DatabaseEntry, snapshot); err != nil {
		return err
	}
	if configPath != "" {
		if err := addFile(tw, ConfigEntry, configPath); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar: %w", err)
	}
	return gw.Close()
}

func addFile(tw *tar.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return writeEntry(tw, name, 0o600, info.Size(), f)
}

func writeEntry(tw *tar.Writer, name string, mode, size int64, r io.Reader) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     mode,
		Size:     size,
		ModTime:  time.Now(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := io.Copy(tw, r); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
