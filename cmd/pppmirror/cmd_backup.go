package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HerbHall/pppmirror/internal/backup"
	"github.com/HerbHall/pppmirror/internal/config"
)

func runBackup(args []string) {
	if err := backupCmd(context.Background(), args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pppmirror backup: %v\n", err)
		os.Exit(1)
	}
}

func runRestore(args []string) {
	if err := restoreCmd(context.Background(), args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pppmirror restore: %v\n", err)
		os.Exit(1)
	}
}

func backupCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	output := fs.String("output", "", "archive path (default pppmirror-backup-<timestamp>.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	archive := *output
	if archive == "" {
		archive = fmt.Sprintf("pppmirror-backup-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	}
	if err := backup.Backup(ctx, cfg.Database.Path, v.ConfigFileUsed(), archive); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "backup written to %s\n", archive)
	return err
}

func restoreCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	target := fs.String("target", ".", "directory to restore into")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: pppmirror restore [-target dir] [-force] <archive>")
	}

	m, err := backup.Restore(ctx, fs.Arg(0), *target, *force)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "restored %s into %s\n", backup.DatabaseEntry, *target)
	if m.Version != "" {
		fmt.Fprintf(out, "archive written by %s at %s\n", m.Version, m.CreatedAt.Format(time.RFC3339))
	}
	if m.HasConfig {
		_, err = fmt.Fprintf(out, "config restored to %s; point database.path at the restored file\n",
			filepath.Join(*target, backup.ConfigEntry))
	}
	return err
}
