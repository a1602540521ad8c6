package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/ppp"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// runSync performs a one-shot probe and mirror of a single device without
// starting the HTTP server, for installs that drive mirroring from cron.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	deviceID := fs.String("device", "", "device id to mirror")
	profilesOnly := fs.Bool("profiles-only", false, "mirror profiles but not secrets")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall deadline")
	_ = fs.Parse(args)

	if *deviceID == "" {
		fmt.Fprintln(os.Stderr, "pppmirror sync: -device is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	err := oneShotSync(ctx, *configPath, *deviceID, *profilesOnly)
	cancel()
	if err != nil {
		if kind := ppp.KindOf(err); kind != "" {
			fmt.Fprintf(os.Stderr, "pppmirror sync (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "pppmirror sync: %v\n", err)
		}
		os.Exit(1)
	}
}

func oneShotSync(ctx context.Context, configPath, deviceID string, profilesOnly bool) error {
	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	engine := a.ppp.Engine()
	if engine == nil {
		return errors.New("ppp engine unavailable")
	}
	if err := syncDevice(ctx, engine, deviceID, profilesOnly, os.Stdout); err != nil {
		a.logger.Error("sync failed", zap.String("device_id", deviceID), zap.Error(err))
		return err
	}
	return nil
}

// mirrorEngine is the part of *ppp.Engine the sync command drives.
type mirrorEngine interface {
	Probe(ctx context.Context, deviceID string) (string, error)
	SyncProfiles(ctx context.Context, deviceID string) ([]models.Profile, error)
	SyncSecrets(ctx context.Context, deviceID string) (ppp.SecretSyncResult, error)
}

func syncDevice(ctx context.Context, e mirrorEngine, deviceID string, profilesOnly bool, out io.Writer) error {
	identity, err := e.Probe(ctx, deviceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "device %s (%s) reachable\n", deviceID, identity)

	profiles, err := e.SyncProfiles(ctx, deviceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "profiles mirrored: %d\n", len(profiles))
	if profilesOnly {
		return nil
	}

	res, err := e.SyncSecrets(ctx, deviceID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "secrets mirrored: %d, new customers: %d\n", len(res.Secrets), res.NewCustomers)
	return nil
}
