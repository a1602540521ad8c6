package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/pppmirror/internal/devices"
	"github.com/HerbHall/pppmirror/internal/ppp"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// deviceStore is the slice of *devices.Store the ppp engine relies on.
type deviceStore interface {
	Get(ctx context.Context, id string) (*models.Device, error)
	MarkOnline(ctx context.Context, id string, at time.Time) error
	TouchLastSync(ctx context.Context, id string, at time.Time) error
}

// deviceRegistryAdapter adapts the devices store to ppp.DeviceRegistry and
// translates its not-found sentinel. Lives in the composition root so ppp
// never imports devices.
type deviceRegistryAdapter struct {
	store deviceStore
}

var _ ppp.DeviceRegistry = (*deviceRegistryAdapter)(nil)

func (a *deviceRegistryAdapter) Get(ctx context.Context, id string) (*models.Device, error) {
	d, err := a.store.Get(ctx, id)
	return d, translate(err)
}

func (a *deviceRegistryAdapter) MarkOnline(ctx context.Context, id string, at time.Time) error {
	return translate(a.store.MarkOnline(ctx, id, at))
}

func (a *deviceRegistryAdapter) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	return translate(a.store.TouchLastSync(ctx, id, at))
}

func translate(err error) error {
	if errors.Is(err, devices.ErrNotFound) {
		return fmt.Errorf("%w: %w", ppp.ErrDeviceNotFound, err)
	}
	return err
}
