package ppp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/routeros"
	"github.com/HerbHall/pppmirror/internal/store"
	"github.com/HerbHall/pppmirror/internal/testutil"
	"github.com/HerbHall/pppmirror/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "ppp", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db.DB())
}

// fakeRegistry is an in-memory DeviceRegistry.
type fakeRegistry struct {
	mu       sync.Mutex
	devices  map[string]models.Device
	online   map[string]time.Time
	lastSync map[string]time.Time
	getErr   error
}

func newFakeRegistry(devs ...models.Device) *fakeRegistry {
	r := &fakeRegistry{
		devices:  make(map[string]models.Device),
		online:   make(map[string]time.Time),
		lastSync: make(map[string]time.Time),
	}
	for _, d := range devs {
		r.devices[d.ID] = d
	}
	return r
}

func (r *fakeRegistry) Get(_ context.Context, id string) (*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("device %s: %w", id, ErrDeviceNotFound)
	}
	return &d, nil
}

func (r *fakeRegistry) MarkOnline(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[id] = at
	return nil
}

func (r *fakeRegistry) TouchLastSync(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSync[id] = at
	return nil
}

func (r *fakeRegistry) isOnline(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[id]
	return ok
}

func (r *fakeRegistry) synced(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lastSync[id]
	return ok
}

// fixture bundles an engine with its collaborators for one device.
type fixture struct {
	engine   *Engine
	store    *Store
	router   *testutil.FakeRouter
	registry *fakeRegistry
	deviceID string
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	dev := testutil.NewDevice()
	f := &fixture{
		store:    testStore(t),
		router:   testutil.NewFakeRouter(),
		registry: newFakeRegistry(dev),
		deviceID: dev.ID,
	}
	f.engine = NewEngine(f.registry, f.store, f.router, zap.NewNop(), opts...)
	return f
}

// failingStore wraps a MirrorStore and fails the named methods.
type failingStore struct {
	MirrorStore
	fail map[string]error
}

func (s *failingStore) err(method string) error { return s.fail[method] }

func (s *failingStore) CreateCustomer(ctx context.Context, c *models.Customer) (bool, error) {
	if err := s.err("CreateCustomer"); err != nil {
		return false, err
	}
	return s.MirrorStore.CreateCustomer(ctx, c)
}

func (s *failingStore) ReplaceSecrets(ctx context.Context, deviceID string, secrets []models.Secret) ([]models.Secret, error) {
	if err := s.err("ReplaceSecrets"); err != nil {
		return nil, err
	}
	return s.MirrorStore.ReplaceSecrets(ctx, deviceID, secrets)
}

func (s *failingStore) SetSecretDisabled(ctx context.Context, deviceID, name string, disabled bool) (bool, error) {
	if err := s.err("SetSecretDisabled"); err != nil {
		return false, err
	}
	return s.MirrorStore.SetSecretDisabled(ctx, deviceID, name, disabled)
}

// stallDialer wraps a dialer whose sessions hang on List(path) until
// release is closed. entered is closed when the first List(path) starts.
type stallDialer struct {
	routeros.Dialer
	path    routeros.Path
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStallDialer(d routeros.Dialer, path routeros.Path) *stallDialer {
	return &stallDialer{Dialer: d, path: path, entered: make(chan struct{}), release: make(chan struct{})}
}

func (d *stallDialer) Dial(ctx context.Context, target routeros.Target) (routeros.Session, error) {
	s, err := d.Dialer.Dial(ctx, target)
	if err != nil {
		return nil, err
	}
	return &stallSession{Session: s, d: d}, nil
}

type stallSession struct {
	routeros.Session
	d *stallDialer
}

func (s *stallSession) List(ctx context.Context, path routeros.Path) ([]routeros.Record, error) {
	if path == s.d.path {
		s.d.once.Do(func() { close(s.d.entered) })
		<-s.d.release
	}
	return s.Session.List(ctx, path)
}
