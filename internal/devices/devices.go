// Package devices is the registry of RouterOS devices pppmirror mirrors.
// It owns the devices table and the credentials used to log in.
package devices

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/vault"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// RoleDeviceRegistry is the role this plugin fills.
const RoleDeviceRegistry = "device_registry"

// Module implements the device registry plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	store  *Store
	bus    plugin.EventBus
}

// New creates a new devices plugin instance.
func New() *Module {
	return &Module{}
}

// Info implements plugin.Plugin.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "devices",
		Version:     "0.1.0",
		Description: "Registry of RouterOS devices and their API credentials",
		Required:    true,
		Roles:       []string{RoleDeviceRegistry},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init implements plugin.Plugin.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus
	m.cfg = DefaultConfig()

	if deps.Config != nil {
		if v := deps.Config.GetInt("default_port"); v > 0 {
			m.cfg.DefaultPort = v
		}
		m.cfg.CredentialPassphrase = deps.Config.GetString("credential_passphrase")
	}

	if deps.Store == nil {
		m.logger.Warn("devices module initialized without a store")
		return nil
	}

	if err := deps.Store.Migrate(ctx, "devices", migrations()); err != nil {
		return fmt.Errorf("devices migrations: %w", err)
	}

	sealer, err := vault.NewSealer(m.cfg.CredentialPassphrase)
	if err != nil {
		return fmt.Errorf("devices credential sealer: %w", err)
	}
	m.store = NewStore(deps.Store.DB(), sealer)

	m.logger.Info("devices module initialized",
		zap.Int("default_port", m.cfg.DefaultPort),
		zap.Bool("credentials_encrypted", sealer.Enabled()),
	)
	return nil
}

// Start implements plugin.Plugin.
func (m *Module) Start(_ context.Context) error {
	return nil
}

// Stop implements plugin.Plugin.
func (m *Module) Stop(_ context.Context) error {
	return nil
}

// Store returns the device store, nil before Init.
func (m *Module) Store() *Store {
	return m.store
}

func (m *Module) publish(ctx context.Context, topic string, payload DeviceEvent) {
	if m.bus == nil {
		return
	}
	err := m.bus.Publish(ctx, plugin.Event{
		Topic:     topic,
		Source:    "devices",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		m.logger.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/{$}", Handler: m.handleList},
		{Method: "POST", Path: "/{$}", Handler: m.handleCreate},
		{Method: "GET", Path: "/{id}", Handler: m.handleGet},
		{Method: "DELETE", Path: "/{id}", Handler: m.handleDelete},
	}
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if m.store == nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: "no store"}
	}
	list, err := m.store.List(ctx)
	if err != nil {
		return plugin.HealthStatus{Status: "degraded", Message: err.Error()}
	}
	return plugin.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"devices": fmt.Sprint(len(list))},
	}
}
