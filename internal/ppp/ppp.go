// Package ppp mirrors PPP profiles and secrets from RouterOS devices into
// the local database and derives one customer per PPP username.
package ppp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/routeros"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
)

// RoleReconciler is the role this plugin fills.
const RoleReconciler = "reconciler"

// TopicDeviceDeleted is the devices topic the module listens on to purge
// mirrored rows. Declared here to keep ppp free of a devices import.
const TopicDeviceDeleted = "devices.device.deleted"

// Config holds the ppp module settings.
type Config struct {
	DialTimeout        time.Duration `mapstructure:"dial_timeout"`
	CommandTimeout     time.Duration `mapstructure:"command_timeout"`
	SerializePerDevice bool          `mapstructure:"serialize_per_device"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DialTimeout:        routeros.DefaultDialTimeout,
		CommandTimeout:     routeros.DefaultCommandTimeout,
		SerializePerDevice: true,
	}
}

// Module implements the ppp plugin.
type Module struct {
	logger  *zap.Logger
	cfg     Config
	store   *Store
	bus     plugin.EventBus
	devices DeviceRegistry
	dialer  routeros.Dialer
	engine  *Engine
}

// New creates a new ppp plugin instance.
func New() *Module {
	return &Module{cfg: DefaultConfig()}
}

// SetDeviceRegistry wires the device lookup. Must be called before Start.
func (m *Module) SetDeviceRegistry(r DeviceRegistry) {
	m.devices = r
}

// SetDialer replaces the RouterOS API dialer. Must be called before Start.
func (m *Module) SetDialer(d routeros.Dialer) {
	m.dialer = d
}

// Engine returns the reconciliation engine, nil before Start.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Store returns the mirror store, nil before Init.
func (m *Module) Store() *Store {
	return m.store
}

// Info implements plugin.Plugin.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "ppp",
		Version:      "0.1.0",
		Description:  "PPP profile and secret mirror with customer derivation",
		Dependencies: []string{"devices"},
		Roles:        []string{RoleReconciler},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

// Init implements plugin.Plugin.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	if deps.Config != nil {
		if d := deps.Config.GetDuration("dial_timeout"); d > 0 {
			m.cfg.DialTimeout = d
		}
		if d := deps.Config.GetDuration("command_timeout"); d > 0 {
			m.cfg.CommandTimeout = d
		}
		if deps.Config.IsSet("serialize_per_device") {
			m.cfg.SerializePerDevice = deps.Config.GetBool("serialize_per_device")
		}
	}

	if deps.Store == nil {
		m.logger.Warn("ppp module initialized without a store")
		return nil
	}
	if err := deps.Store.Migrate(ctx, "ppp", migrations()); err != nil {
		return fmt.Errorf("ppp migrations: %w", err)
	}
	m.store = NewStore(deps.Store.DB())

	m.logger.Info("ppp module initialized",
		zap.Duration("dial_timeout", m.cfg.DialTimeout),
		zap.Duration("command_timeout", m.cfg.CommandTimeout),
		zap.Bool("serialize_per_device", m.cfg.SerializePerDevice),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.DialTimeout <= 0 {
		return errors.New("ppp: dial_timeout must be positive")
	}
	return nil
}

// Start implements plugin.Plugin. It builds the engine once the device
// registry has been wired.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return nil
	}
	if m.devices == nil {
		m.logger.Warn("ppp module started without a device registry; routes will refuse requests")
		return nil
	}
	if m.dialer == nil {
		d := routeros.NewAPIDialer(m.cfg.DialTimeout)
		d.CommandTimeout = m.cfg.CommandTimeout
		m.dialer = d
	}

	opts := []EngineOption{WithEventBus(m.bus)}
	if !m.cfg.SerializePerDevice {
		opts = append(opts, WithoutDeviceLocks())
	}
	m.engine = NewEngine(m.devices, m.store, m.dialer, m.logger, opts...)
	return nil
}

// Stop implements plugin.Plugin.
func (m *Module) Stop(_ context.Context) error {
	return nil
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/test-connection", Handler: m.handleTestConnection},
		{Method: "POST", Path: "/profiles", Handler: m.handleProfiles},
		{Method: "POST", Path: "/profiles/sync", Handler: m.handleSyncProfiles},
		{Method: "POST", Path: "/secrets", Handler: m.handleSecrets},
		{Method: "POST", Path: "/secrets/sync", Handler: m.handleSyncSecrets},
		{Method: "POST", Path: "/secrets/disable", Handler: m.handleDisableSecret},
		{Method: "POST", Path: "/secrets/enable", Handler: m.handleEnableSecret},
		{Method: "POST", Path: "/secrets/create", Handler: m.handleCreateSecret},
		{Method: "POST", Path: "/secrets/update", Handler: m.handleUpdateSecret},
		{Method: "POST", Path: "/active", Handler: m.handleActive},
		{Method: "POST", Path: "/system/resources", Handler: m.handleSystemResources},
		{Method: "POST", Path: "/customers", Handler: m.handleCustomers},
	}
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicDeviceDeleted, Handler: m.onDeviceDeleted},
	}
}

// onDeviceDeleted drops the mirrored profiles and secrets of a removed
// device. Customers are kept.
func (m *Module) onDeviceDeleted(ctx context.Context, e plugin.Event) {
	if m.store == nil {
		return
	}
	id := deviceIDFromPayload(e.Payload)
	if id == "" {
		m.logger.Warn("device deleted event without device id", zap.String("source", e.Source))
		return
	}
	if err := m.store.PurgeDevice(ctx, id); err != nil {
		m.logger.Error("failed to purge mirrored rows", zap.String("device_id", id), zap.Error(err))
		return
	}
	m.logger.Info("mirrored rows purged", zap.String("device_id", id))
}

// deviceIDFromPayload accepts devices.DeviceEvent (via GetDeviceID), a
// decoded JSON map or a bare id.
func deviceIDFromPayload(p any) string {
	switch v := p.(type) {
	case interface{ GetDeviceID() string }:
		return v.GetDeviceID()
	case map[string]any:
		s, _ := v["device_id"].(string)
		return s
	case map[string]string:
		return v["device_id"]
	case string:
		return v
	}
	return ""
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	switch {
	case m.store == nil:
		return plugin.HealthStatus{Status: "unhealthy", Message: "no store"}
	case m.engine == nil:
		return plugin.HealthStatus{Status: "degraded", Message: "engine not started"}
	}
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"dial_timeout":         m.cfg.DialTimeout.String(),
			"command_timeout":      m.cfg.CommandTimeout.String(),
			"serialize_per_device": fmt.Sprint(m.cfg.SerializePerDevice),
		},
	}
}
