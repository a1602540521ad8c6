package ppp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/routeros"
	"github.com/HerbHall/pppmirror/pkg/models"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// DeviceRegistry is the consumer-side view of the device registry. Get
// returns ErrDeviceNotFound (possibly wrapped) for unknown ids and the
// device password in plaintext.
type DeviceRegistry interface {
	Get(ctx context.Context, id string) (*models.Device, error)
	MarkOnline(ctx context.Context, id string, at time.Time) error
	TouchLastSync(ctx context.Context, id string, at time.Time) error
}

// MirrorStore is the persistence the engine needs. *Store implements it.
type MirrorStore interface {
	ReplaceProfiles(ctx context.Context, deviceID string, profiles []models.Profile) ([]models.Profile, error)
	ReplaceSecrets(ctx context.Context, deviceID string, secrets []models.Secret) ([]models.Secret, error)
	ListProfiles(ctx context.Context, deviceID string) ([]models.Profile, error)
	ListSecrets(ctx context.Context, deviceID string) ([]models.Secret, error)
	ListCustomers(ctx context.Context, deviceID string) ([]models.Customer, error)
	ProfileIDsByName(ctx context.Context, deviceID string) (map[string]string, error)
	CustomerUsernames(ctx context.Context, deviceID string) (map[string]struct{}, error)
	CreateCustomer(ctx context.Context, c *models.Customer) (bool, error)
	UpdateCustomer(ctx context.Context, deviceID, username string, u CustomerUpdate) error
	InsertSecret(ctx context.Context, sec *models.Secret) error
	UpdateSecretRow(ctx context.Context, deviceID, name string, patch SecretRowPatch) (bool, error)
	SetSecretDisabled(ctx context.Context, deviceID, name string, disabled bool) (bool, error)
}

var _ MirrorStore = (*Store)(nil)

// Operation names used in errors, logs and metrics.
const (
	OpProbe             = "probe"
	OpSyncProfiles      = "sync_profiles"
	OpSyncSecrets       = "sync_secrets"
	OpSetSecretEnabled  = "set_secret_enabled"
	OpActiveSessions    = "active_sessions"
	OpStatusSnapshot    = "status_snapshot"
	OpCachedProfiles    = "cached_profiles"
	OpCachedSecrets     = "cached_secrets"
	OpListCustomers     = "list_customers"
	OpCreateSecret      = "create_secret"
	OpUpdateSecret      = "update_secret"
	defaultDueDate      = 1
	defaultServicePrice = 0
)

// SecretSyncResult is returned by SyncSecrets.
type SecretSyncResult struct {
	Secrets      []models.Secret `json:"secrets"`
	NewCustomers int             `json:"new_customers"`
}

// ToggleResult is returned by SetSecretEnabled.
type ToggleResult struct {
	Name           string `json:"name"`
	Disabled       bool   `json:"disabled"`
	SessionsClosed int    `json:"sessions_closed"`
}

// SecretInput describes a secret to create on a device.
type SecretInput struct {
	Name          string
	Password      string
	Service       string
	Profile       string
	LocalAddress  string
	RemoteAddress string
	Comment       string
	Disabled      bool
}

// SecretPatch lists the attributes to change on an existing secret.
type SecretPatch struct {
	Password *string
	Profile  *string
	Disabled *bool
}

// SecretWriteResult is returned by CreateSecret and UpdateSecret.
type SecretWriteResult struct {
	Secret          models.Secret `json:"secret"`
	CustomerCreated bool          `json:"customer_created"`
	SessionsClosed  int           `json:"sessions_closed"`
}

// Engine reconciles RouterOS PPP state into the mirror store. Every
// operation opens its own device session and closes it before returning.
// Nothing is retried.
type Engine struct {
	devices DeviceRegistry
	store   MirrorStore
	dialer  routeros.Dialer
	bus     plugin.EventBus
	logger  *zap.Logger
	locks   *deviceLocks
	now     func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithEventBus publishes engine events on bus.
func WithEventBus(bus plugin.EventBus) EngineOption {
	return func(e *Engine) { e.bus = bus }
}

// WithoutDeviceLocks lets mutating operations on the same device interleave.
func WithoutDeviceLocks() EngineOption {
	return func(e *Engine) { e.locks = nil }
}

// WithClock overrides the time source used for last-sync stamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. Mutating operations against one device are
// serialized unless WithoutDeviceLocks is given.
func NewEngine(devices DeviceRegistry, st MirrorStore, dialer routeros.Dialer, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		devices: devices,
		store:   st,
		dialer:  dialer,
		logger:  logger,
		locks:   newDeviceLocks(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Probe checks that the device answers and accepts the credentials. On
// success the device is marked online. A failed probe leaves the device
// row untouched.
func (e *Engine) Probe(ctx context.Context, deviceID string) (identity string, err error) {
	defer func(start time.Time) { observe(OpProbe, start, err) }(time.Now())

	c, err := e.connect(ctx, OpProbe, deviceID)
	if err != nil {
		return "", err
	}
	defer c.Close()

	identity, err = c.Identity(ctx)
	if err != nil {
		return "", deviceErr(OpProbe, deviceID, "", err)
	}
	if err := e.devices.MarkOnline(ctx, deviceID, e.now()); err != nil {
		return "", storeErr(OpProbe, deviceID, err)
	}

	e.logger.Info("device probed",
		zap.String("device_id", deviceID),
		zap.String("identity", identity),
	)
	e.publish(ctx, TopicDeviceProbed, DeviceProbedEvent{DeviceID: deviceID, Identity: identity})
	return identity, nil
}

// SyncProfiles replaces the device's mirrored profiles with what the device
// currently reports.
func (e *Engine) SyncProfiles(ctx context.Context, deviceID string) (profiles []models.Profile, err error) {
	defer func(start time.Time) { observe(OpSyncProfiles, start, err) }(time.Now())
	unlock, err := e.lock(ctx, OpSyncProfiles, deviceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := e.connect(ctx, OpSyncProfiles, deviceID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	fetched, err := c.Profiles(ctx)
	if err != nil {
		return nil, deviceErr(OpSyncProfiles, deviceID, "", err)
	}
	stored, err := e.store.ReplaceProfiles(ctx, deviceID, fetched)
	if err != nil {
		return nil, storeErr(OpSyncProfiles, deviceID, err)
	}
	if err := e.devices.TouchLastSync(ctx, deviceID, e.now()); err != nil {
		return nil, storeErr(OpSyncProfiles, deviceID, err)
	}

	mirroredRows.WithLabelValues("profiles").Set(float64(len(stored)))
	e.logger.Info("profiles synced",
		zap.String("device_id", deviceID),
		zap.Int("count", len(stored)),
	)
	e.publish(ctx, TopicProfilesSynced, SyncedEvent{DeviceID: deviceID, Count: len(stored)})
	return stored, nil
}

// SyncSecrets replaces the device's mirrored secrets and derives customers:
// a username seen for the first time creates a customer, a known one only
// has its status, address and profile link refreshed. Secrets without a
// name are mirrored but produce no customer.
//
// Failures after the secret snapshot was written leave that snapshot in
// place.
func (e *Engine) SyncSecrets(ctx context.Context, deviceID string) (res SecretSyncResult, err error) {
	defer func(start time.Time) { observe(OpSyncSecrets, start, err) }(time.Now())
	unlock, err := e.lock(ctx, OpSyncSecrets, deviceID)
	if err != nil {
		return SecretSyncResult{}, err
	}
	defer unlock()

	c, err := e.connect(ctx, OpSyncSecrets, deviceID)
	if err != nil {
		return SecretSyncResult{}, err
	}
	defer c.Close()

	fetched, err := c.Secrets(ctx)
	if err != nil {
		return SecretSyncResult{}, deviceErr(OpSyncSecrets, deviceID, "", err)
	}
	stored, err := e.store.ReplaceSecrets(ctx, deviceID, fetched)
	if err != nil {
		return SecretSyncResult{}, storeErr(OpSyncSecrets, deviceID, err)
	}
	mirroredRows.WithLabelValues("secrets").Set(float64(len(stored)))

	d, err := e.newDeriver(ctx, OpSyncSecrets, deviceID)
	if err != nil {
		return SecretSyncResult{}, err
	}
	created := 0
	for i := range stored {
		ok, err := d.derive(ctx, stored[i])
		if err != nil {
			return SecretSyncResult{}, err
		}
		if ok {
			created++
		}
	}

	if err := e.devices.TouchLastSync(ctx, deviceID, e.now()); err != nil {
		return SecretSyncResult{}, storeErr(OpSyncSecrets, deviceID, err)
	}

	e.logger.Info("secrets synced",
		zap.String("device_id", deviceID),
		zap.Int("count", len(stored)),
		zap.Int("new_customers", created),
	)
	e.publish(ctx, TopicSecretsSynced, SyncedEvent{DeviceID: deviceID, Count: len(stored), NewCustomers: created})
	return SecretSyncResult{Secrets: stored, NewCustomers: created}, nil
}

// SetSecretEnabled enables or disables a secret on the device, closing its
// active sessions when disabling, then records the flag in the mirror. The
// store is only written after the device accepted the change.
func (e *Engine) SetSecretEnabled(ctx context.Context, deviceID, name string, enabled bool) (res ToggleResult, err error) {
	defer func(start time.Time) { observe(OpSetSecretEnabled, start, err) }(time.Now())
	if name == "" {
		return ToggleResult{}, &Error{Kind: KindInvalid, Op: OpSetSecretEnabled, DeviceID: deviceID, Err: errors.New("secret name is required")}
	}
	unlock, err := e.lock(ctx, OpSetSecretEnabled, deviceID)
	if err != nil {
		return ToggleResult{}, err
	}
	defer unlock()

	c, err := e.connect(ctx, OpSetSecretEnabled, deviceID)
	if err != nil {
		return ToggleResult{}, err
	}
	defer c.Close()

	sec, err := e.findSecret(ctx, c, OpSetSecretEnabled, deviceID, name)
	if err != nil {
		return ToggleResult{}, err
	}

	disabled := !enabled
	if err := c.SetSecretDisabled(ctx, sec.NativeID, disabled); err != nil {
		return ToggleResult{}, deviceErr(OpSetSecretEnabled, deviceID, name, err)
	}

	closed := 0
	if disabled {
		if closed, err = e.dropSessions(ctx, c, OpSetSecretEnabled, deviceID, name); err != nil {
			return ToggleResult{}, err
		}
	}

	mirrored, err := e.store.SetSecretDisabled(ctx, deviceID, name, disabled)
	if err != nil {
		return ToggleResult{}, storeErr(OpSetSecretEnabled, deviceID, err)
	}
	if !mirrored {
		e.logger.Debug("secret not mirrored yet; store unchanged",
			zap.String("device_id", deviceID),
			zap.String("secret", name),
		)
	}

	topic := TopicSecretEnabled
	if disabled {
		topic = TopicSecretDisabled
	}
	e.logger.Info("secret toggled",
		zap.String("device_id", deviceID),
		zap.String("secret", name),
		zap.Bool("disabled", disabled),
		zap.Int("sessions_closed", closed),
	)
	e.publish(ctx, topic, SecretToggledEvent{DeviceID: deviceID, Name: name, SessionsClosed: closed})
	return ToggleResult{Name: name, Disabled: disabled, SessionsClosed: closed}, nil
}

// ListActiveSessions returns the device's live PPP connections.
func (e *Engine) ListActiveSessions(ctx context.Context, deviceID string) (sessions []models.ActiveSession, err error) {
	defer func(start time.Time) { observe(OpActiveSessions, start, err) }(time.Now())

	c, err := e.connect(ctx, OpActiveSessions, deviceID)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	sessions, err = c.ActiveSessions(ctx, "")
	if err != nil {
		return nil, deviceErr(OpActiveSessions, deviceID, "", err)
	}
	return sessions, nil
}

// StatusSnapshot returns identity and resource figures of the device.
func (e *Engine) StatusSnapshot(ctx context.Context, deviceID string) (status models.SystemStatus, err error) {
	defer func(start time.Time) { observe(OpStatusSnapshot, start, err) }(time.Now())

	c, err := e.connect(ctx, OpStatusSnapshot, deviceID)
	if err != nil {
		return models.SystemStatus{}, err
	}
	defer c.Close()

	status, err = c.Resource(ctx)
	if err != nil {
		return models.SystemStatus{}, deviceErr(OpStatusSnapshot, deviceID, "", err)
	}
	if status.Identity, err = c.Identity(ctx); err != nil {
		return models.SystemStatus{}, deviceErr(OpStatusSnapshot, deviceID, "", err)
	}
	return status, nil
}

// ListCachedProfiles returns the mirrored profiles without contacting the
// device.
func (e *Engine) ListCachedProfiles(ctx context.Context, deviceID string) (profiles []models.Profile, err error) {
	defer func(start time.Time) { observe(OpCachedProfiles, start, err) }(time.Now())
	if err := e.requireDevice(ctx, OpCachedProfiles, deviceID); err != nil {
		return nil, err
	}
	if profiles, err = e.store.ListProfiles(ctx, deviceID); err != nil {
		return nil, storeErr(OpCachedProfiles, deviceID, err)
	}
	return profiles, nil
}

// ListCachedSecrets returns the mirrored secrets without contacting the
// device.
func (e *Engine) ListCachedSecrets(ctx context.Context, deviceID string) (secrets []models.Secret, err error) {
	defer func(start time.Time) { observe(OpCachedSecrets, start, err) }(time.Now())
	if err := e.requireDevice(ctx, OpCachedSecrets, deviceID); err != nil {
		return nil, err
	}
	if secrets, err = e.store.ListSecrets(ctx, deviceID); err != nil {
		return nil, storeErr(OpCachedSecrets, deviceID, err)
	}
	return secrets, nil
}

// ListCustomers returns the customers derived for a device.
func (e *Engine) ListCustomers(ctx context.Context, deviceID string) (customers []models.Customer, err error) {
	defer func(start time.Time) { observe(OpListCustomers, start, err) }(time.Now())
	if err := e.requireDevice(ctx, OpListCustomers, deviceID); err != nil {
		return nil, err
	}
	if customers, err = e.store.ListCustomers(ctx, deviceID); err != nil {
		return nil, storeErr(OpListCustomers, deviceID, err)
	}
	return customers, nil
}

// CreateSecret adds a secret on the device, mirrors it and derives its
// customer with the same rules as SyncSecrets.
func (e *Engine) CreateSecret(ctx context.Context, deviceID string, in SecretInput) (res SecretWriteResult, err error) {
	defer func(start time.Time) { observe(OpCreateSecret, start, err) }(time.Now())
	if in.Name == "" {
		return SecretWriteResult{}, &Error{Kind: KindInvalid, Op: OpCreateSecret, DeviceID: deviceID, Err: errors.New("secret name is required")}
	}
	unlock, err := e.lock(ctx, OpCreateSecret, deviceID)
	if err != nil {
		return SecretWriteResult{}, err
	}
	defer unlock()

	c, err := e.connect(ctx, OpCreateSecret, deviceID)
	if err != nil {
		return SecretWriteResult{}, err
	}
	defer c.Close()

	if _, found, err := c.FindSecret(ctx, in.Name); err != nil {
		return SecretWriteResult{}, deviceErr(OpCreateSecret, deviceID, in.Name, err)
	} else if found {
		return SecretWriteResult{}, &Error{Kind: KindInvalid, Op: OpCreateSecret, DeviceID: deviceID, Key: in.Name,
			Err: fmt.Errorf("secret %s already exists", in.Name)}
	}

	if in.Service == "" {
		in.Service = "pppoe"
	}
	nativeID, err := c.AddSecret(ctx, routeros.NewSecret{
		Name:          in.Name,
		Password:      in.Password,
		Service:       in.Service,
		Profile:       in.Profile,
		LocalAddress:  in.LocalAddress,
		RemoteAddress: in.RemoteAddress,
		Comment:       in.Comment,
		Disabled:      in.Disabled,
	})
	if err != nil {
		return SecretWriteResult{}, deviceErr(OpCreateSecret, deviceID, in.Name, err)
	}

	sec := models.Secret{
		DeviceID:      deviceID,
		NativeID:      nativeID,
		Name:          in.Name,
		Profile:       in.Profile,
		LocalAddress:  in.LocalAddress,
		RemoteAddress: in.RemoteAddress,
		Comment:       in.Comment,
		Disabled:      in.Disabled,
	}
	if err := e.store.InsertSecret(ctx, &sec); err != nil {
		return SecretWriteResult{}, storeErr(OpCreateSecret, deviceID, err)
	}

	d, err := e.newDeriver(ctx, OpCreateSecret, deviceID)
	if err != nil {
		return SecretWriteResult{}, err
	}
	created, err := d.derive(ctx, sec)
	if err != nil {
		return SecretWriteResult{}, err
	}

	e.logger.Info("secret created",
		zap.String("device_id", deviceID),
		zap.String("secret", in.Name),
		zap.Bool("customer_created", created),
	)
	return SecretWriteResult{Secret: sec, CustomerCreated: created}, nil
}

// UpdateSecret changes password, profile or disabled flag of a secret on
// the device and mirrors the change. Disabling also closes the secret's
// active sessions.
func (e *Engine) UpdateSecret(ctx context.Context, deviceID, name string, patch SecretPatch) (res SecretWriteResult, err error) {
	defer func(start time.Time) { observe(OpUpdateSecret, start, err) }(time.Now())
	change := routeros.SecretChange(patch)
	if name == "" || change.Empty() {
		return SecretWriteResult{}, &Error{Kind: KindInvalid, Op: OpUpdateSecret, DeviceID: deviceID, Key: name,
			Err: errors.New("secret name and at least one of password, profile, disabled are required")}
	}
	unlock, err := e.lock(ctx, OpUpdateSecret, deviceID)
	if err != nil {
		return SecretWriteResult{}, err
	}
	defer unlock()

	c, err := e.connect(ctx, OpUpdateSecret, deviceID)
	if err != nil {
		return SecretWriteResult{}, err
	}
	defer c.Close()

	sec, err := e.findSecret(ctx, c, OpUpdateSecret, deviceID, name)
	if err != nil {
		return SecretWriteResult{}, err
	}
	if err := c.UpdateSecret(ctx, sec.NativeID, change); err != nil {
		return SecretWriteResult{}, deviceErr(OpUpdateSecret, deviceID, name, err)
	}

	closed := 0
	if patch.Disabled != nil && *patch.Disabled {
		if closed, err = e.dropSessions(ctx, c, OpUpdateSecret, deviceID, name); err != nil {
			return SecretWriteResult{}, err
		}
	}

	if patch.Profile != nil {
		sec.Profile = *patch.Profile
	}
	if patch.Disabled != nil {
		sec.Disabled = *patch.Disabled
	}
	sec.DeviceID = deviceID

	mirrored, err := e.store.UpdateSecretRow(ctx, deviceID, name, SecretRowPatch{Profile: patch.Profile, Disabled: patch.Disabled})
	if err != nil {
		return SecretWriteResult{}, storeErr(OpUpdateSecret, deviceID, err)
	}
	if !mirrored {
		if err := e.store.InsertSecret(ctx, &sec); err != nil {
			return SecretWriteResult{}, storeErr(OpUpdateSecret, deviceID, err)
		}
	}

	e.logger.Info("secret updated",
		zap.String("device_id", deviceID),
		zap.String("secret", name),
		zap.Int("sessions_closed", closed),
	)
	return SecretWriteResult{Secret: sec, SessionsClosed: closed}, nil
}

// connect loads the device and opens a session to it.
func (e *Engine) connect(ctx context.Context, op, deviceID string) (*routeros.Client, error) {
	dev, err := e.loadDevice(ctx, op, deviceID)
	if err != nil {
		return nil, err
	}
	sess, err := e.dialer.Dial(ctx, routeros.Target{
		Address:  dev.Address,
		Port:     dev.Port,
		Username: dev.Username,
		Password: dev.Password,
	})
	if err != nil {
		e.logger.Warn("device unreachable",
			zap.String("device_id", deviceID),
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, deviceErr(op, deviceID, "", err)
	}
	return routeros.NewClient(sess), nil
}

func (e *Engine) loadDevice(ctx context.Context, op, deviceID string) (*models.Device, error) {
	if deviceID == "" {
		return nil, &Error{Kind: KindInvalid, Op: op, Err: errors.New("device id is required")}
	}
	dev, err := e.devices.Get(ctx, deviceID)
	if errors.Is(err, ErrDeviceNotFound) {
		return nil, &Error{Kind: KindNotFound, Op: op, DeviceID: deviceID, Err: err}
	}
	if err != nil {
		return nil, storeErr(op, deviceID, err)
	}
	return dev, nil
}

func (e *Engine) requireDevice(ctx context.Context, op, deviceID string) error {
	_, err := e.loadDevice(ctx, op, deviceID)
	return err
}

func (e *Engine) findSecret(ctx context.Context, c *routeros.Client, op, deviceID, name string) (models.Secret, error) {
	sec, found, err := c.FindSecret(ctx, name)
	if err != nil {
		return models.Secret{}, deviceErr(op, deviceID, name, err)
	}
	if !found {
		return models.Secret{}, &Error{Kind: KindNotFound, Op: op, DeviceID: deviceID, Key: name,
			Err: fmt.Errorf("secret %s not found", name)}
	}
	return sec, nil
}

// dropSessions disconnects every active session of the named secret.
func (e *Engine) dropSessions(ctx context.Context, c *routeros.Client, op, deviceID, name string) (int, error) {
	sessions, err := c.ActiveSessions(ctx, name)
	if err != nil {
		return 0, deviceErr(op, deviceID, name, err)
	}
	for i, s := range sessions {
		if err := c.RemoveActive(ctx, s.ID); err != nil {
			return i, deviceErr(op, deviceID, name, err)
		}
	}
	return len(sessions), nil
}

// lock serializes mutating operations per device. The returned func
// releases the lock. Giving up on ctx while another operation holds the
// device is a KindBusy error.
func (e *Engine) lock(ctx context.Context, op, deviceID string) (func(), error) {
	if e.locks == nil {
		return func() {}, nil
	}
	unlock, err := e.locks.lock(ctx, deviceID)
	if err != nil {
		return nil, &Error{Kind: KindBusy, Op: op, DeviceID: deviceID,
			Err: fmt.Errorf("waiting for another operation on the device: %w", err)}
	}
	return unlock, nil
}

func (e *Engine) publish(ctx context.Context, topic string, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.PublishAsync(context.WithoutCancel(ctx), plugin.Event{
		Topic:     topic,
		Source:    "ppp",
		Timestamp: e.now(),
		Payload:   payload,
	})
}

// customerDeriver turns mirrored secrets into customers for one device. The
// username set grows as customers are created so a repeated name within
// one run only updates.
type customerDeriver struct {
	e          *Engine
	op         string
	deviceID   string
	known      map[string]struct{}
	profileIDs map[string]string
}

func (e *Engine) newDeriver(ctx context.Context, op, deviceID string) (*customerDeriver, error) {
	known, err := e.store.CustomerUsernames(ctx, deviceID)
	if err != nil {
		return nil, storeErr(op, deviceID, err)
	}
	profileIDs, err := e.store.ProfileIDsByName(ctx, deviceID)
	if err != nil {
		return nil, storeErr(op, deviceID, err)
	}
	return &customerDeriver{e: e, op: op, deviceID: deviceID, known: known, profileIDs: profileIDs}, nil
}

// derive creates or refreshes the customer for sec and reports whether a
// new customer was created.
func (d *customerDeriver) derive(ctx context.Context, sec models.Secret) (bool, error) {
	if sec.Name == "" {
		return false, nil
	}

	status := models.CustomerStatusActive
	if sec.Disabled {
		status = models.CustomerStatusIsolir
	}
	var profileID *string
	if id, ok := d.profileIDs[sec.Profile]; ok {
		profileID = &id
	}

	if _, ok := d.known[sec.Name]; ok {
		err := d.e.store.UpdateCustomer(ctx, d.deviceID, sec.Name, CustomerUpdate{
			Status:    status,
			IPAddress: sec.RemoteAddress,
			ProfileID: profileID,
		})
		if err != nil {
			return false, storeErr(d.op, d.deviceID, err)
		}
		return false, nil
	}

	name := sec.Comment
	if name == "" {
		name = sec.Name
	}
	c := &models.Customer{
		DeviceID:       d.deviceID,
		Name:           name,
		Username:       sec.Name,
		ConnectionType: models.ConnectionTypePPPoE,
		ProfileID:      profileID,
		ServicePrice:   defaultServicePrice,
		DueDate:        defaultDueDate,
		Status:         status,
		IPAddress:      sec.RemoteAddress,
	}
	created, err := d.e.store.CreateCustomer(ctx, c)
	if err != nil {
		return false, storeErr(d.op, d.deviceID, err)
	}
	d.known[sec.Name] = struct{}{}
	if !created {
		return false, nil
	}

	customersCreatedTotal.Inc()
	d.e.publish(ctx, TopicCustomerCreated, CustomerCreatedEvent{
		DeviceID:   d.deviceID,
		CustomerID: c.ID,
		Username:   c.Username,
		Status:     string(c.Status),
	})
	return true, nil
}
