package ppp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/pppmirror/internal/store"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// CustomerUpdate carries the mutable customer fields a sync refreshes.
type CustomerUpdate struct {
	Status    models.CustomerStatus
	IPAddress string
	ProfileID *string
}

// SecretRowPatch lists the mirrored secret columns to change. Nil fields are
// left alone.
type SecretRowPatch struct {
	Profile  *string
	Disabled *bool
}

// Store provides database access for the ppp mirror tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a Store wrapping the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// --- Profiles ---

// ReplaceProfiles deletes every profile row of the device and inserts
// profiles in one transaction. Rows get fresh ids; the stored rows are
// returned in input order.
func (s *Store) ReplaceProfiles(ctx context.Context, deviceID string, profiles []models.Profile) ([]models.Profile, error) {
	now := s.now()
	out := make([]models.Profile, 0, len(profiles))
	err := store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ppp_profiles WHERE device_id = ?`, deviceID); err != nil {
			return fmt.Errorf("delete profiles: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ppp_profiles (id, device_id, native_id, name, local_address, remote_address, rate_limit, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare profile insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range profiles {
			p.ID = uuid.New().String()
			p.DeviceID = deviceID
			p.CreatedAt, p.UpdatedAt = now, now
			if _, err := stmt.ExecContext(ctx, p.ID, p.DeviceID, p.NativeID, p.Name,
				p.LocalAddress, p.RemoteAddress, p.RateLimit, p.CreatedAt, p.UpdatedAt); err != nil {
				return fmt.Errorf("insert profile %q: %w", p.Name, err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListProfiles returns the mirrored profiles of a device in device order.
func (s *Store) ListProfiles(ctx context.Context, deviceID string) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, native_id, name, local_address, remote_address, rate_limit, created_at, updated_at
		FROM ppp_profiles WHERE device_id = ? ORDER BY rowid`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.DeviceID, &p.NativeID, &p.Name, &p.LocalAddress,
			&p.RemoteAddress, &p.RateLimit, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProfileIDsByName maps profile name to stored id. When a name repeats the
// first row wins.
func (s *Store) ProfileIDsByName(ctx context.Context, deviceID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, id FROM ppp_profiles WHERE device_id = ? ORDER BY rowid`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("profile ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		if _, seen := out[name]; !seen {
			out[name] = id
		}
	}
	return out, rows.Err()
}

// --- Secrets ---

const secretColumns = `id, device_id, native_id, name, profile, local_address, remote_address, comment, disabled, created_at, updated_at`

// ReplaceSecrets deletes every secret row of the device and inserts secrets
// in one transaction, like ReplaceProfiles.
func (s *Store) ReplaceSecrets(ctx context.Context, deviceID string, secrets []models.Secret) ([]models.Secret, error) {
	now := s.now()
	out := make([]models.Secret, 0, len(secrets))
	err := store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ppp_secrets WHERE device_id = ?`, deviceID); err != nil {
			return fmt.Errorf("delete secrets: %w", err)
		}
		for _, sec := range secrets {
			sec.DeviceID = deviceID
			sec.CreatedAt, sec.UpdatedAt = now, now
			if err := insertSecret(ctx, tx, &sec); err != nil {
				return err
			}
			out = append(out, sec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertSecret adds a single secret row, assigning id and timestamps.
func (s *Store) InsertSecret(ctx context.Context, sec *models.Secret) error {
	now := s.now()
	sec.CreatedAt, sec.UpdatedAt = now, now
	return insertSecret(ctx, s.db, sec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSecret(ctx context.Context, ex execer, sec *models.Secret) error {
	sec.ID = uuid.New().String()
	if sec.Profile == "" {
		sec.Profile = models.DefaultProfileName
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO ppp_secrets (`+secretColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sec.ID, sec.DeviceID, sec.NativeID, sec.Name, sec.Profile, sec.LocalAddress,
		sec.RemoteAddress, sec.Comment, sec.Disabled, sec.CreatedAt, sec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert secret %q: %w", sec.Name, err)
	}
	return nil
}

// ListSecrets returns the mirrored secrets of a device in device order.
func (s *Store) ListSecrets(ctx context.Context, deviceID string) ([]models.Secret, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+secretColumns+` FROM ppp_secrets WHERE device_id = ? ORDER BY rowid`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	out := []models.Secret{}
	for rows.Next() {
		var sec models.Secret
		if err := rows.Scan(&sec.ID, &sec.DeviceID, &sec.NativeID, &sec.Name, &sec.Profile,
			&sec.LocalAddress, &sec.RemoteAddress, &sec.Comment, &sec.Disabled,
			&sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// UpdateSecretRow applies patch to every mirrored row named name. It
// reports whether any row matched.
func (s *Store) UpdateSecretRow(ctx context.Context, deviceID, name string, patch SecretRowPatch) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ppp_secrets SET
			profile    = COALESCE(?, profile),
			disabled   = COALESCE(?, disabled),
			updated_at = ?
		WHERE device_id = ? AND name = ?`,
		nullString(patch.Profile), nullBool(patch.Disabled), s.now(), deviceID, name,
	)
	if err != nil {
		return false, fmt.Errorf("update secret %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SetSecretDisabled records a disabled flag change. A secret that has not
// been mirrored yet is not an error; the result reports whether a row
// matched.
func (s *Store) SetSecretDisabled(ctx context.Context, deviceID, name string, disabled bool) (bool, error) {
	return s.UpdateSecretRow(ctx, deviceID, name, SecretRowPatch{Disabled: &disabled})
}

// --- Customers ---

const customerColumns = `id, device_id, name, username, connection_type, profile_id, service_price, due_date, status, ip_address, created_at, updated_at`

// CustomerUsernames returns the set of usernames that already have a
// customer on the device.
func (s *Store) CustomerUsernames(ctx context.Context, deviceID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM ppp_customers WHERE device_id = ?`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("customer usernames: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		out[u] = struct{}{}
	}
	return out, rows.Err()
}

// CreateCustomer inserts c unless the device already has a customer with
// the same username. In that case only the mutable fields of the existing
// row are refreshed and created is false; c keeps the values it was given.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) (created bool, err error) {
	now := s.now()
	id := uuid.New().String()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ppp_customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id, username) DO NOTHING`,
		id, c.DeviceID, c.Name, c.Username, c.ConnectionType, nullString(c.ProfileID),
		c.ServicePrice, c.DueDate, string(c.Status), c.IPAddress, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert customer %q: %w", c.Username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, s.UpdateCustomer(ctx, c.DeviceID, c.Username, CustomerUpdate{
			Status:    c.Status,
			IPAddress: c.IPAddress,
			ProfileID: c.ProfileID,
		})
	}
	c.ID = id
	c.CreatedAt, c.UpdatedAt = now, now
	return true, nil
}

// UpdateCustomer refreshes status, address and profile link. Identity and
// creation time are never touched.
func (s *Store) UpdateCustomer(ctx context.Context, deviceID, username string, u CustomerUpdate) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ppp_customers SET status = ?, ip_address = ?, profile_id = ?, updated_at = ?
		WHERE device_id = ? AND username = ?`,
		string(u.Status), u.IPAddress, nullString(u.ProfileID), s.now(), deviceID, username,
	)
	if err != nil {
		return fmt.Errorf("update customer %q: %w", username, err)
	}
	return nil
}

// GetCustomer returns the customer for username, or nil when none exists.
func (s *Store) GetCustomer(ctx context.Context, deviceID, username string) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM ppp_customers WHERE device_id = ? AND username = ?`,
		deviceID, username)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %q: %w", username, err)
	}
	return c, nil
}

// ListCustomers returns every customer of a device ordered by username.
func (s *Store) ListCustomers(ctx context.Context, deviceID string) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM ppp_customers WHERE device_id = ? ORDER BY username`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// PurgeDevice drops the profile and secret mirrors of a removed device.
// Customers are business records and stay.
func (s *Store) PurgeDevice(ctx context.Context, deviceID string) error {
	return store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM ppp_profiles WHERE device_id = ?`,
			`DELETE FROM ppp_secrets WHERE device_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, deviceID); err != nil {
				return fmt.Errorf("purge device %s: %w", deviceID, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(sc rowScanner) (*models.Customer, error) {
	var (
		c         models.Customer
		profileID sql.NullString
		status    string
	)
	if err := sc.Scan(&c.ID, &c.DeviceID, &c.Name, &c.Username, &c.ConnectionType, &profileID,
		&c.ServicePrice, &c.DueDate, &status, &c.IPAddress, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if profileID.Valid {
		id := profileID.String
		c.ProfileID = &id
	}
	c.Status = models.CustomerStatus(status)
	return &c, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
