package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/pppmirror/internal/vault"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// ErrNotFound is returned when no device has the requested id.
var ErrNotFound = errors.New("device not found")

// ErrDuplicateName is returned when another device already uses the name.
var ErrDuplicateName = errors.New("device name already in use")

// Store provides database access for the devices table. Passwords are
// sealed on write and opened by Get.
type Store struct {
	db     *sql.DB
	sealer *vault.Sealer
}

// NewStore creates a Store. A nil sealer stores passwords as given.
func NewStore(db *sql.DB, sealer *vault.Sealer) *Store {
	if sealer == nil {
		sealer, _ = vault.NewSealer("")
	}
	return &Store{db: db, sealer: sealer}
}

const deviceColumns = `id, name, address, port, username, password, status, last_sync, created_at, updated_at`

// Create inserts d, assigning ID and timestamps.
func (s *Store) Create(ctx context.Context, d *models.Device) error {
	sealed, err := s.sealer.Seal(d.Password)
	if err != nil {
		return fmt.Errorf("seal device password: %w", err)
	}

	now := time.Now().UTC()
	d.ID = uuid.New().String()
	if d.Status == "" {
		d.Status = models.DeviceStatusUnknown
	}
	d.CreatedAt, d.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Address, d.Port, d.Username, sealed, string(d.Status),
		nullTime(d.LastSync), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// Get returns one device with its password opened.
func (s *Store) Get(ctx context.Context, id string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device %s: %w", id, err)
	}
	if d.Password, err = s.sealer.Open(d.Password); err != nil {
		return nil, fmt.Errorf("open password of device %s: %w", id, err)
	}
	return d, nil
}

// List returns every device ordered by name. Passwords are cleared.
func (s *Store) List(ctx context.Context) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.Password = ""
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Delete removes a device.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete device %s: %w", id, err)
	}
	return expectOne(res)
}

// MarkOnline records a successful probe: status online and last sync at.
func (s *Store) MarkOnline(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET status = ?, last_sync = ?, updated_at = ? WHERE id = ?`,
		string(models.DeviceStatusOnline), at.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark device %s online: %w", id, err)
	}
	return expectOne(res)
}

// TouchLastSync records a completed sync without changing status.
func (s *Store) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE devices SET last_sync = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touch last sync of device %s: %w", id, err)
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(sc scanner) (*models.Device, error) {
	var (
		d        models.Device
		status   string
		lastSync sql.NullTime
	)
	err := sc.Scan(&d.ID, &d.Name, &d.Address, &d.Port, &d.Username, &d.Password,
		&status, &lastSync, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DeviceStatus(status)
	if lastSync.Valid {
		t := lastSync.Time
		d.LastSync = &t
	}
	return &d, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
