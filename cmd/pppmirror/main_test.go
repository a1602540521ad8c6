package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/pppmirror/internal/auth"
	"github.com/HerbHall/pppmirror/internal/backup"
	"github.com/HerbHall/pppmirror/internal/devices"
	"github.com/HerbHall/pppmirror/internal/ppp"
	"github.com/HerbHall/pppmirror/internal/store"
	"github.com/HerbHall/pppmirror/pkg/models"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

type stubDeviceStore struct {
	err error
}

func (s stubDeviceStore) Get(context.Context, string) (*models.Device, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Device{ID: "dev-1", Name: "pop-north"}, nil
}

func (s stubDeviceStore) MarkOnline(context.Context, string, time.Time) error    { return s.err }
func (s stubDeviceStore) TouchLastSync(context.Context, string, time.Time) error { return s.err }

func TestDeviceRegistryAdapter_translates_not_found(t *testing.T) {
	ctx := context.Background()
	a := &deviceRegistryAdapter{store: stubDeviceStore{err: devices.ErrNotFound}}

	if _, err := a.Get(ctx, "x"); !errors.Is(err, ppp.ErrDeviceNotFound) {
		t.Errorf("Get err = %v, want ppp.ErrDeviceNotFound", err)
	}
	if err := a.MarkOnline(ctx, "x", time.Now()); !errors.Is(err, ppp.ErrDeviceNotFound) {
		t.Errorf("MarkOnline err = %v", err)
	}
	if err := a.TouchLastSync(ctx, "x", time.Now()); !errors.Is(err, devices.ErrNotFound) {
		t.Errorf("TouchLastSync err = %v, want original error preserved", err)
	}

	boom := errors.New("disk full")
	a = &deviceRegistryAdapter{store: stubDeviceStore{err: boom}}
	if _, err := a.Get(ctx, "x"); !errors.Is(err, boom) || errors.Is(err, ppp.ErrDeviceNotFound) {
		t.Errorf("Get err = %v, want untranslated", err)
	}

	a = &deviceRegistryAdapter{store: stubDeviceStore{}}
	if d, err := a.Get(ctx, "dev-1"); err != nil || d.Name != "pop-north" {
		t.Errorf("Get = %+v, %v", d, err)
	}
}

type stubEngine struct {
	calls   []string
	failAt  string
	secrets int
}

func (e *stubEngine) step(name string) error {
	e.calls = append(e.calls, name)
	if e.failAt == name {
		return &ppp.Error{Kind: ppp.KindConnection, Op: name, Err: errors.New("dial tcp: timeout")}
	}
	return nil
}

func (e *stubEngine) Probe(context.Context, string) (string, error) {
	return "pop-north", e.step("probe")
}

func (e *stubEngine) SyncProfiles(context.Context, string) ([]models.Profile, error) {
	return []models.Profile{{Name: "10M"}, {Name: "20M"}}, e.step("profiles")
}

func (e *stubEngine) SyncSecrets(context.Context, string) (ppp.SecretSyncResult, error) {
	return ppp.SecretSyncResult{Secrets: make([]models.Secret, e.secrets), NewCustomers: 1}, e.step("secrets")
}

func TestSyncDevice(t *testing.T) {
	tests := []struct {
		name         string
		failAt       string
		profilesOnly bool
		wantCalls    string
		wantOut      string
		wantErr      bool
	}{
		{"full", "", false, "probe,profiles,secrets", "secrets mirrored: 3, new customers: 1", false},
		{"profiles only", "", true, "probe,profiles", "profiles mirrored: 2", false},
		{"probe fails", "probe", false, "probe", "", true},
		{"profiles fail", "profiles", false, "probe,profiles", "reachable", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &stubEngine{failAt: tt.failAt, secrets: 3}
			var out bytes.Buffer

			err := syncDevice(context.Background(), e, "dev-1", tt.profilesOnly, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && ppp.KindOf(err) != ppp.KindConnection {
				t.Errorf("kind = %q", ppp.KindOf(err))
			}
			if got := strings.Join(e.calls, ","); got != tt.wantCalls {
				t.Errorf("calls = %s, want %s", got, tt.wantCalls)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tt.wantOut)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pppmirror.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestMintToken(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	path := writeConfig(t, "auth:\n  jwt_secret: \""+secret+"\"\n  token_ttl: 1h\n")

	var out bytes.Buffer
	if err := mintToken([]string{"-config", path, "-subject", "billing", "-role", "reader"}, &out); err != nil {
		t.Fatalf("mintToken: %v", err)
	}

	claims, err := auth.NewTokenService([]byte(secret), time.Hour).Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "billing" || claims.Role != auth.RoleReader {
		t.Errorf("claims = %+v", claims)
	}
}

func TestMintToken_requires_secret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3001\n")
	if err := mintToken([]string{"-config", path, "-subject", "billing"}, &bytes.Buffer{}); err == nil {
		t.Error("mintToken succeeded without auth.jwt_secret")
	}
	if err := mintToken([]string{"-config", path}, &bytes.Buffer{}); err == nil {
		t.Error("mintToken succeeded without subject")
	}
}

func TestBackupAndRestoreCommands(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mirror.db")
	db, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := db.Migrate(ctx, "test", []plugin.Migration{{
		Version:     1,
		Description: "seed",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE seed (v TEXT); INSERT INTO seed VALUES ('x')`)
			return err
		},
	}}); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	db.Close()

	cfgPath := writeConfig(t, "database:\n  path: \""+filepath.ToSlash(dbPath)+"\"\n")
	archive := filepath.Join(t.TempDir(), "out.tar.gz")

	var out bytes.Buffer
	if err := backupCmd(ctx, []string{"-config", cfgPath, "-output", archive}, &out); err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.Contains(out.String(), archive) {
		t.Errorf("backup output = %q", out.String())
	}

	target := t.TempDir()
	out.Reset()
	if err := restoreCmd(ctx, []string{"-target", target, archive}, &out); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out.String(), "config restored") {
		t.Errorf("restore output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(target, backup.DatabaseEntry)); err != nil {
		t.Errorf("restored database missing: %v", err)
	}

	if err := restoreCmd(ctx, []string{"-target", target}, &out); err == nil {
		t.Error("restore without archive argument succeeded")
	}
}
