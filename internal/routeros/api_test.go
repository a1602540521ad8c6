package routeros

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	ros "github.com/go-routeros/routeros/v3"
	"github.com/google/go-cmp/cmp"
)

func TestSortedWords(t *testing.T) {
	got := attributeWords(map[string]string{"profile": "10M", "disabled": "yes", "name": "alice"})
	want := []string{"=disabled=yes", "=name=alice", "=profile=10M"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attributeWords mismatch (-want +got):\n%s", diff)
	}

	got = queryWords(map[string]string{"name": "alice"})
	if diff := cmp.Diff([]string{"?name=alice"}, got); diff != "" {
		t.Errorf("queryWords mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAPIDialer_default_timeout(t *testing.T) {
	if d := NewAPIDialer(0); d.Timeout != DefaultDialTimeout || d.CommandTimeout != DefaultCommandTimeout {
		t.Errorf("dialer = %+v, want dial %v, command %v", d, DefaultDialTimeout, DefaultCommandTimeout)
	}
	if d := NewAPIDialer(3 * time.Second); d.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", d.Timeout)
	}
}

func TestAPIDialer_cancelled_context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAPIDialer(time.Second).Dial(ctx, Target{Address: "192.0.2.1"})
	if !IsConnection(err) {
		t.Fatalf("Dial error = %v, want ConnectionError", err)
	}
}

// silentDevice returns an async session over a pipe whose far end reads
// every command and never answers.
func silentDevice(t *testing.T, timeout time.Duration) *apiSession {
	t.Helper()
	local, device := net.Pipe()
	go func() { _, _ = io.Copy(io.Discard, device) }()
	t.Cleanup(func() { device.Close() })

	c, err := ros.NewClient(local)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.Async()
	s := &apiSession{c: c, addr: "pipe", timeout: timeout}
	t.Cleanup(func() { s.Close() })
	return s
}

func listWithin(t *testing.T, ctx context.Context, s *apiSession) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		_, err := s.List(ctx, PathSecret)
		errc <- err
	}()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("List still waiting on a silent device")
		return nil
	}
}

func TestAPISession_command_honors_context(t *testing.T) {
	s := silentDevice(t, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := listWithin(t, ctx, s)
	if !IsConnection(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("List err = %v, want ConnectionError wrapping deadline exceeded", err)
	}
}

func TestAPISession_command_timeout(t *testing.T) {
	s := silentDevice(t, 100*time.Millisecond)

	err := listWithin(t, context.Background(), s)
	if !IsConnection(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("List err = %v, want ConnectionError wrapping deadline exceeded", err)
	}
}

type failingConn struct{ io.ReadWriter }

func (failingConn) Close() error { return errors.New("reset by peer") }

func TestAPISession_Close_reports_error(t *testing.T) {
	c, err := ros.NewClient(failingConn{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	s := &apiSession{c: c, addr: "stub"}
	if err := s.Close(); err == nil {
		t.Error("Close swallowed the connection error")
	}
}
