package routeros

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ros "github.com/go-routeros/routeros/v3"
)

// Compile-time interface guards.
var (
	_ Dialer  = (*APIDialer)(nil)
	_ Session = (*apiSession)(nil)
)

// DefaultDialTimeout bounds connect plus login when no timeout is configured.
const DefaultDialTimeout = 10 * time.Second

// DefaultCommandTimeout bounds one command round trip when the caller's
// context carries no earlier deadline.
const DefaultCommandTimeout = 30 * time.Second

// APIDialer opens sessions over the RouterOS API protocol.
type APIDialer struct {
	Timeout        time.Duration
	CommandTimeout time.Duration
}

// NewAPIDialer returns a dialer with the given connect timeout. Zero means
// DefaultDialTimeout. Commands are bounded by DefaultCommandTimeout.
func NewAPIDialer(timeout time.Duration) *APIDialer {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &APIDialer{Timeout: timeout, CommandTimeout: DefaultCommandTimeout}
}

// Dial connects and logs in, bounded by ctx and the dial timeout. The
// client is switched to async mode so every command honors its context.
func (d *APIDialer) Dial(ctx context.Context, target Target) (Session, error) {
	addr := target.HostPort()
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Address: addr, Err: err}
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := ros.DialContext(dialCtx, addr, target.Username, target.Password)
	if err != nil {
		return nil, &ConnectionError{Address: addr, Err: err}
	}
	c.Async()
	return &apiSession{c: c, addr: addr, timeout: d.CommandTimeout}, nil
}

type apiSession struct {
	c       *ros.Client
	addr    string
	timeout time.Duration
}

func (s *apiSession) List(ctx context.Context, path Path) ([]Record, error) {
	reply, err := s.run(ctx, path, "/print", nil)
	if err != nil {
		return nil, err
	}
	return records(reply), nil
}

func (s *apiSession) Find(ctx context.Context, path Path, filter map[string]string) ([]Record, error) {
	reply, err := s.run(ctx, path, "/print", queryWords(filter))
	if err != nil {
		return nil, err
	}
	return records(reply), nil
}

func (s *apiSession) Add(ctx context.Context, path Path, fields map[string]string) (string, error) {
	reply, err := s.run(ctx, path, "/add", attributeWords(fields))
	if err != nil {
		return "", err
	}
	if reply.Done == nil {
		return "", nil
	}
	return reply.Done.Map["ret"], nil
}

func (s *apiSession) Update(ctx context.Context, path Path, id string, fields map[string]string) error {
	words := append([]string{"=.id=" + id}, attributeWords(fields)...)
	_, err := s.run(ctx, path, "/set", words)
	return err
}

func (s *apiSession) Remove(ctx context.Context, path Path, id string) error {
	_, err := s.run(ctx, path, "/remove", []string{"=.id=" + id})
	return err
}

func (s *apiSession) Close() error {
	return s.c.Close()
}

// run sends one command sentence and waits for its reply until ctx or the
// command timeout ends. A cancelled command leaves the session unusable.
func (s *apiSession) run(ctx context.Context, path Path, command string, args []string) (*ros.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Address: s.addr, Err: err}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sentence := append([]string{string(path) + command}, args...)
	reply, err := s.c.RunArgsContext(ctx, sentence)
	if err != nil {
		return nil, classify(s.addr, path, command, err)
	}
	return reply, nil
}

// classify maps a client error to ResourceError when the device answered
// with a trap, and to ConnectionError otherwise.
func classify(addr string, path Path, command string, err error) error {
	var devErr *ros.DeviceError
	if errors.As(err, &devErr) {
		msg := err.Error()
		if devErr.Sentence != nil && devErr.Sentence.Map["message"] != "" {
			msg = devErr.Sentence.Map["message"]
		}
		return &ResourceError{Path: path, Command: command, Message: msg}
	}
	return &ConnectionError{Address: addr, Err: fmt.Errorf("%s%s: %w", path, command, err)}
}

func records(reply *ros.Reply) []Record {
	out := make([]Record, 0, len(reply.Re))
	for _, re := range reply.Re {
		r := make(Record, len(re.Map))
		for k, v := range re.Map {
			r[k] = v
		}
		out = append(out, r)
	}
	return out
}

// attributeWords renders =key=value words in key order so sentences are
// deterministic.
func attributeWords(fields map[string]string) []string {
	return sortedWords("=", fields)
}

// queryWords renders ?key=value words; multiple queries are ANDed by the
// device.
func queryWords(filter map[string]string) []string {
	return sortedWords("?", filter)
}

func sortedWords(prefix string, m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	words := make([]string, 0, len(keys))
	for _, k := range keys {
		words = append(words, prefix+k+"="+m[k])
	}
	return words
}
