package routeros

import (
	"context"
	"fmt"

	"github.com/HerbHall/pppmirror/pkg/models"
)

// Client decodes RouterOS records into pppmirror models.
type Client struct {
	s Session
}

// NewClient wraps an open session. Closing the Client closes the session.
func NewClient(s Session) *Client {
	return &Client{s: s}
}

// Close ends the underlying session.
func (c *Client) Close() error {
	return c.s.Close()
}

// UnknownIdentity is reported for a device that answers but has no
// identity set.
const UnknownIdentity = "Unknown"

// Identity returns the device's configured system identity, or
// UnknownIdentity when the reply carries none.
func (c *Client) Identity(ctx context.Context) (string, error) {
	recs, err := c.s.List(ctx, PathIdentity)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return UnknownIdentity, nil
	}
	return valueOr(recs[0], "name", UnknownIdentity), nil
}

// Resource returns uptime, load, memory and version information.
// Identity is left empty.
func (c *Client) Resource(ctx context.Context) (models.SystemStatus, error) {
	recs, err := c.s.List(ctx, PathResource)
	if err != nil {
		return models.SystemStatus{}, err
	}
	if len(recs) == 0 {
		return models.SystemStatus{}, &ResourceError{Path: PathResource, Command: "/print", Message: "empty reply"}
	}
	r := recs[0]
	return models.SystemStatus{
		Uptime:      r["uptime"],
		CPULoad:     valueOr(r, "cpu-load", "0"),
		FreeMemory:  valueOr(r, "free-memory", "0"),
		TotalMemory: valueOr(r, "total-memory", "0"),
		Version:     r["version"],
		BoardName:   r["board-name"],
	}, nil
}

// Profiles lists every PPP profile. Only device-side fields are populated.
func (c *Client) Profiles(ctx context.Context) ([]models.Profile, error) {
	recs, err := c.s.List(ctx, PathProfile)
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(recs))
	for _, r := range recs {
		out = append(out, decodeProfile(r))
	}
	return out, nil
}

// Secrets lists every PPP secret. Passwords are not decoded.
func (c *Client) Secrets(ctx context.Context) ([]models.Secret, error) {
	recs, err := c.s.List(ctx, PathSecret)
	if err != nil {
		return nil, err
	}
	out := make([]models.Secret, 0, len(recs))
	for _, r := range recs {
		out = append(out, decodeSecret(r))
	}
	return out, nil
}

// FindSecret looks a secret up by name. found is false when the device has
// no such secret.
func (c *Client) FindSecret(ctx context.Context, name string) (secret models.Secret, found bool, err error) {
	recs, err := c.s.Find(ctx, PathSecret, map[string]string{"name": name})
	if err != nil {
		return models.Secret{}, false, err
	}
	if len(recs) == 0 {
		return models.Secret{}, false, nil
	}
	return decodeSecret(recs[0]), true, nil
}

// NewSecret is the set of attributes accepted when adding a secret.
type NewSecret struct {
	Name          string
	Password      string //nolint:gosec // G101: PPP secret password
	Service       string
	Profile       string
	LocalAddress  string
	RemoteAddress string
	Comment       string
	Disabled      bool
}

// AddSecret creates a secret and returns its device-side id.
func (c *Client) AddSecret(ctx context.Context, s NewSecret) (string, error) {
	fields := map[string]string{
		"name":     s.Name,
		"password": s.Password,
		"disabled": formatBool(s.Disabled),
	}
	setIf(fields, "service", s.Service)
	setIf(fields, "profile", s.Profile)
	setIf(fields, "local-address", s.LocalAddress)
	setIf(fields, "remote-address", s.RemoteAddress)
	setIf(fields, "comment", s.Comment)
	return c.s.Add(ctx, PathSecret, fields)
}

// SecretChange lists the attributes to change on an existing secret. Nil
// fields are left alone.
type SecretChange struct {
	Password *string
	Profile  *string
	Disabled *bool
}

// Empty reports whether the change sets nothing.
func (sc SecretChange) Empty() bool {
	return sc.Password == nil && sc.Profile == nil && sc.Disabled == nil
}

// UpdateSecret applies change to the secret with the given device-side id.
func (c *Client) UpdateSecret(ctx context.Context, id string, change SecretChange) error {
	fields := map[string]string{}
	if change.Password != nil {
		fields["password"] = *change.Password
	}
	if change.Profile != nil {
		fields["profile"] = *change.Profile
	}
	if change.Disabled != nil {
		fields["disabled"] = formatBool(*change.Disabled)
	}
	if len(fields) == 0 {
		return nil
	}
	return c.s.Update(ctx, PathSecret, id, fields)
}

// SetSecretDisabled flips the disabled flag of one secret.
func (c *Client) SetSecretDisabled(ctx context.Context, id string, disabled bool) error {
	return c.UpdateSecret(ctx, id, SecretChange{Disabled: &disabled})
}

// ActiveSessions lists live PPP connections, all of them when name is empty.
func (c *Client) ActiveSessions(ctx context.Context, name string) ([]models.ActiveSession, error) {
	var (
		recs []Record
		err  error
	)
	if name == "" {
		recs, err = c.s.List(ctx, PathActive)
	} else {
		recs, err = c.s.Find(ctx, PathActive, map[string]string{"name": name})
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.ActiveSession, 0, len(recs))
	for _, r := range recs {
		service := r["service"]
		if service == "" {
			service = "pppoe"
		}
		out = append(out, models.ActiveSession{
			ID:       r[".id"],
			Name:     r["name"],
			Service:  service,
			CallerID: r["caller-id"],
			Address:  r["address"],
			Uptime:   r["uptime"],
		})
	}
	return out, nil
}

// RemoveActive disconnects one active session.
func (c *Client) RemoveActive(ctx context.Context, id string) error {
	if err := c.s.Remove(ctx, PathActive, id); err != nil {
		return fmt.Errorf("disconnect %s: %w", id, err)
	}
	return nil
}

func decodeProfile(r Record) models.Profile {
	return models.Profile{
		NativeID:      r[".id"],
		Name:          r["name"],
		LocalAddress:  r["local-address"],
		RemoteAddress: r["remote-address"],
		RateLimit:     r["rate-limit"],
	}
}

func decodeSecret(r Record) models.Secret {
	profile := r["profile"]
	if profile == "" {
		profile = models.DefaultProfileName
	}
	return models.Secret{
		NativeID:      r[".id"],
		Name:          r["name"],
		Profile:       profile,
		LocalAddress:  r["local-address"],
		RemoteAddress: r["remote-address"],
		Comment:       r["comment"],
		Disabled:      parseBool(r["disabled"]),
	}
}

// parseBool accepts both spellings RouterOS uses for booleans.
func parseBool(s string) bool {
	return s == "true" || s == "yes"
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func valueOr(r Record, key, fallback string) string {
	if v, ok := r[key]; ok && v != "" {
		return v
	}
	return fallback
}

func setIf(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
