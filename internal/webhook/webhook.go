// Package webhook forwards mirror events (syncs, new customers, secrets
// disabled or enabled, device lifecycle) to an external HTTP endpoint, for
// example a billing system that bills newly discovered customers.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/devices"
	"github.com/HerbHall/pppmirror/internal/ppp"
	"github.com/HerbHall/pppmirror/internal/version"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
)

// SignatureHeader carries the hex HMAC-SHA256 of the body when a signing
// secret is configured.
const SignatureHeader = "X-PPPMirror-Signature"

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pppmirror_webhook_deliveries_total",
		Help: "Webhook deliveries by topic and result.",
	},
	[]string{"topic", "result"},
)

func init() {
	prometheus.MustRegister(deliveriesTotal)
}

// Topics forwarded by default.
var defaultTopics = []string{
	ppp.TopicProfilesSynced,
	ppp.TopicSecretsSynced,
	ppp.TopicCustomerCreated,
	ppp.TopicSecretDisabled,
	ppp.TopicSecretEnabled,
	devices.TopicDeviceCreated,
	devices.TopicDeviceDeleted,
}

// Config holds the webhook plugin configuration.
type Config struct {
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"` //nolint:gosec // G101: config field name
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
	Topics  []string      `mapstructure:"topics"`
}

// Module implements the webhook forwarder plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	client *http.Client
}

// New creates a new webhook plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "webhook",
		Version:     "0.1.0",
		Description: "Forwards PPP mirror events to a configurable webhook URL",
		Roles:       []string{"notification"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = Config{
		Timeout: 10 * time.Second,
		Enabled: true,
		Topics:  defaultTopics,
	}

	if deps.Config != nil {
		if u := deps.Config.GetString("url"); u != "" {
			m.cfg.URL = u
		}
		m.cfg.Secret = deps.Config.GetString("secret")
		if d := deps.Config.GetDuration("timeout"); d > 0 {
			m.cfg.Timeout = d
		}
		if deps.Config.IsSet("enabled") {
			m.cfg.Enabled = deps.Config.GetBool("enabled")
		}
		if deps.Config.IsSet("topics") {
			var c Config
			if err := deps.Config.Unmarshal(&c); err != nil {
				return fmt.Errorf("webhook config: %w", err)
			}
			if len(c.Topics) > 0 {
				m.cfg.Topics = c.Topics
			}
		}
	}

	m.client = &http.Client{Timeout: m.cfg.Timeout}

	if m.cfg.URL == "" {
		m.logger.Warn("webhook URL not configured; events will be dropped")
	}

	m.logger.Info("webhook module initialized",
		zap.String("url", m.cfg.URL),
		zap.Duration("timeout", m.cfg.Timeout),
		zap.Bool("enabled", m.cfg.Enabled),
		zap.Bool("signed", m.cfg.Secret != ""),
		zap.Strings("topics", m.cfg.Topics),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.URL == "" {
		return nil
	}
	u, err := url.Parse(m.cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook url: unsupported scheme %q", u.Scheme)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	subs := make([]plugin.Subscription, 0, len(m.cfg.Topics))
	for _, topic := range m.cfg.Topics {
		subs = append(subs, plugin.Subscription{Topic: topic, Handler: m.handleEvent})
	}
	return subs
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string `json:"event"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func (m *Module) handleEvent(ctx context.Context, event plugin.Event) {
	if !m.cfg.Enabled || m.cfg.URL == "" {
		deliveriesTotal.WithLabelValues(event.Topic, "skipped").Inc()
		return
	}

	body, err := json.Marshal(Payload{
		Event:     event.Topic,
		Source:    event.Source,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Data:      event.Payload,
	})
	if err != nil {
		m.logger.Error("failed to marshal webhook payload",
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		deliveriesTotal.WithLabelValues(event.Topic, "error").Inc()
		return
	}

	result := "ok"
	if err := m.send(ctx, body); err != nil {
		m.logger.Warn("webhook delivery failed",
			zap.String("url", m.cfg.URL),
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		result = "error"
	}
	deliveriesTotal.WithLabelValues(event.Topic, result).Inc()
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *Module) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pppmirror-webhook/"+version.Short())
	if m.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(m.cfg.Secret, body))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	m.logger.Debug("webhook delivered", zap.Int("status_code", resp.StatusCode))
	return nil
}
