package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// stubPlugin is a configurable plugin for lifecycle tests.
type stubPlugin struct {
	info plugin.PluginInfo

	initErr      error
	stopErr      error
	stopDelay    time.Duration
	panicOnInit  bool
	panicOnStart bool
	panicOnStop  bool

	mu      *sync.Mutex
	stopLog *[]string
	stops   *int32
}

func newStub(name string, deps ...string) *stubPlugin {
	return &stubPlugin{
		info: plugin.PluginInfo{
			Name:         name,
			Version:      "1.0.0",
			Description:  "stub " + name,
			Dependencies: deps,
			APIVersion:   plugin.APIVersionCurrent,
		},
	}
}

// recording attaches a shared stop log.
func (p *stubPlugin) recording(mu *sync.Mutex, log *[]string) *stubPlugin {
	p.mu, p.stopLog = mu, log
	return p
}

func (p *stubPlugin) Info() plugin.PluginInfo { return p.info }

func (p *stubPlugin) Init(_ context.Context, _ plugin.Dependencies) error {
	if p.panicOnInit {
		panic("boom in Init")
	}
	return p.initErr
}

func (p *stubPlugin) Start(_ context.Context) error {
	if p.panicOnStart {
		panic("boom in Start")
	}
	return nil
}

func (p *stubPlugin) Stop(ctx context.Context) error {
	if p.stops != nil {
		atomic.AddInt32(p.stops, 1)
	}
	if p.panicOnStop {
		panic("boom in Stop")
	}
	if p.stopDelay > 0 {
		select {
		case <-time.After(p.stopDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.stopLog != nil {
		p.mu.Lock()
		*p.stopLog = append(*p.stopLog, p.info.Name)
		p.mu.Unlock()
	}
	return p.stopErr
}

type routedPlugin struct {
	*stubPlugin
	routes []plugin.Route
}

func (p *routedPlugin) Routes() []plugin.Route { return p.routes }

type subscriberPlugin struct {
	*stubPlugin
	subs []plugin.Subscription
}

func (p *subscriberPlugin) Subscriptions() []plugin.Subscription { return p.subs }

type healthyPlugin struct {
	*stubPlugin
}

func (p *healthyPlugin) Health(context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{Status: "healthy"}
}

// recordingBus records subscribed topics and unsubscribe calls.
type recordingBus struct {
	topics  []string
	unsubed int
}

func (b *recordingBus) Publish(context.Context, plugin.Event) error { return nil }
func (b *recordingBus) PublishAsync(context.Context, plugin.Event)  {}
func (b *recordingBus) Subscribe(topic string, _ plugin.EventHandler) func() {
	b.topics = append(b.topics, topic)
	return func() { b.unsubed++ }
}
func (b *recordingBus) SubscribeAll(plugin.EventHandler) func() { return func() {} }

func nopDeps(name string) plugin.Dependencies {
	return plugin.Dependencies{Logger: zap.NewNop().Named(name)}
}

// started registers plugins, validates, inits and starts them.
func started(t *testing.T, plugins ...plugin.Plugin) *Registry {
	t.Helper()
	reg := New(zap.NewNop())
	for _, p := range plugins {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Info().Name, err)
		}
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ctx := context.Background()
	if err := reg.InitAll(ctx, nopDeps); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := reg.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	return reg
}

func TestRegister(t *testing.T) {
	reg := New(zap.NewNop())
	p := newStub("devices")
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(p); err == nil {
		t.Error("duplicate Register() succeeded")
	}
	if err := reg.Register(newStub("")); err == nil {
		t.Error("Register() accepted an empty name")
	}
}

func TestValidate_orders_dependencies_first(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newStub("webhook", "ppp"))
	reg.Register(newStub("ppp", "devices"))
	reg.Register(newStub("devices"))

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	var names []string
	for _, p := range reg.All() {
		names = append(names, p.Info().Name)
	}
	want := []string{"devices", "ppp", "webhook"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestValidate_failures(t *testing.T) {
	tests := []struct {
		name    string
		plugins func() []*stubPlugin
	}{
		{"cycle", func() []*stubPlugin {
			return []*stubPlugin{newStub("a", "b"), newStub("b", "a")}
		}},
		{"required missing dependency", func() []*stubPlugin {
			p := newStub("ppp", "devices")
			p.info.Required = true
			return []*stubPlugin{p}
		}},
		{"required API too old", func() []*stubPlugin {
			p := newStub("old")
			p.info.APIVersion, p.info.Required = 0, true
			return []*stubPlugin{p}
		}},
		{"required API too new", func() []*stubPlugin {
			p := newStub("future")
			p.info.APIVersion, p.info.Required = 999, true
			return []*stubPlugin{p}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(zap.NewNop())
			for _, p := range tt.plugins() {
				reg.Register(p)
			}
			if err := reg.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestValidate_disables_optional_with_missing_dep(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newStub("webhook", "missing"))
	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reg.IsDisabled("webhook") {
		t.Error("webhook not disabled")
	}
	if _, ok := reg.Get("webhook"); ok {
		t.Error("Get returned a disabled plugin")
	}
}

func TestValidate_cascade_disable(t *testing.T) {
	devices := newStub("devices")
	devices.info.APIVersion = 0
	reg := New(zap.NewNop())
	reg.Register(devices)
	reg.Register(newStub("ppp", "devices"))

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reg.IsDisabled("devices") || !reg.IsDisabled("ppp") {
		t.Errorf("disabled: devices=%v ppp=%v, want both", reg.IsDisabled("devices"), reg.IsDisabled("ppp"))
	}
}

func TestInitAll_failures(t *testing.T) {
	tests := []struct {
		name        string
		required    bool
		setup       func(*stubPlugin)
		wantErr     bool
		wantContain string
	}{
		{"optional error disables", false, func(p *stubPlugin) { p.initErr = errors.New("nope") }, false, ""},
		{"required error fails", true, func(p *stubPlugin) { p.initErr = errors.New("nope") }, true, "nope"},
		{"optional panic disables", false, func(p *stubPlugin) { p.panicOnInit = true }, false, ""},
		{"required panic fails", true, func(p *stubPlugin) { p.panicOnInit = true }, true, "panicked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := newStub("bad")
			bad.info.Required = tt.required
			tt.setup(bad)

			reg := New(zap.NewNop())
			reg.Register(bad)
			reg.Register(newStub("good"))
			reg.Validate()

			err := reg.InitAll(context.Background(), nopDeps)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitAll() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !strings.Contains(err.Error(), tt.wantContain) {
					t.Errorf("error = %q, want it to contain %q", err, tt.wantContain)
				}
				return
			}
			if !reg.IsDisabled("bad") {
				t.Error("failing optional plugin not disabled")
			}
			if reg.IsDisabled("good") {
				t.Error("healthy plugin disabled")
			}
		})
	}
}

func TestStartAll_panic_recovery(t *testing.T) {
	t.Run("optional", func(t *testing.T) {
		bad := newStub("bad")
		bad.panicOnStart = true
		reg := started(t, bad, newStub("good"))
		if !reg.IsDisabled("bad") || reg.IsDisabled("good") {
			t.Errorf("disabled: bad=%v good=%v", reg.IsDisabled("bad"), reg.IsDisabled("good"))
		}
	})
	t.Run("required", func(t *testing.T) {
		bad := newStub("bad")
		bad.panicOnStart, bad.info.Required = true, true
		reg := New(zap.NewNop())
		reg.Register(bad)
		reg.Validate()
		reg.InitAll(context.Background(), nopDeps)

		err := reg.StartAll(context.Background())
		if err == nil || !strings.Contains(err.Error(), "panicked") {
			t.Errorf("StartAll() error = %v, want panicked", err)
		}
	})
}

func TestInitAll_wires_event_subscribers(t *testing.T) {
	p := &subscriberPlugin{
		stubPlugin: newStub("webhook"),
		subs: []plugin.Subscription{
			{Topic: "ppp.customer.created", Handler: func(context.Context, plugin.Event) {}},
			{Topic: "ppp.secret.disabled", Handler: func(context.Context, plugin.Event) {}},
		},
	}
	reg := New(zap.NewNop())
	reg.Register(p)
	reg.Validate()

	bus := &recordingBus{}
	err := reg.InitAll(context.Background(), func(name string) plugin.Dependencies {
		return plugin.Dependencies{Logger: zap.NewNop().Named(name), Bus: bus}
	})
	if err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if strings.Join(bus.topics, ",") != "ppp.customer.created,ppp.secret.disabled" {
		t.Errorf("subscribed topics = %v", bus.topics)
	}

	reg.StopAll(context.Background())
	if bus.unsubed != 2 {
		t.Errorf("unsubscribed %d handlers, want 2", bus.unsubed)
	}
}

func TestAllRoutes_and_HealthAll(t *testing.T) {
	routed := &routedPlugin{
		stubPlugin: newStub("ppp"),
		routes:     []plugin.Route{{Method: "POST", Path: "/profiles"}},
	}
	healthy := &healthyPlugin{stubPlugin: newStub("devices")}
	reg := started(t, routed, healthy, newStub("webhook"))

	routes := reg.AllRoutes()
	if len(routes) != 1 || len(routes["ppp"]) != 1 {
		t.Errorf("AllRoutes() = %v", routes)
	}

	health := reg.HealthAll(context.Background())
	if len(health) != 1 || health["devices"].Status != "healthy" {
		t.Errorf("HealthAll() = %v", health)
	}
}

func TestResolveByRole(t *testing.T) {
	ppp := newStub("ppp")
	ppp.info.Roles = []string{"reconciler"}
	reg := started(t, ppp, newStub("devices"))

	got := reg.ResolveByRole("reconciler")
	if len(got) != 1 || got[0].Info().Name != "ppp" {
		t.Errorf("ResolveByRole = %v", got)
	}
	if p, ok := reg.Resolve("devices"); !ok || p.Info().Name != "devices" {
		t.Error("Resolve(devices) failed")
	}
}

func TestStopAll_reverse_order(t *testing.T) {
	tests := []struct {
		name      string
		plugins   func(*sync.Mutex, *[]string) []plugin.Plugin
		wantFirst string
		wantLast  string
	}{
		{
			name: "chain",
			plugins: func(mu *sync.Mutex, log *[]string) []plugin.Plugin {
				return []plugin.Plugin{
					newStub("devices").recording(mu, log),
					newStub("ppp", "devices").recording(mu, log),
					newStub("webhook", "ppp").recording(mu, log),
				}
			},
			wantFirst: "webhook",
			wantLast:  "devices",
		},
		{
			name: "diamond",
			plugins: func(mu *sync.Mutex, log *[]string) []plugin.Plugin {
				return []plugin.Plugin{
					newStub("a").recording(mu, log),
					newStub("b", "a").recording(mu, log),
					newStub("c", "a").recording(mu, log),
					newStub("d", "b", "c").recording(mu, log),
				}
			},
			wantFirst: "d",
			wantLast:  "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu  sync.Mutex
				log []string
			)
			plugins := tt.plugins(&mu, &log)
			reg := started(t, plugins...)
			reg.StopAll(context.Background())

			if len(log) != len(plugins) {
				t.Fatalf("stopped %v, want %d plugins", log, len(plugins))
			}
			if log[0] != tt.wantFirst || log[len(log)-1] != tt.wantLast {
				t.Errorf("stop order = %v", log)
			}
		})
	}
}

func TestStopAll_errors_and_panics_do_not_block_others(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	failing := newStub("ppp", "devices").recording(&mu, &log)
	failing.stopErr = errors.New("ppp failed to stop")
	panicking := newStub("webhook", "ppp")
	panicking.panicOnStop = true
	reg := started(t,
		newStub("devices").recording(&mu, &log),
		failing,
		panicking,
	)

	reg.StopAll(context.Background())

	if strings.Join(log, ",") != "ppp,devices" {
		t.Errorf("stop log = %v, want [ppp devices]", log)
	}
}

func TestStopAll_honors_context_deadline(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	slow := newStub("slow").recording(&mu, &log)
	slow.stopDelay = 5 * time.Second
	reg := started(t, newStub("fast").recording(&mu, &log), slow)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	reg.StopAll(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("StopAll took %v with a 100ms deadline", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, name := range log {
		if name == "fast" {
			found = true
		}
	}
	if !found {
		t.Error("fast plugin did not stop")
	}
}

func TestStopAll_skips_disabled(t *testing.T) {
	var stops int32
	active := newStub("active")
	active.stops = &stops
	old := newStub("old")
	old.stops = &stops
	old.info.APIVersion = 0

	reg := started(t, active, old)
	reg.StopAll(context.Background())

	if stops != 1 {
		t.Errorf("stop calls = %d, want 1", stops)
	}
}

func TestStopAll_concurrent(t *testing.T) {
	var stops int32
	p := newStub("ppp")
	p.stops = &stops
	p.stopDelay = 50 * time.Millisecond
	reg := started(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.StopAll(context.Background())
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&stops); got != 3 {
		t.Errorf("stop calls = %d, want 3", got)
	}
}
