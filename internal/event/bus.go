// Package event is the in-process bus plugins use to announce mirror
// changes to each other and to the webhook forwarder.
package event

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pppmirror_event_deliveries_total",
		Help: "Event handler invocations by topic and outcome.",
	},
	[]string{"topic", "result"},
)

func init() {
	prometheus.MustRegister(deliveriesTotal)
}

// Bus is an in-memory plugin.EventBus.
//
// Subscribing to a topic ending in "." matches every topic with that
// prefix, so "ppp." receives all ppp events. Publish runs handlers in the
// caller's goroutine; PublishAsync runs each in its own goroutine and
// Drain waits for those.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *zap.Logger
	wg     sync.WaitGroup
}

type subscription struct {
	id      uint64
	topic   string // "" matches everything
	handler plugin.EventHandler
}

func (s subscription) matches(topic string) bool {
	switch {
	case s.topic == "":
		return true
	case strings.HasSuffix(s.topic, "."):
		return strings.HasPrefix(topic, s.topic)
	default:
		return s.topic == topic
	}
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Publish delivers event to every matching handler before returning.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, h := range b.match(event.Topic) {
		b.deliver(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers event in the background.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	for _, h := range b.match(event.Topic) {
		b.wg.Add(1)
		go func(h plugin.EventHandler) {
			defer b.wg.Done()
			b.deliver(ctx, h, event)
		}(h)
	}
}

// Subscribe registers handler for topic or, when topic ends in ".", for
// every topic with that prefix.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	return b.add(topic, handler)
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	return b.add("", handler)
}

// Drain blocks until in-flight async deliveries finish or ctx is done.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) add(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// match snapshots the handlers for topic in subscription order.
func (b *Bus) match(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []plugin.EventHandler
	for _, s := range b.subs {
		if s.matches(topic) {
			out = append(out, s.handler)
		}
	}
	return out
}

func (b *Bus) deliver(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			deliveriesTotal.WithLabelValues(event.Topic, "panic").Inc()
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
	deliveriesTotal.WithLabelValues(event.Topic, "ok").Inc()
}
