package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
)

// Handle identifies one subscription for later cancellation. It is
// returned immediately even though the underlying subscription may not
// exist yet; this keeps cleanup bookkeeping simple for callers that
// mount before the connection is ready.
type Handle string

// Callback receives the raw payload pushed on a topic. Payloads are
// already envelope-decoded; domain decoding happens in the consumer.
type Callback func(payload json.RawMessage)

// link is the slice of Conn the registry drives. Split out so tests can
// substitute a scripted connection.
type link interface {
	Activate()
	IsConnected() bool
	OnConnect(fn func())
	handleFrames(fn func(topic string, payload json.RawMessage))
	send(frame subscribeFrame) error
	domainLabel() string
}

type subscription struct {
	handle Handle
	topic  string
	cb     Callback

	// attach bookkeeping, guarded by Registry.mu
	attached bool
	cancel   context.CancelFunc
}

// Registry maps logical topics to delivery callbacks on top of one Conn.
// Subscriptions are independent per caller: two handles on the same topic
// each produce their own subscribe frame and their own callback delivery.
// Subscribe attempts issued before the connection exists are retried on a
// fixed interval until they stick, and replayed after every reconnect.
type Registry struct {
	conn          link
	metrics       *Metrics
	log           *logrus.Entry
	retryInterval time.Duration

	mu   sync.Mutex
	subs map[Handle]*subscription
}

// NewRegistry wires a registry onto conn and takes over its inbound
// frames.
func NewRegistry(conn *Conn, metrics *Metrics) *Registry {
	return newRegistry(conn, metrics)
}

func newRegistry(conn link, metrics *Metrics) *Registry {
	r := &Registry{
		conn:          conn,
		metrics:       metrics,
		log:           logrus.WithField("domain", conn.domainLabel()),
		retryInterval: config.SubscribeRetryInterval,
		subs:          make(map[Handle]*subscription),
	}
	conn.handleFrames(r.dispatch)
	conn.OnConnect(r.resubscribeAll)
	return r
}

// Subscribe registers interest in topic and returns an opaque handle
// immediately. The subscribe frame is sent as soon as the connection
// allows; until then a cancelable retry loop polls on a fixed interval.
func (r *Registry) Subscribe(topic string, cb Callback) Handle {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		handle: Handle(uuid.NewString()),
		topic:  topic,
		cb:     cb,
		cancel: cancel,
	}

	r.mu.Lock()
	r.subs[sub.handle] = sub
	r.mu.Unlock()
	r.metrics.ActiveSubscriptions.WithLabelValues(r.conn.domainLabel()).Inc()

	// UI surfaces may subscribe before anything touched the transport.
	r.conn.Activate()

	go r.attach(ctx, sub)
	return sub.handle
}

// Unsubscribe releases a handle. No-op for unknown handles or an
// inactive connection; never returns an error. Pending retry timers for
// the handle are cleared.
func (r *Registry) Unsubscribe(h Handle) {
	r.mu.Lock()
	sub, ok := r.subs[h]
	if ok {
		delete(r.subs, h)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	sub.cancel()
	r.metrics.ActiveSubscriptions.WithLabelValues(r.conn.domainLabel()).Dec()

	// Best effort: the server drops the subscription with the connection
	// anyway if this fails.
	if err := r.conn.send(subscribeFrame{Action: "unsubscribe", ID: string(h), Topic: sub.topic}); err != nil {
		r.log.WithField("topic", sub.topic).Debug("unsubscribe frame skipped, not connected")
	}
}

// attach sends the subscribe frame once, retrying on a fixed interval
// while the connection is not ready. Exactly one live subscription is
// created per handle; replay after reconnect goes through
// resubscribeAll.
func (r *Registry) attach(ctx context.Context, sub *subscription) {
	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		if r.tryAttach(sub) {
			return
		}
		r.metrics.SubscribeRetries.WithLabelValues(r.conn.domainLabel()).Inc()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) tryAttach(sub *subscription) bool {
	r.mu.Lock()
	if sub.attached {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()

	if !r.conn.IsConnected() {
		return false
	}
	if err := r.conn.send(subscribeFrame{Action: "subscribe", ID: string(sub.handle), Topic: sub.topic}); err != nil {
		return false
	}

	r.mu.Lock()
	sub.attached = true
	r.mu.Unlock()
	r.log.WithField("topic", sub.topic).Debug("subscription attached")
	return true
}

// resubscribeAll replays every known subscription after a handshake. The
// previous socket's subscriptions died with it.
func (r *Registry) resubscribeAll() {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		frame := subscribeFrame{Action: "subscribe", ID: string(sub.handle), Topic: sub.topic}
		if err := r.conn.send(frame); err != nil {
			// The attach loop or the next reconnect picks it up.
			continue
		}
		r.mu.Lock()
		sub.attached = true
		r.mu.Unlock()
	}
}

// dispatch fans one inbound frame out to every callback registered on
// its topic. Decoding beyond the envelope is the consumer's concern.
func (r *Registry) dispatch(topic string, payload json.RawMessage) {
	r.mu.Lock()
	cbs := make([]Callback, 0, 2)
	for _, sub := range r.subs {
		if sub.topic == topic {
			cbs = append(cbs, sub.cb)
		}
	}
	r.mu.Unlock()

	for _, cb := range cbs {
		cb(payload)
	}
}
