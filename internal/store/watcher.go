package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fishery-permit/internal/common/logger"

	"github.com/lib/pq"
)

// Broadcaster fans change signals out to every current subscriber. Watch
// subscribers hold one pending signal and miss the rest while they are busy.
// Stream subscribers receive every change in publish order.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[chan Change]struct{}
	streams map[*stream]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:    make(map[chan Change]struct{}),
		streams: make(map[*stream]struct{}),
	}
}

func (b *Broadcaster) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Stream delivers every published change without dropping any. Publish never
// blocks on it; undelivered changes queue until the reader catches up or ctx
// is done.
func (b *Broadcaster) Stream(ctx context.Context) <-chan Change {
	st := &stream{wake: make(chan struct{}, 1), out: make(chan Change)}

	b.mu.Lock()
	b.streams[st] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer close(st.out)
		defer func() {
			b.mu.Lock()
			delete(b.streams, st)
			b.mu.Unlock()
		}()
		st.run(ctx)
	}()
	return st.out
}

func (b *Broadcaster) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	for st := range b.streams {
		st.push(c)
	}
}

// Subscribers is the number of open Watch and Stream channels.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) + len(b.streams)
}

type stream struct {
	mu      sync.Mutex
	pending []Change
	wake    chan struct{}
	out     chan Change
}

func (st *stream) push(c Change) {
	st.mu.Lock()
	st.pending = append(st.pending, c)
	st.mu.Unlock()

	select {
	case st.wake <- struct{}{}:
	default:
	}
}

func (st *stream) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-st.wake:
		}

		st.mu.Lock()
		batch := st.pending
		st.pending = nil
		st.mu.Unlock()

		for _, c := range batch {
			select {
			case st.out <- c:
			case <-ctx.Done():
				return
			}
		}
	}
}

// NotificationSource is the part of *pq.Listener used by PQWatcher.
type NotificationSource interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// PQWatcher turns pg_notify messages on a channel into change signals.
type PQWatcher struct {
	source       NotificationSource
	channel      string
	pingInterval time.Duration
	logger       logger.Logger
	out          *Broadcaster
}

func NewPQWatcher(source NotificationSource, channel string, log logger.Logger) *PQWatcher {
	return &PQWatcher{
		source:       source,
		channel:      channel,
		pingInterval: 90 * time.Second,
		logger:       log.WithFields(map[string]interface{}{"component": "pq-watcher", "channel": channel}),
		out:          NewBroadcaster(),
	}
}

func (w *PQWatcher) Watch(ctx context.Context) <-chan Change {
	return w.out.Watch(ctx)
}

func (w *PQWatcher) Stream(ctx context.Context) <-chan Change {
	return w.out.Stream(ctx)
}

// Run listens until ctx is done, then closes the source.
func (w *PQWatcher) Run(ctx context.Context) error {
	if err := w.source.Listen(w.channel); err != nil {
		return err
	}
	defer w.source.Close()

	w.logger.Info("listening for application changes", nil)

	notifications := w.source.NotificationChannel()
	ping := time.NewTicker(w.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			w.out.Publish(w.decode(n))

		case <-ping.C:
			if err := w.source.Ping(); err != nil {
				w.logger.Warn("listener ping failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// decode maps a notification to a Change. pq delivers nil after a reconnect,
// when notifications may have been lost, so that becomes a RECONNECT signal.
func (w *PQWatcher) decode(n *pq.Notification) Change {
	if n == nil {
		return Change{Op: OpReconnect, At: time.Now().UTC()}
	}

	var c Change
	if err := json.Unmarshal([]byte(n.Extra), &c); err != nil || c.Op == "" {
		w.logger.Debug("unparsed notification payload", map[string]interface{}{"payload": n.Extra})
		return Change{Op: OpUpdate, At: time.Now().UTC()}
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	return c
}
