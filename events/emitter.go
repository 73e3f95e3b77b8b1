// Package events provides an in-process EventSource. Native bindings publish
// notifications with Emit and the relays in core subscribe to them.
package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-paybridge/core"
	"github.com/puzpuzpuz/xsync/v4"
)

type registration struct {
	id        uint64
	channel   string
	listener  core.Listener
	cancelled atomic.Bool
}

type subscription struct {
	emitter *Emitter
	reg     *registration
}

func (s *subscription) Cancel() {
	if s == nil || s.reg == nil {
		return
	}
	if s.reg.cancelled.Swap(true) {
		return
	}
	s.emitter.listeners.Delete(s.reg.id)
}

// Emitter delivers each notification synchronously on the emitting goroutine
// to the listeners registered on its channel, in registration order.
type Emitter struct {
	listeners *xsync.Map[uint64, *registration]
	idCounter atomic.Uint64
	closed    atomic.Bool
	logger    core.Logger
}

type Option func(*Emitter)

func WithLogger(logger core.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEmitter(opts ...Option) *Emitter {
	emitter := &Emitter{
		listeners: xsync.NewMap[uint64, *registration](),
		logger:    glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(emitter)
		}
	}
	return emitter
}

func (e *Emitter) Subscribe(channel string, listener core.Listener) (core.Subscription, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, goerrors.New("events: channel is required", goerrors.CategoryBadInput).
			WithTextCode("EVENTS_CHANNEL_REQUIRED")
	}
	if listener == nil {
		return nil, goerrors.New("events: listener is required", goerrors.CategoryBadInput).
			WithTextCode("EVENTS_LISTENER_REQUIRED")
	}
	if e.closed.Load() {
		return nil, goerrors.New("events: emitter is closed", goerrors.CategoryConflict).
			WithTextCode("EVENTS_EMITTER_CLOSED")
	}

	reg := &registration{
		id:       e.idCounter.Add(1),
		channel:  channel,
		listener: listener,
	}
	e.listeners.Store(reg.id, reg)
	return &subscription{emitter: e, reg: reg}, nil
}

// Emit returns the number of listeners the payload was delivered to. A
// listener cancelled by an earlier listener in the same delivery is skipped.
func (e *Emitter) Emit(ctx context.Context, channel string, payload map[string]any) int {
	if ctx == nil {
		ctx = context.Background()
	}
	channel = strings.TrimSpace(channel)
	delivered := 0
	for _, reg := range e.snapshot(channel) {
		if reg.cancelled.Load() {
			continue
		}
		e.deliver(ctx, reg, payload)
		delivered++
	}
	return delivered
}

func (e *Emitter) ListenerCount(channel string) int {
	return len(e.snapshot(strings.TrimSpace(channel)))
}

// Close cancels every listener and rejects further subscriptions.
func (e *Emitter) Close() {
	e.closed.Store(true)
	e.listeners.Range(func(id uint64, reg *registration) bool {
		reg.cancelled.Store(true)
		e.listeners.Delete(id)
		return true
	})
}

func (e *Emitter) snapshot(channel string) []*registration {
	regs := []*registration{}
	e.listeners.Range(func(_ uint64, reg *registration) bool {
		if reg.channel == channel && !reg.cancelled.Load() {
			regs = append(regs, reg)
		}
		return true
	})
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].id < regs[j].id
	})
	return regs
}

func (e *Emitter) deliver(ctx context.Context, reg *registration, payload map[string]any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error("event listener panicked",
				"channel", reg.channel,
				"listener_id", reg.id,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()
	reg.listener(ctx, copyPayload(payload))
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out
}

var _ core.EventSource = (*Emitter)(nil)
