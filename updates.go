package analytics

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// UpdatesListener is notified when new remote results are available.
// Implementations must be comparable; pointer receivers are the usual choice.
type UpdatesListener interface {
	OnUpdatesReceived()
}

// AddUpdatesListener registers listener once. When updates are already
// available it is notified right away.
func (c *Client) AddUpdatesListener(listener UpdatesListener) {
	c.hub.add(listener)
}

// RemoveUpdatesListener stops notifying listener.
func (c *Client) RemoveUpdatesListener(listener UpdatesListener) {
	c.hub.remove(listener)
}

const updateSignalBuffer = 64

// updateHub delivers update signals to listeners on one worker goroutine.
// Signals arriving while the buffer is full are coalesced.
type updateHub struct {
	mu        sync.RWMutex
	listeners map[UpdatesListener]struct{}

	signals     chan struct{}
	done        chan struct{}
	closed      atomic.Bool
	dispatching atomic.Bool
	wg          sync.WaitGroup
	available   func() bool
	logger      *zap.Logger
}

func newUpdateHub(available func() bool, logger *zap.Logger) *updateHub {
	h := &updateHub{
		listeners: map[UpdatesListener]struct{}{},
		signals:   make(chan struct{}, updateSignalBuffer),
		done:      make(chan struct{}),
		available: available,
		logger:    logger.Named("updates"),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *updateHub) add(listener UpdatesListener) {
	if listener == nil {
		return
	}
	h.mu.Lock()
	h.listeners[listener] = struct{}{}
	h.mu.Unlock()
	if h.available != nil && h.available() {
		h.signal()
	}
}

func (h *updateHub) remove(listener UpdatesListener) {
	if listener == nil {
		return
	}
	h.mu.Lock()
	delete(h.listeners, listener)
	h.mu.Unlock()
}

func (h *updateHub) signal() {
	if h.closed.Load() {
		return
	}
	select {
	case h.signals <- struct{}{}:
	default:
	}
}

func (h *updateHub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case <-h.signals:
			h.dispatching.Store(true)
			h.dispatch()
			h.dispatching.Store(false)
		}
	}
}

func (h *updateHub) dispatch() {
	h.mu.RLock()
	listeners := make([]UpdatesListener, 0, len(h.listeners))
	for listener := range h.listeners {
		listeners = append(listeners, listener)
	}
	h.mu.RUnlock()

	for _, listener := range listeners {
		h.notify(listener)
	}
}

func (h *updateHub) notify(listener UpdatesListener) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("updates listener panicked", zap.Any("panic", r))
		}
	}()
	listener.OnUpdatesReceived()
}

// close stops the worker. Pending signals are dropped. It does not wait for
// a dispatch in progress, so a listener may close the client it listens to.
func (h *updateHub) close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	close(h.done)
	if h.dispatching.Load() {
		return
	}
	h.wg.Wait()
}
