package display

import "sync"

// Container is the foreground UI surface content is rendered in.
type Container interface {
	// ShowInline renders mini content inside the container.
	ShowInline(handle Handle, state State) error
	// StartFullScreen hands takeover content to a full-screen surface, which
	// claims nothing further from the coordinator.
	StartFullScreen(handle Handle, state State) error
	SupportsFullScreen() bool
	HighlightColor() uint32
}

// Host exposes the current container, if any, and the UI thread.
type Host interface {
	CurrentContainer() (Container, bool)
	RunOnUIThread(fn func())
}

// DirectHost is a Host that runs UI work on the calling goroutine. It suits
// tests and headless programs.
type DirectHost struct {
	mu        sync.RWMutex
	container Container
}

func NewDirectHost(container Container) *DirectHost {
	return &DirectHost{container: container}
}

// SetContainer swaps the foreground container; nil means none.
func (h *DirectHost) SetContainer(container Container) {
	h.mu.Lock()
	h.container = container
	h.mu.Unlock()
}

func (h *DirectHost) CurrentContainer() (Container, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.container, h.container != nil
}

func (h *DirectHost) RunOnUIThread(fn func()) {
	fn()
}
