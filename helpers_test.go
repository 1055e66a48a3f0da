package analytics

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/display"
	"github.com/goliatone/go-analytics/pkg/props"
)

const testToken = "token-1"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *delivery.Recorder) {
	t.Helper()
	recorder := delivery.NewRecorder()
	base := []Option{
		WithQueue(recorder),
		WithIDGenerator(sequentialIDs("anon")),
		WithClock(newFakeClock().Now),
	}
	client, err := New(testToken, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, recorder
}

func lastEvent(t *testing.T, recorder *delivery.Recorder, name string) delivery.EventEnvelope {
	t.Helper()
	events := recorder.EventsNamed(name)
	if len(events) == 0 {
		t.Fatalf("expected a %q event", name)
	}
	return events[len(events)-1]
}

func stringProp(t *testing.T, p props.Properties, key string) string {
	t.Helper()
	v, ok := p.Get(key)
	if !ok {
		t.Fatalf("expected property %q in %v", key, p.Keys())
	}
	s, ok := v.AsString()
	if !ok {
		t.Fatalf("expected %q to be a string, got %s", key, v.Kind())
	}
	return s
}

func profileActions(recorder *delivery.Recorder) []string {
	var out []string
	for _, update := range recorder.ProfileUpdates() {
		out = append(out, update.Action)
	}
	return out
}

var errRender = errors.New("render failed")

type fakeContainer struct {
	mu          sync.Mutex
	inline      []display.State
	fullScreen  []display.State
	failInline  bool
	canTakeover bool
}

func (c *fakeContainer) ShowInline(_ display.Handle, s display.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failInline {
		return errRender
	}
	c.inline = append(c.inline, s)
	return nil
}

func (c *fakeContainer) StartFullScreen(_ display.Handle, s display.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullScreen = append(c.fullScreen, s)
	return nil
}

func (c *fakeContainer) SupportsFullScreen() bool {
	return c.canTakeover
}

func (c *fakeContainer) HighlightColor() uint32 {
	return 0xff336699
}

func (c *fakeContainer) shown() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inline), len(c.fullScreen)
}
