package display

import (
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-analytics/pkg/content"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("display: another proposal is in flight")

// Handle identifies one proposal. Valid handles are positive.
type Handle int64

// Phase is the state of the current proposal.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProposed
	PhaseClaimed
)

func (p Phase) String() string {
	switch p {
	case PhaseProposed:
		return "proposed"
	case PhaseClaimed:
		return "claimed"
	default:
		return "idle"
	}
}

// Outcome is how a proposal ended.
type Outcome int

const (
	OutcomeShown Outcome = iota + 1
	OutcomeAbandoned
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShown:
		return "shown"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// State is what a proposal wants to present.
type State struct {
	Content        content.Content
	HighlightColor uint32
	DistinctID     string
	Token          string
}

// Snapshot describes the current proposal.
type Snapshot struct {
	Handle Handle
	Phase  Phase
	State  State
}

// FinishHook observes finished proposals. It runs without the coordinator
// lock held.
type FinishHook func(Handle, State, Outcome)

type proposal struct {
	handle    Handle
	state     State
	phase     Phase
	changedAt time.Time
}

// Coordinator guards the single proposal slot.
type Coordinator struct {
	mu      sync.Mutex
	current *proposal

	seq          atomic.Int64
	claimTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
	hooks        []FinishHook
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClaimTimeout lets Propose reclaim a proposal that has not changed phase
// for d. Zero keeps stale proposals until they are finished.
func WithClaimTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.claimTimeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFinishHook registers hook for finished proposals.
func WithFinishHook(hook FinishHook) Option {
	return func(c *Coordinator) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.Named("display")
	return c
}

// Propose reserves the slot for state. It fails with ErrBusy while another
// proposal is proposed or claimed.
func (c *Coordinator) Propose(state State) (Handle, error) {
	c.mu.Lock()
	var reclaimed *proposal
	if c.current != nil {
		if !c.stale(c.current) {
			c.mu.Unlock()
			return 0, ErrBusy
		}
		reclaimed = c.current
	}
	handle := Handle(c.seq.Inc())
	c.current = &proposal{
		handle:    handle,
		state:     state,
		phase:     PhaseProposed,
		changedAt: c.now(),
	}
	c.mu.Unlock()

	if reclaimed != nil {
		c.logger.Warn("reclaimed stale proposal",
			zap.Int64("handle", int64(reclaimed.handle)),
			zap.Stringer("phase", reclaimed.phase),
		)
		c.notify(reclaimed.handle, reclaimed.state, OutcomeSuperseded)
	}
	c.logger.Debug("proposed", zap.Int64("handle", int64(handle)), zap.Stringer("content", state.Content))
	return handle, nil
}

func (c *Coordinator) stale(p *proposal) bool {
	return c.claimTimeout > 0 && c.now().Sub(p.changedAt) >= c.claimTimeout
}

// Claim moves the proposal for handle to Claimed and returns its state. It
// fails when handle is not the current proposal or was already claimed.
func (c *Coordinator) Claim(handle Handle) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.handle != handle || c.current.phase != PhaseProposed {
		return State{}, false
	}
	c.current.phase = PhaseClaimed
	c.current.changedAt = c.now()
	return c.current.state, true
}

// Finish releases the slot held by handle. It reports false when handle is
// not the current proposal.
func (c *Coordinator) Finish(handle Handle, outcome Outcome) bool {
	c.mu.Lock()
	if c.current == nil || c.current.handle != handle {
		c.mu.Unlock()
		return false
	}
	finished := c.current
	c.current = nil
	c.mu.Unlock()

	c.logger.Debug("finished", zap.Int64("handle", int64(handle)), zap.Stringer("outcome", outcome))
	c.notify(finished.handle, finished.state, outcome)
	return true
}

// Pending reports whether a proposal is proposed or claimed.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Current returns the current proposal, if any.
func (c *Coordinator) Current() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Snapshot{}, false
	}
	return Snapshot{Handle: c.current.handle, Phase: c.current.phase, State: c.current.state}, true
}

func (c *Coordinator) notify(handle Handle, state State, outcome Outcome) {
	for _, hook := range c.hooks {
		hook(handle, state, outcome)
	}
}
