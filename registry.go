package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-analytics/pkg/display"
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
	"go.uber.org/zap"
)

// Registry owns the clients of a process. Clients created through one
// Registry share its Storage, its referrer properties and one display
// coordinator, so at most one piece of content is presented at a time.
//
// A Registry is created at process start and closed at shutdown; callers
// receive it explicitly rather than through a package-level instance.
type Registry struct {
	mu      sync.Mutex
	clients map[instanceKey]*Client
	order   []instanceKey
	closed  bool

	storage     Storage
	coordinator *display.Coordinator
	logger      *zap.Logger
	defaults    []Option
}

type instanceKey struct {
	token string
	name  string
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	storage            Storage
	logger             *zap.Logger
	coordinatorOptions []display.Option
	defaults           []Option
}

// WithRegistryStorage sets the Storage shared by every client.
func WithRegistryStorage(storage Storage) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.storage = storage
	}
}

func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(cfg *registryConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithCoordinatorOptions configures the shared display coordinator.
func WithCoordinatorOptions(opts ...display.Option) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.coordinatorOptions = append(cfg.coordinatorOptions, opts...)
	}
}

// WithDefaultOptions are applied to every client before the options given
// to Instance.
func WithDefaultOptions(opts ...Option) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.defaults = append(cfg.defaults, opts...)
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Registry{
		clients:  map[instanceKey]*Client{},
		storage:  cfg.storage.withDefaults(),
		logger:   cfg.logger,
		defaults: cfg.defaults,
	}
	coordinatorOptions := append([]display.Option{
		display.WithLogger(cfg.logger),
		display.WithFinishHook(r.onDisplayFinished),
	}, cfg.coordinatorOptions...)
	r.coordinator = display.NewCoordinator(coordinatorOptions...)
	return r
}

// Instance returns the client for (token, instanceName), creating it on
// first use. opts only apply when the client is created.
func (r *Registry) Instance(token, instanceName string, opts ...Option) (*Client, error) {
	key := instanceKey{token: token, name: instanceName}

	r.mu.Lock()
	client, ok := r.clients[key]
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return client, nil
	}

	all := make([]Option, 0, len(r.defaults)+len(opts)+4)
	all = append(all, WithLogger(r.logger))
	all = append(all, r.defaults...)
	all = append(all, opts...)
	all = append(all,
		WithStorage(r.storage),
		WithCoordinator(r.coordinator),
		WithInstanceName(instanceName),
	)
	// New tracks lifecycle events that may finish a proposal, so it runs
	// without r.mu held.
	created, err := New(token, all...)
	if err != nil {
		return nil, fmt.Errorf("analytics: instance %q: %w", instanceName, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		created.Close()
		return nil, ErrClosed
	}
	if existing, ok := r.clients[key]; ok {
		r.mu.Unlock()
		created.Close()
		return existing, nil
	}
	r.clients[key] = created
	r.order = append(r.order, key)
	r.mu.Unlock()
	return created, nil
}

// Each calls fn for every client in creation order.
func (r *Registry) Each(fn func(*Client)) {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.order))
	for _, key := range r.order {
		clients = append(clients, r.clients[key])
	}
	r.mu.Unlock()

	for _, client := range clients {
		fn(client)
	}
}

// Coordinator returns the display coordinator shared by the clients.
func (r *Registry) Coordinator() *display.Coordinator {
	return r.coordinator
}

// SetReferrerProperties replaces the referrer properties seen by every
// client.
func (r *Registry) SetReferrerProperties(properties props.Properties) error {
	_, _, err := state.Mutate(context.Background(), r.storage.Properties, state.Global(domainReferrer), func(p *props.Properties) error {
		*p = properties.Clone()
		return nil
	})
	return err
}

// Close closes every client. Instance fails afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	clients := make([]*Client, 0, len(r.order))
	for _, key := range r.order {
		clients = append(clients, r.clients[key])
	}
	r.mu.Unlock()

	var errs []error
	for _, client := range clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// onDisplayFinished routes finished proposals to the first client of the
// proposing token.
func (r *Registry) onDisplayFinished(handle display.Handle, s display.State, outcome display.Outcome) {
	var target *Client
	r.Each(func(c *Client) {
		if target == nil && c.token == s.Token {
			target = c
		}
	})
	if target == nil {
		r.logger.Named("registry").Warn("finished proposal without client", zap.String("token", s.Token))
		return
	}
	target.onDisplayFinished(handle, s, outcome)
}
