package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hearthd/hearth/internal/bus"
)

// Manager owns the plugin registry: it resolves inter-plugin dependencies,
// drives the one-shot registration sequence, tracks per-plugin status, and
// isolates failures so a broken plugin cannot take down plugins that do not
// depend on it.
//
// The manager is constructed with an explicit bus reference; plugins get the
// bus through their registration context and never through a shared accessor.
type Manager struct {
	mu sync.RWMutex

	bus      *bus.Bus
	log      *slog.Logger
	services map[string]any

	plugins    map[string]Plugin
	registered []string // registration order, for deterministic topo ties
	status     map[string]Status
	failures   map[string]error
	caps       map[string]*Capabilities

	initialized bool

	notifier
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger. Plugin contexts derive theirs from it.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithService exposes a named host service to every plugin context.
func WithService(name string, svc any) ManagerOption {
	return func(m *Manager) {
		m.services[name] = svc
	}
}

// NewManager creates a plugin manager bound to the given bus.
func NewManager(b *bus.Bus, opts ...ManagerOption) *Manager {
	m := &Manager{
		bus:      b,
		log:      slog.Default(),
		services: make(map[string]any),
		plugins:  make(map[string]Plugin),
		status:   make(map[string]Status),
		failures: make(map[string]error),
		caps:     make(map[string]*Capabilities),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register stores a plugin and marks it registered. Pure bookkeeping: the
// plugin's callback does not run until Initialize. Duplicate IDs and invalid
// records are configuration errors.
func (m *Manager) Register(p Plugin) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[p.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, p.ID)
	}

	m.plugins[p.ID] = p
	m.registered = append(m.registered, p.ID)
	m.status[p.ID] = StatusRegistered
	return nil
}

// Initialize walks the dependency graph in topological order and runs each
// plugin's registration callback exactly once. One plugin's failure never
// aborts the loop; it propagates only to the plugins that depend on it.
//
// Initialize returns an error only for configuration problems (dependency on
// an unregistered ID, dependency cycle, repeated Initialize call). Individual
// plugin failures surface through statuses and ERROR events.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}

	order, err := initOrder(m.plugins, m.registered)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.initialized = true
	m.mu.Unlock()

	for _, id := range order {
		m.initializeOne(ctx, id)
	}

	m.log.Info("plugin initialization complete",
		"total", len(order), "failed", len(m.Errors()))
	return nil
}

// initializeOne brings up a single plugin, assuming every plugin earlier in
// the topological order has already been processed.
func (m *Manager) initializeOne(ctx context.Context, id string) {
	m.mu.RLock()
	p := m.plugins[id]
	var failedDeps []string
	for _, dep := range p.Dependencies {
		if m.status[dep] != StatusInitialized {
			failedDeps = append(failedDeps, dep)
		}
	}
	m.mu.RUnlock()

	// Propagated failure: the callback never runs, and the recorded error
	// says so, distinguishable from a genuine registration-time failure.
	if len(failedDeps) > 0 {
		err := fmt.Errorf("%w: %s", ErrDependencyFailed, strings.Join(failedDeps, ", "))
		m.fail(id, err)
		return
	}

	pctx := &Context{
		pluginID: id,
		bus:      m.bus,
		log:      m.log.With("plugin", id),
		services: m.services,
	}

	caps, err := p.Register(ctx, pctx)
	if err != nil {
		m.fail(id, fmt.Errorf("registration failed: %w", err))
		return
	}
	if err := caps.Validate(); err != nil {
		m.fail(id, fmt.Errorf("invalid capabilities: %w", err))
		return
	}

	m.mu.Lock()
	m.status[id] = StatusInitialized
	m.caps[id] = caps
	m.mu.Unlock()

	m.log.Debug("plugin initialized", "plugin", id, "capabilities", caps.Count())
	m.emit(Event{Kind: EventInitialized, Plugin: id})
}

// fail records a plugin failure and emits the ERROR event outside the lock.
func (m *Manager) fail(id string, err error) {
	m.mu.Lock()
	m.status[id] = StatusError
	m.failures[id] = err
	m.mu.Unlock()

	m.log.Warn("plugin failed", "plugin", id, "error", err)
	m.emit(Event{Kind: EventError, Plugin: id, Err: err})
}

// Status returns the plugin's current status, or StatusUnknown if no plugin
// with the ID is registered.
func (m *Manager) Status(id string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[id]
}

// Has reports whether a plugin with the ID is registered.
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[id]
	return ok
}

// IsInitialized reports whether the plugin is currently initialized.
// Disabled plugins are not initialized until re-enabled.
func (m *Manager) IsInitialized(id string) bool {
	return m.Status(id) == StatusInitialized
}

// Disable takes an initialized plugin out of service. Its registration
// record and capabilities remain; only availability is toggled.
func (m *Manager) Disable(id string) error {
	m.mu.Lock()
	if _, ok := m.plugins[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPluginNotFound, id)
	}
	if m.status[id] != StatusInitialized {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q is %s", ErrNotInitialized, id, m.status[id])
	}
	m.status[id] = StatusDisabled
	m.mu.Unlock()

	m.emit(Event{Kind: EventDisabled, Plugin: id})
	return nil
}

// Enable returns a disabled plugin to service without re-running its
// registration callback.
func (m *Manager) Enable(id string) error {
	m.mu.Lock()
	if _, ok := m.plugins[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPluginNotFound, id)
	}
	if m.status[id] != StatusDisabled {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q is %s", ErrNotDisabled, id, m.status[id])
	}
	m.status[id] = StatusInitialized
	m.mu.Unlock()

	m.emit(Event{Kind: EventEnabled, Plugin: id})
	return nil
}

// On registers a lifecycle listener for one event kind and returns an
// unsubscribe function. This observer is the only externally visible signal
// of plugin health.
func (m *Manager) On(kind EventKind, fn Listener) func() {
	return m.on(kind, fn)
}

// Capabilities returns the validated capabilities a plugin registered,
// or nil if it has none or is not initialized.
func (m *Manager) Capabilities(id string) *Capabilities {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.caps[id]
}

// PluginError returns the recorded failure for a plugin in error status.
func (m *Manager) PluginError(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures[id]
}

// Errors returns every plugin currently in error status with its failure.
func (m *Manager) Errors() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errs := make(map[string]error, len(m.failures))
	for id, err := range m.failures {
		errs[id] = err
	}
	return errs
}

// Count returns the number of registered plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// IDs returns plugin IDs in registration order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.registered...)
}
