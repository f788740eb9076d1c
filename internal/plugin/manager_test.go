package plugin

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hearthd/hearth/internal/bus"
)

func TestManager_Register(t *testing.T) {
	m := NewManager(bus.New())

	if err := m.Register(Plugin{ID: "blog", Register: noopRegister}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if !m.Has("blog") {
		t.Error("expected plugin registered")
	}
	if got := m.Status("blog"); got != StatusRegistered {
		t.Errorf("expected StatusRegistered, got %v", got)
	}
	if m.IsInitialized("blog") {
		t.Error("plugin must not be initialized before Initialize")
	}

	if err := m.Register(Plugin{ID: "blog", Register: noopRegister}); !errors.Is(err, ErrDuplicatePlugin) {
		t.Errorf("expected ErrDuplicatePlugin, got %v", err)
	}
	if err := m.Register(Plugin{Register: noopRegister}); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
	if err := m.Register(Plugin{ID: "x"}); !errors.Is(err, ErrNilRegister) {
		t.Errorf("expected ErrNilRegister, got %v", err)
	}
	if err := m.Register(Plugin{ID: "self", Dependencies: []string{"self"}, Register: noopRegister}); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("expected ErrDependencyCycle for self-dependency, got %v", err)
	}
}

func TestManager_Initialize_DependencyOrderedEvents(t *testing.T) {
	m := NewManager(bus.New())

	var events []string
	m.On(EventInitialized, func(ev Event) {
		events = append(events, ev.Plugin)
	})

	// Registered C, B, A; dependency order is A, B, C.
	m.Register(Plugin{ID: "c", Dependencies: []string{"b"}, Register: noopRegister})
	m.Register(Plugin{ID: "b", Dependencies: []string{"a"}, Register: noopRegister})
	m.Register(Plugin{ID: "a", Register: noopRegister})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if !slices.Equal(events, []string{"a", "b", "c"}) {
		t.Errorf("expected INITIALIZED sequence [a b c], got %v", events)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !m.IsInitialized(id) {
			t.Errorf("expected %s initialized", id)
		}
	}
}

func TestManager_Initialize_ContextExposesBusAndServices(t *testing.T) {
	b := bus.New()
	m := NewManager(b, WithService("store", "the-store"))

	var sawID string
	var sawStore any
	m.Register(Plugin{ID: "probe", Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		sawID = pctx.PluginID()
		sawStore, _ = pctx.Service("store")

		// Subscribe, then answer our own send: the context binds the
		// plugin ID as source.
		_, err := pctx.Subscribe("probe:echo", func(ctx context.Context, msg bus.Message) (bus.Response, error) {
			return bus.OK(msg.Source), nil
		})
		if err != nil {
			return nil, err
		}
		resp := pctx.Send(ctx, "probe:echo", nil)
		if !resp.Success || resp.Data != "probe" {
			return nil, errors.New("context send did not bind plugin id as source")
		}
		return nil, nil
	}})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if !m.IsInitialized("probe") {
		t.Fatalf("probe failed: %v", m.PluginError("probe"))
	}
	if sawID != "probe" {
		t.Errorf("PluginID() = %q, want probe", sawID)
	}
	if sawStore != "the-store" {
		t.Errorf("Service(store) = %v, want the-store", sawStore)
	}
}

func TestManager_Initialize_FailurePropagation(t *testing.T) {
	m := NewManager(bus.New())

	cCalled := false
	m.Register(Plugin{ID: "d", Register: noopRegister})
	m.Register(Plugin{ID: "c", Dependencies: []string{"b"}, Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		cCalled = true
		return nil, nil
	}})
	m.Register(Plugin{ID: "b", Dependencies: []string{"a"}, Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		return nil, errors.New("b is broken")
	}})
	m.Register(Plugin{ID: "a", Register: noopRegister})

	var errEvents []Event
	m.On(EventError, func(ev Event) {
		errEvents = append(errEvents, ev)
	})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() must not fail for plugin errors: %v", err)
	}

	want := map[string]Status{
		"a": StatusInitialized,
		"b": StatusError,
		"c": StatusError,
		"d": StatusInitialized,
	}
	for id, status := range want {
		if got := m.Status(id); got != status {
			t.Errorf("status(%s) = %v, want %v", id, got, status)
		}
	}
	if cCalled {
		t.Error("c's registration callback must never run when its dependency failed")
	}

	// The propagated failure is distinguishable from b's genuine one.
	if err := m.PluginError("c"); !errors.Is(err, ErrDependencyFailed) {
		t.Errorf("expected ErrDependencyFailed for c, got %v", err)
	}
	if err := m.PluginError("b"); errors.Is(err, ErrDependencyFailed) {
		t.Errorf("b's own failure must not read as propagated: %v", err)
	}

	if len(errEvents) != 2 {
		t.Fatalf("expected 2 ERROR events, got %d", len(errEvents))
	}
	for _, ev := range errEvents {
		if ev.Err == nil {
			t.Errorf("ERROR event for %s missing error", ev.Plugin)
		}
	}
}

func TestManager_Initialize_Twice(t *testing.T) {
	m := NewManager(bus.New())
	m.Register(Plugin{ID: "a", Register: noopRegister})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := m.Initialize(context.Background()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestManager_Initialize_ConfigurationErrors(t *testing.T) {
	t.Run("unknown dependency", func(t *testing.T) {
		m := NewManager(bus.New())
		m.Register(Plugin{ID: "a", Dependencies: []string{"ghost"}, Register: noopRegister})
		if err := m.Initialize(context.Background()); !errors.Is(err, ErrUnknownDependency) {
			t.Errorf("expected ErrUnknownDependency, got %v", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		m := NewManager(bus.New())
		m.Register(Plugin{ID: "a", Dependencies: []string{"b"}, Register: noopRegister})
		m.Register(Plugin{ID: "b", Dependencies: []string{"a"}, Register: noopRegister})
		if err := m.Initialize(context.Background()); !errors.Is(err, ErrDependencyCycle) {
			t.Errorf("expected ErrDependencyCycle, got %v", err)
		}
	})
}

func TestManager_Initialize_InvalidCapabilities(t *testing.T) {
	m := NewManager(bus.New())
	m.Register(Plugin{ID: "bad", Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		return &Capabilities{Tools: []Tool{{ID: ""}}}, nil
	}})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if got := m.Status("bad"); got != StatusError {
		t.Errorf("expected invalid capabilities to fail the plugin, got %v", got)
	}
	if !errors.Is(m.PluginError("bad"), ErrMissingCapabilityID) {
		t.Errorf("expected ErrMissingCapabilityID, got %v", m.PluginError("bad"))
	}
}

func TestManager_DisableEnable(t *testing.T) {
	m := NewManager(bus.New())

	registerCalls := 0
	m.Register(Plugin{ID: "toggle", Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		registerCalls++
		return nil, nil
	}})

	// Disable before initialization is an error.
	if err := m.Disable("toggle"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	var kinds []EventKind
	m.On(EventDisabled, func(ev Event) { kinds = append(kinds, ev.Kind) })
	m.On(EventEnabled, func(ev Event) { kinds = append(kinds, ev.Kind) })

	if err := m.Disable("toggle"); err != nil {
		t.Fatalf("Disable() failed: %v", err)
	}
	if m.IsInitialized("toggle") {
		t.Error("disabled plugin must not report initialized")
	}
	if got := m.Status("toggle"); got != StatusDisabled {
		t.Errorf("expected StatusDisabled, got %v", got)
	}
	if err := m.Enable("toggle"); err != nil {
		t.Fatalf("Enable() failed: %v", err)
	}
	if !m.IsInitialized("toggle") {
		t.Error("re-enabled plugin must report initialized")
	}

	if registerCalls != 1 {
		t.Errorf("registration callback ran %d times, want exactly 1", registerCalls)
	}
	if !slices.Equal(kinds, []EventKind{EventDisabled, EventEnabled}) {
		t.Errorf("expected [disabled enabled] events, got %v", kinds)
	}

	// Enable only follows disable.
	if err := m.Enable("toggle"); !errors.Is(err, ErrNotDisabled) {
		t.Errorf("expected ErrNotDisabled, got %v", err)
	}
	if err := m.Disable("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_Capabilities(t *testing.T) {
	m := NewManager(bus.New())
	m.Register(Plugin{ID: "tools", Register: func(ctx context.Context, pctx *Context) (*Capabilities, error) {
		return &Capabilities{
			Tools:    []Tool{{ID: "generate", Description: "make content", MessageType: "content:generate"}},
			Commands: []Command{{ID: "publish", Title: "Publish"}},
		}, nil
	}})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	caps := m.Capabilities("tools")
	if caps == nil {
		t.Fatal("expected capabilities recorded")
	}
	if caps.Count() != 2 {
		t.Errorf("Count() = %d, want 2", caps.Count())
	}
}

func TestManager_ListenerUnsubscribeAndPanic(t *testing.T) {
	m := NewManager(bus.New())
	m.Register(Plugin{ID: "a", Register: noopRegister})

	calls := 0
	off := m.On(EventInitialized, func(ev Event) { calls++ })
	m.On(EventInitialized, func(ev Event) { panic("listener bug") })
	off()

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("unsubscribed listener was invoked %d times", calls)
	}
	if !m.IsInitialized("a") {
		t.Error("panicking listener must not affect initialization")
	}
}
