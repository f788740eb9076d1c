package builtin

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/hearthd/hearth/internal/bus"
	"github.com/hearthd/hearth/internal/plugin"
)

func TestHostInfo(t *testing.T) {
	b := bus.New()
	m := plugin.NewManager(b)
	if err := m.Register(HostInfo("test-host")); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if !m.IsInitialized("hostinfo") {
		t.Fatalf("hostinfo failed: %v", m.PluginError("hostinfo"))
	}

	caps := m.Capabilities("hostinfo")
	if caps == nil || len(caps.Tools) != 1 || caps.Tools[0].MessageType != "host:info" {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}

	resp := b.Send(context.Background(), "host:info", "test", nil)
	if !resp.Success {
		t.Fatalf("host:info failed: %q", resp.Error)
	}
	info, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map", resp.Data)
	}
	if info["name"] != "test-host" {
		t.Errorf("name = %v, want test-host", info["name"])
	}
	if info["pid"] == nil || info["uptime"] == nil {
		t.Errorf("missing liveness fields: %v", info)
	}
}

func TestAudit(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))

	b := bus.New()
	m := plugin.NewManager(b, plugin.WithLogger(log))
	if err := m.Register(Audit("blog:created", "blog:deleted")); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	resp := b.Send(context.Background(), "blog:created", "editor", "post-1", bus.WithBroadcast())
	if !resp.Success {
		t.Fatalf("broadcast failed: %q", resp.Error)
	}
	if !b.HasHandlers("blog:deleted") {
		t.Error("expected audit subscription on blog:deleted")
	}
	if !strings.Contains(out.String(), "message observed") {
		t.Errorf("expected audit log line, got %q", out.String())
	}
}
