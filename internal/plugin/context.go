package plugin

import (
	"context"
	"log/slog"

	"github.com/hearthd/hearth/internal/bus"
)

// Context is handed to a plugin's registration callback. It binds the
// messaging primitives to the plugin's own identity and passes host services
// through opaquely; the kernel only requires the messaging side to exist.
type Context struct {
	pluginID string
	bus      *bus.Bus
	log      *slog.Logger
	services map[string]any
}

// PluginID returns the owning plugin's ID.
func (c *Context) PluginID() string {
	return c.pluginID
}

// Send publishes a message with the plugin's ID as source.
func (c *Context) Send(ctx context.Context, msgType string, payload any, opts ...bus.SendOption) bus.Response {
	return c.bus.Send(ctx, msgType, c.pluginID, payload, opts...)
}

// Subscribe registers a handler on the bus and returns its disposer.
func (c *Context) Subscribe(msgType string, handler bus.Handler, opts ...bus.SubscribeOption) (func(), error) {
	return c.bus.Subscribe(msgType, handler, opts...)
}

// Logger returns a logger scoped to the plugin.
func (c *Context) Logger() *slog.Logger {
	return c.log
}

// Service returns a named host service. Services are opaque capabilities
// (entity stores, job queues, daemons) layered on top of the kernel.
func (c *Context) Service(name string) (any, bool) {
	svc, ok := c.services[name]
	return svc, ok
}
