// Package builtin holds the plugins compiled into the host binary.
package builtin

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/hearthd/hearth/internal/bus"
	"github.com/hearthd/hearth/internal/plugin"
)

// HostInfo answers host:info queries with identity and liveness data. It is
// the conventional first target for a new plugin to talk to.
func HostInfo(name string) plugin.Plugin {
	return plugin.Plugin{
		ID: "hostinfo",
		Register: func(ctx context.Context, pctx *plugin.Context) (*plugin.Capabilities, error) {
			started := time.Now()

			_, err := pctx.Subscribe("host:info", func(ctx context.Context, msg bus.Message) (bus.Response, error) {
				return bus.OK(map[string]any{
					"name":   name,
					"pid":    os.Getpid(),
					"uptime": time.Since(started).Round(time.Second).String(),
					"go":     runtime.Version(),
				}), nil
			})
			if err != nil {
				return nil, err
			}

			return &plugin.Capabilities{
				Tools: []plugin.Tool{{
					ID:          "host-info",
					Description: "Report host identity, pid, and uptime",
					MessageType: "host:info",
				}},
			}, nil
		},
	}
}

// Audit observes the given message types and logs every delivery. Meant for
// broadcast event types; on a point-to-point type its no-reply answer would
// consume the send.
func Audit(msgTypes ...string) plugin.Plugin {
	return plugin.Plugin{
		ID: "audit",
		Register: func(ctx context.Context, pctx *plugin.Context) (*plugin.Capabilities, error) {
			log := pctx.Logger()
			for _, msgType := range msgTypes {
				_, err := pctx.Subscribe(msgType, func(ctx context.Context, msg bus.Message) (bus.Response, error) {
					log.Info("message observed",
						"type", msg.Type, "source", msg.Source, "target", msg.Target, "id", msg.ID)
					return bus.NoReply(), nil
				})
				if err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	}
}
