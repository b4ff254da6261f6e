package kernel

import (
	"context"
	"log/slog"

	"github.com/flockwave/flockd/extensions/tcp"
	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/hub"
)

type tcpAdapter struct{ app *App }

func (a tcpAdapter) HubFor() *hub.Hub { return a.app.Hub }

func (a tcpAdapter) RegisterChannelType(td channel.TypeDescriptor) error {
	_, err := a.app.ChannelTypes.Add(td)
	return err
}

func (a tcpAdapter) AddClient(c *client.Client) error {
	_, err := a.app.Clients.Add(c)
	return err
}

func (a tcpAdapter) RemoveClient(id string) { a.app.Clients.Remove(id) }

type tcpExtension struct{ inner *tcp.Extension }

func (t tcpExtension) Name() string { return t.inner.Name() }

func (t tcpExtension) Load(app *App, cfg map[string]any, logger *slog.Logger) error {
	return t.inner.Load(tcpAdapter{app}, cfg, logger)
}

func (t tcpExtension) Run(ctx context.Context, app *App, cfg map[string]any, logger *slog.Logger) error {
	return t.inner.Run(ctx, tcpAdapter{app}, cfg, logger)
}

// RegisterTCPExtension registers the raw TCP transport extension under
// its configurable name.
func RegisterTCPExtension(app *App) error {
	cfg := app.Config.Extensions[tcp.Name].Options
	return app.Extensions.Register(tcpExtension{tcp.New()}, cfg)
}
