package kernel

import (
	"context"
	"log/slog"

	"github.com/flockwave/flockd/extensions/sio"
	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/hub"
)

// sioAdapter presents App through extensions/sio's own App interface,
// the same reverse-adapter shape as SystemAdapter.
type sioAdapter struct{ app *App }

func (a sioAdapter) HubFor() *hub.Hub { return a.app.Hub }

func (a sioAdapter) RegisterChannelType(td channel.TypeDescriptor) error {
	_, err := a.app.ChannelTypes.Add(td)
	return err
}

func (a sioAdapter) AddClient(c *client.Client) error {
	_, err := a.app.Clients.Add(c)
	return err
}

func (a sioAdapter) RemoveClient(id string) { a.app.Clients.Remove(id) }

type sioExtension struct{ inner *sio.Extension }

func (s sioExtension) Name() string { return s.inner.Name() }

func (s sioExtension) Load(app *App, cfg map[string]any, logger *slog.Logger) error {
	return s.inner.Load(sioAdapter{app}, cfg, logger)
}

func (s sioExtension) Run(ctx context.Context, app *App, cfg map[string]any, logger *slog.Logger) error {
	return s.inner.Run(ctx, sioAdapter{app}, cfg, logger)
}

// RegisterSioExtension registers the WebSocket transport extension
// under its configurable name, passing it the Options of its
// Config.Extensions entry. Registering does not load it.
func RegisterSioExtension(app *App) error {
	cfg := app.Config.Extensions[sio.Name].Options
	return app.Extensions.Register(sioExtension{sio.New()}, cfg)
}
