package kernel

import (
	"context"
	"log/slog"

	extssdp "github.com/flockwave/flockd/extensions/ssdp"
	"github.com/flockwave/flockd/internal/ssdp"
)

type ssdpAdapter struct{ app *App }

func (a ssdpAdapter) ChannelTypeSource() ssdp.ChannelTypeSource { return a.app.ChannelTypes }

type ssdpExtension struct{ inner *extssdp.Extension }

func (s ssdpExtension) Name() string { return s.inner.Name() }

func (s ssdpExtension) Run(ctx context.Context, app *App, cfg map[string]any, logger *slog.Logger) error {
	return s.inner.Run(ctx, ssdpAdapter{app}, cfg, logger)
}

// RegisterSSDPExtension registers the SSDP discovery responder under
// its configurable name.
func RegisterSSDPExtension(app *App) error {
	cfg := app.Config.Extensions[extssdp.Name].Options
	return app.Extensions.Register(ssdpExtension{extssdp.New()}, cfg)
}
