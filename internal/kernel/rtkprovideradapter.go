package kernel

import (
	"context"
	"log/slog"

	extrtkprovider "github.com/flockwave/flockd/extensions/rtkprovider"
	"github.com/flockwave/flockd/internal/rtk"
)

type rtkProviderAdapter struct{ app *App }

func (a rtkProviderAdapter) RegeneratePresets(discovered []rtk.Preset) {
	a.app.RTKPresets.RegeneratePresets(discovered)
}

type rtkProviderExtension struct{ inner *extrtkprovider.Extension }

func (r rtkProviderExtension) Name() string { return r.inner.Name() }

func (r rtkProviderExtension) Run(ctx context.Context, app *App, cfg map[string]any, logger *slog.Logger) error {
	return r.inner.Run(ctx, rtkProviderAdapter{app}, cfg, logger)
}

// RegisterRTKProviderExtension registers the RTK preset auto-discovery
// extension, using lister/discoverer as its serial port enumeration and
// probing backends.
func RegisterRTKProviderExtension(app *App, lister rtk.PortLister, discoverer rtk.Discoverer) error {
	cfg := app.Config.Extensions[extrtkprovider.Name].Options
	return app.Extensions.Register(rtkProviderExtension{extrtkprovider.New(lister, discoverer)}, cfg)
}
