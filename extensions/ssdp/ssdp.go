// Package ssdp wraps internal/ssdp.Responder as a loadable extension
// (spec.md §6), so discovery is just another named entry in the
// EXTENSIONS map like every transport, rather than something the
// kernel always runs.
package ssdp

import (
	"context"
	"log/slog"

	"github.com/flockwave/flockd/internal/ssdp"
)

// Name is this extension's registry name.
const Name = "ssdp"

// App is the narrow surface this extension needs: a way to enumerate
// registered channel types and resolve their SSDP location per peer.
type App interface {
	ChannelTypeSource() ssdp.ChannelTypeSource
}

// Extension runs the SSDP multicast responder for as long as it's loaded.
type Extension struct{}

// New constructs the ssdp extension.
func New() *Extension { return &Extension{} }

// Name implements extmgr.Extension.
func (e *Extension) Name() string { return Name }

// Run listens for M-SEARCH requests until ctx is cancelled.
func (e *Extension) Run(ctx context.Context, app App, cfg map[string]any, logger *slog.Logger) error {
	token := "flockd/1.0 UPnP/1.1"
	if cfg != nil {
		if v, ok := cfg["server_token"].(string); ok && v != "" {
			token = v
		}
	}
	r := ssdp.NewResponder(app.ChannelTypeSource(), token, logger)
	return r.ListenAndServe(ctx)
}
