// Package main is the entry point for flockd, the Flockwave server
// kernel (spec.md §1/§4.7): it loads configuration, builds the
// Application, registers the built-in transport extensions, and runs
// until an interrupt or terminate signal requests an orderly shutdown.
//
// Grounded on cmd/thane/main.go's runServe assembly order (flag parse
// -> config load -> logger reconfiguration -> component construction
// -> signal-driven shutdown) and its signal.Notify/context.WithCancel
// graceful-shutdown idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/flockwave/flockd/extensions/rtkprovider"
	"github.com/flockwave/flockd/extensions/sio"
	"github.com/flockwave/flockd/extensions/ssdp"
	"github.com/flockwave/flockd/extensions/tcp"
	"github.com/flockwave/flockd/internal/buildinfo"
	"github.com/flockwave/flockd/internal/config"
	"github.com/flockwave/flockd/internal/flog"
	"github.com/flockwave/flockd/internal/kernel"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run implements the launcher so tests can exercise it without calling
// os.Exit directly. It returns the process exit code: spec.md §6 calls
// for non-zero on configuration failure and zero on clean termination.
func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("flockd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	versionFlag := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintln(out, buildinfo.String())
		for k, v := range buildinfo.Info() {
			fmt.Fprintf(out, "  %-12s %s\n", k+":", v)
		}
		return 0
	}

	logger, err := flog.New(out, "info")
	if err != nil {
		fmt.Fprintln(out, "logger:", err)
		return 1
	}
	logger.Info("starting flockd", "version", buildinfo.String())

	cfgPath, err := config.FindConfig(*configPath)
	var cfg *config.Config
	if err != nil {
		logger.Warn("no config file found, using defaults", "error", err)
		cfg = config.Default()
	} else {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			logger.Error("failed to load config", "path", cfgPath, "error", err)
			return 1
		}
		logger.Info("config loaded", "path", cfgPath)
	}

	if cfg.LogLevel != "" {
		logger, err = flog.New(out, cfg.LogLevel)
		if err != nil {
			logger.Error("invalid log_level in config", "error", err)
			return 1
		}
	}

	app := kernel.New(cfg, logger)
	registered, err := registerTransports(app, cfg)
	if err != nil {
		logger.Error("failed to register transports", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	retries := kernel.NewRetrySupervisor()
	startErr := retries.Run(logger, func() error {
		if err := app.Start(ctx); err != nil {
			return err
		}
		return loadBuiltinTransports(app, cfg, registered)
	}, func() bool { return ctx.Err() != nil })
	if startErr != nil {
		logger.Error("failed to start", "error", startErr)
		return 1
	}

	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	<-ctx.Done()
	app.Stop()
	logger.Info("flockd stopped")
	return 0
}

// registerTransports wires the built-in websocket/TCP/SSDP transport
// extensions and the RTK preset provider extension into app's
// extension manager under their configurable names, so
// Config.Extensions can enable or configure each one, and returns the
// subset actually registered (SSDP is skipped entirely when
// Listen.EnableSSDP is false). Extensions must be registered
// before App.Start loads them.
func registerTransports(app *kernel.App, cfg *config.Config) ([]string, error) {
	var registered []string
	if err := kernel.RegisterSioExtension(app); err != nil {
		return nil, err
	}
	registered = append(registered, sio.Name)

	if err := kernel.RegisterTCPExtension(app); err != nil {
		return nil, err
	}
	registered = append(registered, tcp.Name)

	if cfg.Listen.EnableSSDP {
		if err := kernel.RegisterSSDPExtension(app); err != nil {
			return nil, err
		}
		registered = append(registered, ssdp.Name)
	}

	if err := kernel.RegisterRTKProviderExtension(app, rtkprovider.NoOpPortLister{}, rtkprovider.NoOpDiscoverer{}); err != nil {
		return nil, err
	}
	registered = append(registered, rtkprovider.Name)

	return registered, nil
}

// loadBuiltinTransports loads every registered transport, unless
// Config.Extensions explicitly disables one by name. Unlike the
// protected "system" extension, transports are ordinary extensions: an
// operator can still unload/reload them over EXT-UNLOAD/EXT-RELOAD.
func loadBuiltinTransports(app *kernel.App, cfg *config.Config, registered []string) error {
	for _, name := range registered {
		if !extensionEnabled(cfg, name) {
			continue
		}
		if _, err := app.Extensions.Load(name); err != nil {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// extensionEnabled reports whether cfg names name with an explicit
// enabled: false; absence defaults to enabled, per ExtensionConfig.IsEnabled.
func extensionEnabled(cfg *config.Config, name string) bool {
	ec, ok := cfg.Extensions[name]
	if !ok {
		return true
	}
	return ec.IsEnabled()
}
