package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scuttlekit-go/internal/gateway"
	"github.com/yndnr/scuttlekit-go/internal/host"
	"github.com/yndnr/scuttlekit-go/internal/infra/buildinfo"
	"github.com/yndnr/scuttlekit-go/internal/infra/confloader"
	"github.com/yndnr/scuttlekit-go/internal/infra/shutdown"
	"github.com/yndnr/scuttlekit-go/internal/server/config"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "scuttlekit-server",
		Usage:   "ScuttleKit app gateway",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"SCUTTLEKIT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "data directory holding scuttlekit/tokens.json",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port",
			},
			&cli.StringFlag{
				Name:  "feed-id",
				Usage: "feed identity of the local node",
				Value: "@scuttlekit.local",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}
}

// overrides collects the flags the user set explicitly.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("path") {
		m["path"] = c.String("path")
	}
	if c.IsSet("port") {
		m["scuttlekit.port"] = c.Int("port")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	return m
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	flagOverrides := overrides(c)

	cfg, err := config.Load(configFile, flagOverrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(config.LoggerConfig(cfg))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting scuttlekit-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile,
		"path", cfg.Path)

	node := host.NewLocal(c.String("feed-id"))

	ctx := context.Background()
	gw, err := gateway.Init(ctx, node, config.ToGateway(cfg, log, metric.Global()))
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log))

	// Hooks run in reverse: gateway first, then the node, then the watcher.
	if configFile != "" {
		stop, err := watchLogLevel(configFile, flagOverrides, log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error { return stop() })
		}
	}
	sh.OnShutdown(func(context.Context) error {
		log.Info("closing local node")
		return node.Close()
	})
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down gateway")
		return gw.Shutdown(ctx)
	})

	go func() {
		if err := gw.Serve(); err != nil {
			log.Error("gateway stopped", "error", err)
			sh.Trigger("serve failed")
		}
	}()

	if err := sh.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchLogLevel re-reads configFile on change and applies its log level.
// Other settings require a restart.
func watchLogLevel(configFile string, flagOverrides map[string]any, log logger.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(log),
		confloader.WithDebounce(200*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := config.Load(configFile, flagOverrides)
		if err != nil {
			log.Warn("ignoring config change", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}
