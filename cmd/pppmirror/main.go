package main

//	@title						pppmirror API
//	@version					0.1.0
//	@description				Mirrors MikroTik RouterOS PPP profiles, secrets and active sessions and derives billing customers.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	_ "github.com/HerbHall/pppmirror/api/swagger"
	"github.com/HerbHall/pppmirror/internal/auth"
	"github.com/HerbHall/pppmirror/internal/config"
	"github.com/HerbHall/pppmirror/internal/devices"
	"github.com/HerbHall/pppmirror/internal/event"
	"github.com/HerbHall/pppmirror/internal/ppp"
	"github.com/HerbHall/pppmirror/internal/registry"
	"github.com/HerbHall/pppmirror/internal/server"
	"github.com/HerbHall/pppmirror/internal/store"
	"github.com/HerbHall/pppmirror/internal/version"
	"github.com/HerbHall/pppmirror/internal/webhook"
	"github.com/HerbHall/pppmirror/pkg/plugin"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Println(version.Info())
			return
		case "token":
			runToken(os.Args[2:])
			return
		case "sync":
			runSync(os.Args[2:])
			return
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if err := serve(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "pppmirror: %v\n", err)
		os.Exit(1)
	}
}

// app is the wired runtime shared by serve and the one-shot subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.App
	logger *zap.Logger
	db     *store.SQLiteStore
	bus    *event.Bus
	reg    *registry.Registry
	ppp    *ppp.Module
}

// bootstrap loads configuration, opens the database, and registers,
// initializes and starts every plugin.
func bootstrap(ctx context.Context, configPath string) (*app, error) {
	v, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("component", "config"), zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults", zap.String("component", "config"))
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", cfg.Database.Path),
	)

	a := &app{
		v:      v,
		cfg:    cfg,
		logger: logger,
		db:     db,
		bus:    event.NewBus(logger.Named("event")),
		reg:    registry.New(logger.Named("registry")),
	}

	devicesMod := devices.New()
	a.ppp = ppp.New()
	for _, m := range []plugin.Plugin{devicesMod, a.ppp, webhook.New()} {
		if err := a.reg.Register(m); err != nil {
			a.close()
			return nil, fmt.Errorf("register plugin: %w", err)
		}
	}
	if err := a.reg.Validate(); err != nil {
		a.close()
		return nil, fmt.Errorf("plugin validation: %w", err)
	}

	root := config.New(v)
	if err := a.reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  root.Sub("plugins." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     a.bus,
			Plugins: a.reg,
		}
	}); err != nil {
		a.close()
		return nil, fmt.Errorf("init plugins: %w", err)
	}

	// Cross-plugin wiring happens between Init and Start.
	if s := devicesMod.Store(); s != nil {
		a.ppp.SetDeviceRegistry(&deviceRegistryAdapter{store: s})
	}

	if err := a.reg.StartAll(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("start plugins: %w", err)
	}
	return a, nil
}

// shutdown stops plugins, flushes in-flight events and closes the database.
func (a *app) shutdown(ctx context.Context) {
	a.reg.StopAll(ctx)
	if err := a.bus.Drain(ctx); err != nil {
		a.logger.Warn("event bus drain incomplete", zap.Error(err))
	}
	a.close()
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func serve(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	logger := a.logger
	logger.Info("pppmirror starting", zap.String("version", version.Short()))

	opts := server.Options{
		DevMode: a.cfg.Server.DevMode,
		Ready: func(ctx context.Context) error {
			return a.db.DB().PingContext(ctx)
		},
	}
	if a.cfg.Auth.JWTSecret != "" {
		tokens := auth.NewTokenService([]byte(a.cfg.Auth.JWTSecret), a.cfg.Auth.TokenTTL)
		opts.Auth = auth.NewGuard(tokens)
		logger.Info("API authentication enabled", zap.String("component", "auth"))
	} else {
		logger.Warn("auth.jwt_secret not set; the API is unauthenticated", zap.String("component", "auth"))
	}

	addr := a.cfg.Server.Addr()
	srv := server.New(addr, a.reg, logger, opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	logger.Info("pppmirror ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("server stopped unexpectedly", zap.Error(serveErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	a.shutdown(shutdownCtx)

	logger.Info("pppmirror stopped")
	return serveErr
}
