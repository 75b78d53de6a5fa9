package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"tailscale.com/tsnet"

	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/events"
	"github.com/meltforce/ironlog/internal/mcp"
	"github.com/meltforce/ironlog/internal/server"
	"github.com/meltforce/ironlog/internal/sqlitestore"
	"github.com/meltforce/ironlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("ironlog starting", "version", Version)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, *migrateOnly, log)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if store == nil {
		log.Info("migrate-only: exiting")
		return
	}
	defer closeStore()

	pub := events.New(cfg.Events.Brokers, cfg.Events.Topic)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("event publisher close failed", "error", err)
		}
	}()
	if len(cfg.Events.Brokers) > 0 {
		log.Info("publishing events", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	}

	var tsServer *tsnet.Server
	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()
	}

	id, err := identifier(cfg, tsServer)
	if err != nil {
		log.Error("failed to set up authentication", "mode", cfg.Auth.Mode, "error", err)
		os.Exit(1)
	}

	srv := server.New(store, id, pub, log)
	mcpServer := mcp.New(mcp.NewLocal(store, srv.Sessions()), Version, log)
	srv.SetMCP(mcp.NewHTTPHandler(mcpServer))

	var listener net.Listener
	if tsServer != nil {
		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname, "auth", cfg.Auth.Mode)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "auth", cfg.Auth.Mode)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// openStore connects the configured database. With migrateOnly it applies
// migrations and returns a nil store.
func openStore(ctx context.Context, cfg *config.Config, migrateOnly bool, log *slog.Logger) (server.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		st, err := sqlitestore.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("sqlite store opened", "path", cfg.Database.Path)
		if migrateOnly {
			st.Close()
			return nil, nil, nil
		}
		return st, func() {
			if err := st.Close(); err != nil {
				log.Warn("sqlite close failed", "error", err)
			}
		}, nil
	default:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, nil, nil
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected")
		return db, db.Close, nil
	}
}

func identifier(cfg *config.Config, ts *tsnet.Server) (auth.Identifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthJWT:
		return auth.JWT(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	case config.AuthTailscale:
		if ts == nil {
			return nil, errors.New("tailscale auth requires tailscale.enabled")
		}
		lc, err := ts.LocalClient()
		if err != nil {
			return nil, fmt.Errorf("tsnet local client: %w", err)
		}
		return auth.Tailscale(lc), nil
	default:
		return auth.Dev(cfg.Auth.DevUser), nil
	}
}
