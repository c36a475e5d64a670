// Command server runs the engine as a standalone HTTP and websocket service,
// optionally bridged onto NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/config"
	"flip/internal/logging"
	"flip/internal/ports"
	"flip/internal/ports/httpapi"
	"flip/internal/ports/natsbus"

	"github.com/gin-gonic/gin"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	base, err := logging.NewProduction(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer base.Sync()

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := run(*configPath, logging.New(base)); err != nil {
		base.Fatal("server stopped", zap.Error(err))
	}
}

func run(configPath string, logger runtime.Logger) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(environ()); err != nil {
		return err
	}
	botOpts, err := bot.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := ports.MultiResultSink{ports.LoggingResultSink{Logger: logger}}
	var nc *nats.Conn
	if cfg.Server.NatsURL != "" {
		nc, err = natsbus.Connect(cfg.Server.NatsURL, "flip-server")
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer nc.Drain()
		sinks = append(sinks, natsbus.NewResultPublisher(nc, natsbus.Subjects{Prefix: cfg.Server.NatsSubject}))
	}

	registry := app.NewRegistry(cfg, logger, app.WithResultSink(sinks))
	if nc != nil {
		bridge := natsbus.NewBridge(ctx, nc, registry, cfg.Server.NatsSubject, botOpts, logger)
		if err := bridge.Start(); err != nil {
			registry.Close()
			return err
		}
		// Closing the registry ends every mirror, so the bridge can drain.
		defer bridge.Close()
	}
	defer registry.Close()

	api := httpapi.NewServer(ctx, registry, httpapi.Options{
		Tokens:   app.NewTokenService(cfg.Server.TokenSecret, cfg.Server.TokenIssuer, cfg.TokenTTL()),
		Bots:     botOpts,
		LobbyKey: cfg.Server.LobbyKey,
	}, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// environ returns the process environment as a map for config.ApplyEnv.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
