package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/config"
	"flip/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	cfg := config.Default()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if err := cfg.ApplyEnv(env); err != nil {
			return fmt.Errorf("invalid flip configuration: %w", err)
		}
	}

	botOpts, err := bot.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	sink := ports.MultiResultSink{
		ports.LoggingResultSink{Logger: logger},
		NewStorageResultSink(nk),
	}
	m := &Module{
		Registry: app.NewRegistry(cfg, logger, app.WithResultSink(sink)),
		Bots:     botOpts,
		logger:   logger,
	}
	if err := m.Register(initializer); err != nil {
		return err
	}

	logger.Info("flip Go module loaded.")
	return nil
}

// Register adds the module's RPCs and match handler to initializer.
func (m *Module) Register(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateGame:    m.RpcCreateGame,
		RpcSubmitCommand: m.RpcSubmitCommand,
		RpcGetView:       m.RpcGetView,
		RpcListGames:     m.RpcListGames,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("failed to register rpc %s: %w", id, err)
		}
	}
	return initializer.RegisterMatch(MatchNameSession, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{registry: m.Registry}, nil
	})
}
