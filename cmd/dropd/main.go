package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"merkledrop/config"
	"merkledrop/core/events"
	"merkledrop/core/types"
	"merkledrop/native/distribution"
	"merkledrop/observability/logging"
	"merkledrop/observability/metrics"
	"merkledrop/rpc"
	statedist "merkledrop/state/distribution"
	"merkledrop/state/token"
	"merkledrop/storage"
)

// logEmitter forwards engine events to structured logs.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{slog.String("type", evt.EventType())}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	l.logger.Info("event", args...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DROPD_ENV"))
	logger := logging.Setup("dropd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	progCfg, err := cfg.Program.DistributionConfig()
	if err != nil {
		logger.Error("Invalid program parameters", slog.Any("error", err))
		os.Exit(1)
	}
	programAccount, err := cfg.Program.Account()
	if err != nil {
		logger.Error("Invalid program account", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := statedist.NewLedger(db)
	if err != nil {
		logger.Error("Failed to build ledger", slog.Any("error", err))
		os.Exit(1)
	}
	tokenLedger, err := token.NewLedger(db, progCfg.RewardAsset, programAccount)
	if err != nil {
		logger.Error("Failed to build token ledger", slog.Any("error", err))
		os.Exit(1)
	}

	engine, err := distribution.NewEngine(progCfg)
	if err != nil {
		logger.Error("Invalid program configuration", slog.Any("error", err))
		os.Exit(1)
	}
	engine.SetState(ledger)
	engine.SetTokenLedger(tokenLedger)
	engine.SetEmitter(logEmitter{logger: logger})

	metrics.Distribution()

	server := rpc.NewServer(engine)
	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.ListenAddress))
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
