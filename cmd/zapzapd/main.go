package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zapzapgame/zapzap/pkg/bot"
	"github.com/zapzapgame/zapzap/pkg/config"
	"github.com/zapzapgame/zapzap/pkg/logging"
	"github.com/zapzapgame/zapzap/pkg/server"
)

func run() error {
	var (
		cfgPath    string
		dbPath     string
		debugLevel string
		seed       int64
	)
	flag.StringVar(&cfgPath, "config", "zapzap.yaml", "Path to yaml config file (missing file uses defaults)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (overrides config)")
	flag.StringVar(&debugLevel, "debuglevel", "", "Logging level: trace, debug, info, warn, error (overrides config)")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if debugLevel != "" {
		cfg.DebugLevel = debugLevel
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    cfg.LogFile,
		DebugLevel: cfg.DebugLevel,
	})
	if err != nil {
		return err
	}
	defer logBackend.Close()
	log := logBackend.Logger("ZAPD")

	db, err := server.NewDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states, err := server.NewRedisStateStore(ctx, server.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %v", err)
	}
	defer states.Close()

	srv, err := server.NewServer(server.ServerConfig{
		DB:             db,
		States:         states,
		LogBackend:     logBackend,
		Seed:           cfg.Seed,
		EventQueueSize: cfg.Events.QueueSize,
		EventWorkers:   cfg.Events.Workers,
	})
	if err != nil {
		return err
	}
	defer srv.Stop()

	coordinator := bot.NewCoordinator(bot.CoordinatorConfig{
		Engine:     srv,
		Decider:    &bot.BasicDecider{},
		Log:        logBackend.Logger("BOTC"),
		ChainDelay: cfg.Bot.ChainDelay(),
		RetryDelay: cfg.Bot.RetryDelay(),
		MaxRetries: cfg.Bot.MaxRetries,
	})
	srv.RegisterHandler(coordinator)
	defer coordinator.Stop()

	if err := srv.ResumeActiveParties(ctx); err != nil {
		log.Errorf("Failed to resume active parties: %v", err)
	}

	log.Infof("zapzapd running, db=%s redis=%s", cfg.DBPath, cfg.Redis.Addr)
	<-ctx.Done()
	log.Infof("Shutting down")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
