// Package main runs the promotional agent: the sequential cycle loop, the
// reward engines and the read-only projection API. Creative generation,
// the social network client and transaction signing are external
// collaborators; without them the binary runs the full persistence,
// treasury-watch and projection surface with inert stand-ins.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-promo-agent/internal/agent"
	"solana-promo-agent/internal/alerts"
	"solana-promo-agent/internal/brain"
	"solana-promo-agent/internal/config"
	"solana-promo-agent/internal/domain"
	"solana-promo-agent/internal/logging"
	"solana-promo-agent/internal/observability"
	"solana-promo-agent/internal/reward"
	socialstub "solana-promo-agent/internal/social/stub"
	"solana-promo-agent/internal/solana"
	"solana-promo-agent/internal/storage"
	chstore "solana-promo-agent/internal/storage/clickhouse"
	"solana-promo-agent/internal/storage/memory"
	"solana-promo-agent/internal/storage/migrations"
	pgstore "solana-promo-agent/internal/storage/postgres"
	"solana-promo-agent/internal/storage/snapshot"
	"solana-promo-agent/internal/tracker"
	"solana-promo-agent/internal/treasury"
)

type allStores struct {
	campaigns  storage.CampaignStore
	rewards    storage.RewardStore
	processed  storage.ProcessedIDStore
	ledger     storage.LedgerStore
	engagement storage.EngagementTimeseriesStore // nil without ClickHouse
}

func main() {
	loadEnvFile()

	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging.Level)
	log := logging.WithComponent(logger, "main")

	observability.Init("promo_agent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("storage setup failed")
	}
	defer cleanup()

	tr := treasury.New(stores.ledger, treasury.Config{
		MaxSpendPct:     cfg.Agent.MaxSpendPct,
		MinThresholdSOL: cfg.Agent.MinThresholdSOL,
	}, logging.WithComponent(logger, "treasury"))
	if err := tr.Restore(ctx); err != nil {
		log.WithError(err).Fatal("treasury restore failed")
	}
	log.WithField("balance", tr.Balance()).Info("treasury restored from journal")

	trackerOpts := []tracker.Option{}
	if stores.engagement != nil {
		trackerOpts = append(trackerOpts, tracker.WithEngagementStore(stores.engagement))
	}
	campaigns := tracker.New(stores.campaigns, logging.WithComponent(logger, "tracker"), trackerOpts...)

	scorer := alerts.New(alerts.Config{MinScore: cfg.Alerts.MinScore}, logging.WithComponent(logger, "alerts"))

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL)

	var ws solana.WSClient
	if cfg.Solana.WSURL != "" {
		ws, err = solana.NewWSClient(ctx, cfg.Solana.WSURL, nil)
		if err != nil {
			log.WithError(err).Warn("websocket connect failed, balance refresh falls back to RPC")
			ws = nil
		}
	}

	// External collaborators are plugin points; the reference binary runs
	// with inert stand-ins and a signing-less payer.
	social := socialstub.New()
	proposer := brain.ProposerFunc(func(context.Context, brain.Input) (*domain.Proposal, error) {
		return nil, nil
	})
	var transfer solana.TransferFunc = func(context.Context, string, float64, string) (string, error) {
		return "", errors.New("transfer signing not configured")
	}
	log.Warn("running with stand-in collaborators: no proposals, mentions or payouts will be produced")

	rewardLog := logging.WithComponent(logger, "rewards")
	mention := reward.NewMentionProducer(social, social, stores.processed, stores.rewards, reward.MentionConfig{
		Amount:   cfg.Rewards.MentionAmount,
		DailyCap: cfg.Rewards.MentionDailyCap,
	}, rewardLog)
	shill := reward.NewShillProducer(social, stores.processed, reward.ShillConfig{
		Query:          cfg.Rewards.ShillQuery,
		Amount:         cfg.Rewards.ShillAmount,
		DailyCap:       cfg.Rewards.ShillDailyCap,
		MinImpressions: cfg.Rewards.ShillMinImpressions,
	}, rewardLog)

	payer := reward.PayerFunc(transfer)
	engines := []*reward.Engine{
		reward.NewEngine(mention, stores.rewards, stores.processed, tr, social, social, payer, solana.ExtractAddress, rewardLog, reward.WithCurveCheck(solana.IsOnCurve)),
		reward.NewEngine(shill, stores.rewards, stores.processed, tr, social, social, payer, solana.ExtractAddress, rewardLog, reward.WithCurveCheck(solana.IsOnCurve)),
	}

	a := agent.New(agent.Config{
		PollInterval:    cfg.Agent.PollInterval,
		MaxPerCampaign:  cfg.Agent.MaxPerCampaign,
		DedupWindow:     cfg.Agent.DedupWindow,
		TreasuryAddress: cfg.Solana.TreasuryAddress,
	}, agent.Deps{
		Treasury:      tr,
		Tracker:       campaigns,
		Proposer:      proposer,
		Router:        agent.NewRouter(),
		Engines:       engines,
		Alerts:        scorer,
		RPC:           rpc,
		WS:            ws,
		MetricsSource: social,
	}, logging.WithComponent(logger, "agent"))

	api := newAPIServer(campaigns, tr, scorer, stores.rewards, logging.WithComponent(logger, "api"))
	httpSrv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: api.routes()}
	go func() {
		log.WithField("addr", cfg.Server.ListenAddr).Info("projection API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server error")
		}
	}()

	done := make(chan error, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")
		cancel()
		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Error("graceful shutdown timed out")
			os.Exit(1)
		case <-done:
		}
	}()

	err = a.Run(ctx)
	done <- err

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if ws != nil {
		_ = ws.Close()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("agent error")
	}
	log.Info("shutdown complete")
}

// buildStores assembles the configured storage backend plus the optional
// ClickHouse engagement mirror.
func buildStores(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*allStores, func(), error) {
	stores := &allStores{}
	cleanup := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		stores.campaigns = memory.NewCampaignStore()
		stores.rewards = memory.NewRewardStore()
		stores.processed = memory.NewProcessedIDStore()
		stores.ledger = memory.NewLedgerStore()

	case "snapshot":
		dir := cfg.Storage.SnapshotDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create snapshot dir: %w", err)
		}
		var err error
		if stores.campaigns, err = snapshot.NewCampaignStore(filepath.Join(dir, "campaigns.json")); err != nil {
			return nil, nil, err
		}
		if stores.rewards, err = snapshot.NewRewardStore(filepath.Join(dir, "rewards.json")); err != nil {
			return nil, nil, err
		}
		if stores.processed, err = snapshot.NewProcessedIDStore(filepath.Join(dir, "processed.json")); err != nil {
			return nil, nil, err
		}
		if stores.ledger, err = snapshot.NewLedgerStore(filepath.Join(dir, "ledger.json")); err != nil {
			return nil, nil, err
		}

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		stores.campaigns = pgstore.NewCampaignStore(pool)
		stores.rewards = pgstore.NewRewardStore(pool)
		stores.processed = pgstore.NewProcessedIDStore(pool)
		stores.ledger = pgstore.NewLedgerStore(pool)
		cleanup = pool.Close

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.engagement = chstore.NewEngagementStore(conn)
		prev := cleanup
		cleanup = func() {
			_ = conn.Close()
			prev()
		}
		log.Info("engagement timeseries mirror enabled")
	}

	return stores, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
