package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/w-h-a/reasoningbank"
	"github.com/w-h-a/reasoningbank/server"
	httpserver "github.com/w-h-a/reasoningbank/server/http"
	mcpserver "github.com/w-h-a/reasoningbank/server/mcp"
)

var version = "dev"

func main() {
	var cfg config

	_ = kong.Parse(
		&cfg,
		kong.Name("reasoningbank"),
		kong.Description("Serves reasoning memories to agents: retrieve before a task, extract after it."),
		kong.Configuration(yamlLoader),
		kong.DefaultEnvars("REASONINGBANK"),
	)

	// stdout belongs to the mcp stdio transport
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.level()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg); err != nil {
		slog.ErrorContext(ctx, "reasoningbank stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	store, err := newStorer(ctx, cfg)
	if err != nil {
		return err
	}

	embed, err := newEmbedder(cfg)
	if err != nil {
		store.Close()
		return err
	}

	generate, err := newGenerator(cfg)
	if err != nil {
		store.Close()
		return err
	}

	rank, err := newStrategy(cfg)
	if err != nil {
		store.Close()
		return err
	}

	bank, err := reasoningbank.New(
		store,
		embed,
		generate,
		rank,
		reasoningbank.WithTopK(cfg.DefaultTopK, cfg.MaxTopK),
		reasoningbank.WithMinScore(cfg.MinScore),
		reasoningbank.WithWorkers(cfg.Workers, cfg.QueueSize),
		reasoningbank.WithCallTimeout(cfg.CallTimeout),
		reasoningbank.WithMaxMemories(cfg.MaxMemories),
		reasoningbank.WithTemperatures(cfg.JudgeTemperature, cfg.ExtractTemperature),
		reasoningbank.WithDedupThreshold(cfg.DedupThreshold),
		reasoningbank.WithStrictJudge(cfg.StrictJudge),
		reasoningbank.WithModelNames(cfg.GeneratorModel, cfg.EmbedderModel),
		reasoningbank.WithTaskRetention(cfg.TaskRetention, cfg.TaskTtl),
	)
	if err != nil {
		store.Close()
		return err
	}

	slog.InfoContext(ctx, "reasoningbank starting",
		"version", version,
		"transport", cfg.Transport,
		"storage", cfg.Storage,
		"generator", cfg.Generator,
		"embedder", cfg.Embedder,
		"strategy", cfg.Strategy,
		"dimension", store.Dimension(),
	)

	srv, err := newServer(cfg, bank)
	if err == nil {
		err = srv.Run(ctx)
	}

	// drain and persist even when serving failed
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return errors.Join(err, bank.Close(shutdownCtx))
}

func newServer(cfg *config, bank *reasoningbank.Bank) (server.Server, error) {
	opts := []server.Option{
		server.WithName("reasoningbank"),
		server.WithVersion(version),
		server.WithAddress(cfg.Address),
		server.WithToolHandlers(bank.ToolHandlers()...),
	}

	if cfg.Transport == "http" {
		return httpserver.NewServer(opts...), nil
	}

	return mcpserver.NewServer(append(opts, mcpserver.WithTransport(cfg.Transport))...)
}
