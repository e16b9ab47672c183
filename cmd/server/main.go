package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/api"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/assets"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/config"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/pipeline"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/provider"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.LoadBrandRules(); err != nil {
		log.Error("brand rules load failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Asset catalog.
	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Error("catalog open failed", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	if err := cat.Init(ctx); err != nil {
		log.Error("catalog init failed", "error", err)
		os.Exit(1)
	}

	var prober *assets.Prober
	if cfg.ProbeEnabled {
		prober = assets.NewProber(cfg.ProbeTimeout, cfg.ProbeConcurrency, log)
	}

	// Providers. Offline runs entirely on the local fallbacks.
	fallbackSel := provider.FallbackSelector{}
	fallbackVer := provider.RuleVerifier{Threshold: cfg.VerdictThreshold}

	var llm *provider.Client
	var sel enrich.SelectionProvider = fallbackSel
	var ver enrich.VerdictProvider = fallbackVer
	if !cfg.Offline {
		llm = provider.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
		sel = &provider.LLMSelector{
			Client:      llm,
			Temperature: cfg.Temperature,
			Sanitize:    cfg.SanitizeAnchors,
			Log:         log,
		}
		ver = &provider.LLMVerifier{
			Client:      llm,
			Temperature: cfg.Temperature,
			Threshold:   cfg.VerdictThreshold,
		}
	}

	enricher := enrich.New(sel, ver, fallbackSel, fallbackVer, enrich.Config{
		MaxAttempts:            cfg.MaxAttempts,
		PreValidationThreshold: cfg.PreValidationThreshold,
		VerdictThreshold:       cfg.VerdictThreshold,
	}, log)

	// Pipeline.
	orch := pipeline.NewOrchestrator(cfg, enricher, cat, prober, log)
	orch.Start(ctx)

	// HTTP server.
	srv := api.NewServer(orch, llm, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if llm != nil {
			llm.Close()
		}
		cat.Close()
	}()

	log.Info("starting enrichment service", "port", cfg.Port, "offline", cfg.Offline)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
