package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/assets"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/input"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/provider"
)

var (
	settingsFile string
	keywordsFlag string
	catalogFlag  string
	apiKey       string
	modelFlag    string
	outputPath   string
	offlineMode  bool
	verboseMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "enrich <article-file>",
	Short: "Enrich a Markdown article with catalog media and links",
	Long: `Reads an article (Markdown, plain text or HTML), shortlists assets from
the catalog, and inserts a hero image, one context media item and two
keyword-bearing inline links. Runs against an OpenRouter model by default,
or fully offline on deterministic local selection with --offline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&settingsFile, "settings", "", "Path to YAML settings file")
	rootCmd.Flags().StringVar(&keywordsFlag, "keywords", "", "Comma-separated target keywords")
	rootCmd.Flags().StringVar(&catalogFlag, "catalog", "", "Path to the asset catalog database")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "OpenRouter API key")
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "OpenRouter model")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write enriched article here (default: stdout)")
	rootCmd.Flags().BoolVar(&offlineMode, "offline", false, "Skip LLM providers, use local selection only")
	rootCmd.Flags().BoolVarP(&verboseMode, "verbose", "v", false, "Log debug detail")
}

func run(ctx context.Context, articlePath string) error {
	level := slog.LevelWarn
	if verboseMode {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings, err := loadSettings(settingsFile)
	if err != nil {
		return err
	}
	if keywordsFlag != "" {
		settings.Keywords = nil
		for _, k := range strings.Split(keywordsFlag, ",") {
			if k = strings.TrimSpace(k); k != "" {
				settings.Keywords = append(settings.Keywords, k)
			}
		}
	}
	if len(settings.Keywords) == 0 {
		return fmt.Errorf("keywords required: use --keywords or the settings file")
	}
	if catalogFlag != "" {
		settings.Catalog = catalogFlag
	}
	if modelFlag != "" {
		settings.Model = modelFlag
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if !offlineMode && apiKey == "" {
		return fmt.Errorf("API key required: use --api-key, OPENROUTER_API_KEY, or --offline")
	}

	// Read and normalize the article.
	f, err := os.Open(articlePath)
	if err != nil {
		return err
	}
	article, err := input.ReadArticle(f, articlePath)
	f.Close()
	if err != nil {
		return err
	}

	// Shortlist catalog assets.
	cat, err := catalog.Open(settings.Catalog)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()
	if err := cat.Init(ctx); err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	images, err := cat.Images(ctx)
	if err != nil {
		return err
	}
	videos, err := cat.Videos(ctx)
	if err != nil {
		return err
	}
	links, err := cat.Links(ctx)
	if err != nil {
		return err
	}

	profile := catalog.BuildProfile(article)
	candidates := catalog.Shortlist(article, settings.Keywords, images, videos, links)
	if len(candidates.Hero) == 0 || len(candidates.Links) < 2 {
		return fmt.Errorf("catalog too thin: %d hero, %d link candidates", len(candidates.Hero), len(candidates.Links))
	}

	if settings.Probe {
		prober := assets.NewProber(8*time.Second, 8, log)
		candidates = prober.Filter(ctx, candidates)
	}

	var brandRules string
	if settings.BrandRules != "" {
		data, err := os.ReadFile(settings.BrandRules)
		if err != nil {
			return fmt.Errorf("brand rules: %w", err)
		}
		brandRules = strings.TrimSpace(string(data))
	}

	// Providers.
	fallbackSel := provider.FallbackSelector{}
	fallbackVer := provider.RuleVerifier{Threshold: settings.VerdictThreshold}
	var sel enrich.SelectionProvider = fallbackSel
	var ver enrich.VerdictProvider = fallbackVer
	if !offlineMode {
		llm := provider.NewClient(apiKey, settings.Model)
		defer llm.Close()
		sel = &provider.LLMSelector{
			Client:      llm,
			Temperature: settings.Temperature,
			Sanitize:    settings.SanitizeAnchors,
			Log:         log,
		}
		ver = &provider.LLMVerifier{
			Client:      llm,
			Temperature: settings.Temperature,
			Threshold:   settings.VerdictThreshold,
		}
	}

	enricher := enrich.New(sel, ver, fallbackSel, fallbackVer, enrich.Config{
		MaxAttempts:            settings.MaxAttempts,
		PreValidationThreshold: settings.PreValidationThreshold,
		VerdictThreshold:       settings.VerdictThreshold,
	}, log)

	enriched, report, err := enricher.Enrich(ctx, article, enrich.Inputs{
		Profile:    profile,
		Keywords:   settings.Keywords,
		Candidates: candidates,
		BrandRules: brandRules,
	})
	if err != nil {
		return err
	}

	log.Info("enrichment complete",
		"attempts", report.Attempts,
		"degraded_links", report.DegradedCount,
		"diversity_ratio", report.DiversityRatio)

	if outputPath != "" {
		return os.WriteFile(outputPath, []byte(enriched), 0o644)
	}
	fmt.Print(enriched)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
