package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/crawl"
	"github.com/sells-group/enrich-cli/internal/engine"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/oracle"
	"github.com/sells-group/enrich-cli/internal/scrape"
	"github.com/sells-group/enrich-cli/internal/search"
	"github.com/sells-group/enrich-cli/internal/verify"
	anthropicpkg "github.com/sells-group/enrich-cli/pkg/anthropic"
	"github.com/sells-group/enrich-cli/pkg/googlesearch"
)

var (
	enrichDomain       string
	enrichPriority     string
	enrichForceRefresh bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run enrichment for a single domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// Search and oracle are optional; the engine degrades those stages
		// when unconfigured.
		var searchEnricher engine.SearchEnricher
		if cfg.Search.Key != "" && cfg.Search.EngineID != "" {
			client := googlesearch.NewClient(cfg.Search.Key, cfg.Search.EngineID,
				googlesearch.WithBaseURL(cfg.Search.BaseURL),
				googlesearch.WithMaxResults(cfg.Search.MaxResults),
			)
			searchEnricher = search.NewEnricher(client, cfg.Search)
		} else {
			zap.L().Warn("search key or engine id missing, search stage disabled")
		}

		var extractor engine.OracleExtractor
		if cfg.Anthropic.Key != "" {
			anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
			extractor = oracle.NewExtractor(anthropicClient, cfg.Anthropic)
		} else {
			zap.L().Warn("anthropic key missing, extraction stage disabled")
		}

		var verifier verify.EmailVerifier
		if cfg.Verify.Enabled {
			verifier = verify.NewSMTPVerifier(cfg.Verify)
		}

		eng := engine.New(st,
			crawl.NewDiscoverer(cfg.Crawl),
			scrape.NewScraper(cfg.Scrape),
			searchEnricher,
			extractor,
			verifier,
			cfg,
		)

		result := eng.EnrichCompany(ctx, model.EnrichmentRequest{
			Domain:       enrichDomain,
			Priority:     model.Priority(enrichPriority),
			ForceRefresh: enrichForceRefresh,
		})

		zap.L().Info("enrichment finished",
			zap.String("domain", result.NormalizedDomain),
			zap.String("status", string(result.Status)),
			zap.Int("progress", result.Progress),
			zap.Int64("duration_ms", result.Duration),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}
		if result.Status == model.JobStatusFailed {
			return eris.New(result.Error)
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichDomain, "domain", "", "company domain or URL (required)")
	enrichCmd.Flags().StringVar(&enrichPriority, "priority", "medium", "job priority: low, medium, high")
	enrichCmd.Flags().BoolVar(&enrichForceRefresh, "force-refresh", false, "bypass the crawl cache")
	_ = enrichCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(enrichCmd)
}
