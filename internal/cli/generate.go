package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"starting5-service/internal/config"
	"starting5-service/internal/generator"
	"starting5-service/internal/generator/nbastats"
	"starting5-service/internal/generator/schools"
)

// NewGenerateCmd builds quiz record files from the stats API.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var count int
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scrape historical box scores and build quiz record files",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			slog.SetDefault(logger)

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if count == 0 {
				count = cfg.Generator.Count
			}
			if outDir == "" {
				outDir = cfg.Quiz.PreloadedDir
			}

			table, err := schools.LoadTable(cfg.Generator.SchoolsCSV)
			if err != nil {
				return err
			}

			limiter := rate.NewLimiter(rate.Limit(cfg.Generator.RequestsPerSecond), 1)
			client := nbastats.NewClient(limiter, logger)

			gen := generator.New(client, table, generator.Config{
				OutDir:      outDir,
				Count:       count,
				MaxAttempts: cfg.Generator.MaxAttempts,
				Seasons:     generator.Seasons(cfg.Generator.SeasonStart, cfg.Generator.SeasonEnd),
			}, logger)

			produced, err := gen.Run(cmd.Context())
			logger.Info("generation finished", "produced", produced)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of records to produce (overrides config)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the preloaded quiz dir)")
	return cmd
}
