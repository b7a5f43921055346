package cli

import (
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"github.com/spf13/cobra"
	"starting5-service/internal/config"
	"starting5-service/internal/infra/quizfile"
)

// NewRotateCmd promotes a preloaded quiz record into the current slot.
// Intended to run once a day from cron.
func NewRotateCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Promote a preloaded quiz record to the current slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			slog.SetDefault(logger)

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store := quizfile.NewStore(cfg.Quiz.CurrentDir, cfg.Quiz.PreloadedDir, cfg.Quiz.ConferencesPath)

			path := file
			if path == "" {
				candidates, err := store.Preloaded()
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					return fmt.Errorf("no preloaded quiz records in %s", cfg.Quiz.PreloadedDir)
				}
				path = candidates[rand.Intn(len(candidates))]
			}

			if err := store.Promote(path); err != nil {
				return err
			}
			logger.Info("promoted quiz record", "record", filepath.Base(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "specific record to promote (defaults to a random preloaded one)")
	return cmd
}
