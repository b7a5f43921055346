package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func newLogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
}
