package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide logger. verbose enables debug level
// output, which also turns on resty exchange dumps where an instrument
// output has been configured.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
