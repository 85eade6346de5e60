package main

import (
	"context"
	"log/slog"

	"blogtracker-backend/cmd/tracker-cli/commands"
	"blogtracker-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)

	ctx := context.Background()
	_, err := telemetry.SetupFromEnv(ctx, "tracker-cli")
	if err != nil {
		slog.Warn("setup telemetry", "err", err)
	}

	commands.ExecuteContext(ctx)
}
