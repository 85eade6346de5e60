package main

import (
	"context"
	"log/slog"

	"blogtracker-backend/lib/restyutil"
	"blogtracker-backend/lib/scrapers/naverblog"
	"blogtracker-backend/lib/scrapers/naverrss"
	"blogtracker-backend/lib/scrapers/naversearch"
	"blogtracker-backend/lib/serviceutil"
	"blogtracker-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	naverblog.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/naverblog"),
	)
	naversearch.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/naversearch"),
	)
	naverrss.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/naverrss"),
	)
}
