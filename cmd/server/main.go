package main

import (
	"flag"

	"blogtracker-backend/lib/configutil"
	"blogtracker-backend/lib/serviceutil"
	"blogtracker-backend/services/tracker"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[tracker.Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	service, err := tracker.NewService(cfg)
	if err != nil {
		serviceutil.Fatal("init tracker", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	tracker.RegisterRoutes(e, service)

	go serviceutil.StartHttpServer(cfg.Port, e)
	<-ctx.Done()
}
