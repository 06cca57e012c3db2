package main

import (
	"context"
	"flag"
	"net/http"

	"magenta-backend/lib/configutil"
	"magenta-backend/lib/serviceutil"
	"magenta-backend/lib/telemetry"
	"magenta-backend/services/tariffs"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	tel, err := telemetry.SetupFromEnv(ctx, "tariff-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	cfg, err := configutil.ReadConfig[tariffs.Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	port := cfg.Port
	if port == 0 {
		port = 8000
	}

	service, err := initTariffs(ctx, cfg)
	if err != nil {
		serviceutil.Fatal("init tariffs", err)
	}

	mux := http.NewServeMux()
	tariffs.RegisterRoutes(mux, service)

	go serviceutil.StartHttpServer(port, mux)
	<-ctx.Done()
}
