package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dezhurka/internal/app"
	"github.com/shrimpsizemoose/dezhurka/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	mux := handlers.NewDeductionHandler(service).Routes()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting dezhurka server on %s", service.Config.Server.Port)
	if service.Auth.Enabled() {
		logger.Debug.Printf("Capability tokens live for %s", service.Config.SessionLifetime())
	} else {
		logger.Info.Println("Auth is disabled, every request is let through")
	}
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("Dezhurka server failed: %v", err)
	}
}
