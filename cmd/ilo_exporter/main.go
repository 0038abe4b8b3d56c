package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilometrics/ilo_exporter/internal/collector"
	"github.com/ilometrics/ilo_exporter/internal/config"
	"github.com/ilometrics/ilo_exporter/internal/ilo"
	"github.com/ilometrics/ilo_exporter/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
)

var showVersion = flag.Bool("version", false, "Print version information and exit")

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Print("ilo_exporter"))
		os.Exit(0)
	}

	logger := logging.New()

	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client := ilo.NewClient(ilo.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Insecure: cfg.Insecure,
	}, logger)
	defer client.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		versioncollector.NewCollector("ilo_exporter"),
		collector.NewILOCollector(client, cfg.ScrapeTimeout, logger),
	)

	// Each request to the metrics path drives one scrape; the process never
	// polls in the background.
	http.Handle(cfg.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<head><title>iLO Exporter</title></head>
			<body>
			<h1>iLO Exporter</h1>
			<p><a href="` + cfg.MetricsPath + `">Metrics</a></p>
			</body>
			</html>`))
	})

	// Handle graceful shutdown
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		logger.Info("shutting down...")
		client.Close()
		os.Exit(0)
	}()

	logger.Info("starting ilo exporter",
		"address", cfg.ListenAddress,
		"target", cfg.Host,
		"scrape_timeout", cfg.ScrapeTimeout,
	)

	if err := http.ListenAndServe(cfg.ListenAddress, nil); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
