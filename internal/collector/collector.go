// Package collector drives one scrape per exposition request: fetch the
// health documents, parse each one independently, record the readings, and
// emit the registry contents plus a scrape status metric.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/ilometrics/ilo_exporter/internal/ilo"
	"github.com/ilometrics/ilo_exporter/internal/logging"
	"github.com/ilometrics/ilo_exporter/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// metricDescs fixes the exported name and label shape for every metric kind
// the parser can produce.
var metricDescs = map[telemetry.MetricKind]*prometheus.Desc{
	telemetry.TemperatureCelsius: prometheus.NewDesc(
		"ilo_temperature_celsius",
		"Temperature sensor reading in degrees Celsius.",
		[]string{"sensor"}, nil,
	),
	telemetry.SensorState: prometheus.NewDesc(
		"ilo_sensor_state",
		"Temperature sensor state (0 = Unknown, 1 = OK, 2 = Degraded, 3 = Failed, 4 = Absent).",
		[]string{"sensor"}, nil,
	),
	telemetry.FanSpeedPercent: prometheus.NewDesc(
		"ilo_fan_speed_percent",
		"Fan speed in percent of maximum.",
		[]string{"fan"}, nil,
	),
	telemetry.FanSpeedRPM: prometheus.NewDesc(
		"ilo_fan_speed_rpm",
		"Fan speed in RPM.",
		[]string{"fan"}, nil,
	),
	telemetry.FanState: prometheus.NewDesc(
		"ilo_fan_state",
		"Fan state (0 = Unknown, 1 = OK, 2 = Degraded, 3 = Failed, 4 = Absent).",
		[]string{"fan"}, nil,
	),
	telemetry.VoltageVolts: prometheus.NewDesc(
		"ilo_voltage_volts",
		"Voltage sensor reading in Volts.",
		[]string{"sensor"}, nil,
	),
	telemetry.VoltageState: prometheus.NewDesc(
		"ilo_voltage_state",
		"Voltage sensor state (0 = Unknown, 1 = OK, 2 = Degraded, 3 = Failed, 4 = Absent).",
		[]string{"sensor"}, nil,
	),
	telemetry.PowerConsumedWatts: prometheus.NewDesc(
		"ilo_power_consumed_watts",
		"Present chassis power draw in Watts.",
		nil, nil,
	),
	telemetry.PowerCapacityWatts: prometheus.NewDesc(
		"ilo_power_capacity_watts",
		"Chassis power capacity in Watts.",
		nil, nil,
	),
	telemetry.PowerSupplyOutputWatts: prometheus.NewDesc(
		"ilo_power_supply_output_watts",
		"Power supply output in Watts.",
		[]string{"bay"}, nil,
	),
	telemetry.PowerSupplyState: prometheus.NewDesc(
		"ilo_power_supply_state",
		"Power supply state (0 = Unknown, 1 = OK, 2 = Degraded, 3 = Failed, 4 = Absent).",
		[]string{"bay"}, nil,
	),
	telemetry.ComponentHealth: prometheus.NewDesc(
		"ilo_component_health",
		"Subsystem health rollup (0 = Unknown, 1 = OK, 2 = Degraded, 3 = Failed, 4 = Absent).",
		[]string{"component"}, nil,
	),
	telemetry.PowerState: prometheus.NewDesc(
		"ilo_power_state",
		"System power state (1 = On, 0 = Off).",
		nil, nil,
	),
	telemetry.MemoryTotalBytes: prometheus.NewDesc(
		"ilo_memory_total_bytes",
		"Total installed system memory in bytes.",
		nil, nil,
	),
	telemetry.SystemInfo: prometheus.NewDesc(
		"ilo_system_info",
		"System model and serial number. Constant 1.",
		[]string{"model", "serial"}, nil,
	),
}

// Fetcher is the client surface the collector needs.
type Fetcher interface {
	FetchHealthDocuments(ctx context.Context) ([]ilo.Document, error)
}

// ILOCollector implements prometheus.Collector. Each Collect call performs
// one scrape against the controller; overlapping calls share a single
// in-flight fetch sequence so scraper retries cannot exhaust the
// controller's session slots.
type ILOCollector struct {
	client  Fetcher
	logger  *logging.Logger
	timeout time.Duration
	store   *store
	group   singleflight.Group

	scrapeSuccess  *prometheus.Desc
	scrapeDuration *prometheus.Desc
}

// NewILOCollector creates a collector scraping through the given client with
// the given per-scrape timeout.
func NewILOCollector(client Fetcher, timeout time.Duration, logger *logging.Logger) *ILOCollector {
	return &ILOCollector{
		client:  client,
		logger:  logger,
		timeout: timeout,
		store:   newStore(),
		scrapeSuccess: prometheus.NewDesc(
			"ilo_scrape_success",
			"Whether the last scrape of the iLO controller succeeded in full.",
			nil, nil,
		),
		scrapeDuration: prometheus.NewDesc(
			"ilo_scrape_duration_seconds",
			"Duration of the scrape in seconds.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ILOCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range metricDescs {
		ch <- desc
	}
	ch <- c.scrapeSuccess
	ch <- c.scrapeDuration
}

// Collect implements prometheus.Collector. On failure the store keeps
// serving last-known-good values; only ilo_scrape_success flips to 0.
func (c *ILOCollector) Collect(ch chan<- prometheus.Metric) {
	start := time.Now()

	_, err, _ := c.group.Do("scrape", func() (interface{}, error) {
		return nil, c.scrape()
	})

	success := 1.0
	if err != nil {
		success = 0.0
	}

	for _, r := range c.store.snapshot() {
		ch <- prometheus.MustNewConstMetric(
			metricDescs[r.Kind],
			prometheus.GaugeValue,
			r.Value,
			r.Labels...,
		)
	}

	ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(c.scrapeDuration, prometheus.GaugeValue, time.Since(start).Seconds())
}

// scrape runs one fetch-parse-record cycle. A failing document is logged and
// skipped; readings from the documents that did parse are still recorded.
// The returned error is the first stage failure, if any.
func (c *ILOCollector) scrape() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	docs, err := c.client.FetchHealthDocuments(ctx)
	firstErr := err
	if err != nil {
		c.logFetchError(err)
	}

	for _, doc := range docs {
		readings, perr := telemetry.Parse(doc)
		if perr != nil {
			c.logger.Error("failed to parse health document", "endpoint", doc.Endpoint, "error", perr)
			if firstErr == nil {
				firstErr = perr
			}
			continue
		}
		c.store.record(doc.Kind, readings)
	}

	return firstErr
}

func (c *ILOCollector) logFetchError(err error) {
	var (
		authErr        *ilo.AuthError
		unreachableErr *ilo.UnreachableError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Error("scrape timed out", "timeout", c.timeout, "error", err)
	case errors.As(err, &authErr):
		c.logger.Error("authentication to controller failed", "error", err)
	case errors.As(err, &unreachableErr):
		c.logger.Error("controller unreachable", "error", err)
	default:
		c.logger.Error("failed to fetch health documents", "error", err)
	}
}
