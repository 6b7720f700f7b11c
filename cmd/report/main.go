// Command report runs the premarket briefing pipeline: collect from all
// providers, synthesize, and write the dated snapshot plus run metadata.
// It either runs once and exits (the default) or stays up and fires on a
// cron schedule.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"premarket-brief/internal/infra/provider/alphavantage"
	"premarket-brief/internal/infra/provider/finviz"
	"premarket-brief/internal/infra/provider/forexfactory"
	"premarket-brief/internal/infra/provider/fred"
	"premarket-brief/internal/infra/provider/polygon"
	"premarket-brief/internal/observability/logging"
	"premarket-brief/internal/observability/metrics"
	"premarket-brief/internal/usecase/collect"
	"premarket-brief/internal/usecase/report"
	"premarket-brief/pkg/budget"
	"premarket-brief/pkg/config"
)

// Weekday premarket: 05:30 in the report timezone.
const defaultCronSchedule = "30 5 * * 1-5"

func main() {
	_ = godotenv.Load()

	logger := logging.NewLogger()
	if config.GetEnvBool("LOG_PRETTY", false) {
		logger = logging.NewTextLogger()
	}
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("configuration error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration error", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startMetricsServer(ctx, logger, cfg.MetricsPort)

	budgets, sources := buildSources(cfg)
	collector := collect.NewService(cfg, sources)
	assembler := report.NewService(cfg)

	run := func() {
		runReport(logger, cfg, budgets, collector, assembler)
	}

	switch config.GetEnvString("RUN_MODE", "once") {
	case "cron":
		schedule := config.GetEnvString("CRON_SCHEDULE", defaultCronSchedule)
		c := cron.New(cron.WithLocation(cfg.Location()))
		if _, err := c.AddFunc(schedule, run); err != nil {
			logger.Error("failed to register cron schedule",
				slog.String("schedule", schedule), slog.Any("error", err))
			os.Exit(1)
		}
		c.Start()
		logger.Info("scheduler started",
			slog.String("schedule", schedule),
			slog.String("timezone", cfg.Timezone))
		select {}
	default:
		run()
	}
}

// loadConfig reads the optional yaml config file over the defaults.
func loadConfig() (config.Config, error) {
	if path := config.GetEnvString("CONFIG_FILE", ""); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

// buildSources wires every provider client behind the collector's capability
// chains. The returned budgets are reset at the start of each run.
func buildSources(cfg config.Config) ([]*budget.Budget, collect.Sources) {
	budgetMetrics := budget.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	fredBudget := budget.New("fred", cfg.FRED.RequestBudget, budgetMetrics)
	avBudget := budget.New("alpha_vantage", cfg.AlphaVantage.RequestBudget, budgetMetrics)
	polygonBudget := budget.New("polygon", cfg.Polygon.RequestBudget, budgetMetrics)

	fredClient := fred.NewClient(cfg.FRED, cfg.HTTPTimeout, fredBudget)
	avClient := alphavantage.NewClient(cfg.AlphaVantage, cfg.HTTPTimeout, avBudget)
	polygonClient := polygon.NewClient(cfg.Polygon, cfg.HTTPTimeout, polygonBudget)

	scraperClient := &http.Client{Timeout: cfg.HTTPTimeout}
	finvizScraper := finviz.NewScraper(cfg.Finviz, scraperClient)
	ffScraper := forexfactory.NewScraper(cfg.ForexFactory, scraperClient)

	sources := collect.Sources{
		PrimaryQuotes:    polygonClient,
		FallbackQuotes:   avClient,
		PrimaryNews:      avClient,
		FallbackNews:     finvizScraper,
		Sectors:          polygonClient,
		PrimaryCalendar:  fredClient,
		FallbackCalendar: collect.DatelessCalendar{Scraper: ffScraper},
		Earnings:         avClient,
		Overview:         finvizScraper,
	}
	return []*budget.Budget{fredBudget, avBudget, polygonBudget}, sources
}

// runReport executes one full briefing run. The run never aborts on partial
// data; the snapshot always gets written.
func runReport(
	logger *slog.Logger,
	cfg config.Config,
	budgets []*budget.Budget,
	collector *collect.Service,
	assembler *report.Service,
) {
	runID := report.NewRunID()
	runLogger := logging.WithRunID(logger, runID)
	start := time.Now()
	runLogger.Info("briefing run started")

	for _, b := range budgets {
		b.Reset()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logging.WithLogger(ctx, runLogger)

	res := collector.Gather(ctx)
	data := assembler.Assemble(res)

	snapshotPath, err := assembler.WriteSnapshot(data)
	if err != nil {
		runLogger.Error("snapshot write failed", slog.Any("error", err))
	} else {
		runLogger.Info("snapshot written", slog.String("path", snapshotPath))
	}

	meta := assembler.BuildRunMetadata(runID, data, res)
	if metaPath, err := assembler.WriteRunMetadata(meta); err != nil {
		runLogger.Error("run metadata write failed", slog.Any("error", err))
	} else {
		runLogger.Info("run metadata written", slog.String("path", metaPath))
	}

	result := report.ClassifyRun(res)
	metrics.RecordBriefingRun(result, time.Since(start))
	runLogger.Info("briefing run completed",
		slog.String("result", result),
		slog.String("date", data.Date),
		slog.Duration("duration", time.Since(start)))
}
