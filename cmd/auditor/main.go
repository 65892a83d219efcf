// Package main provides the auditor command-line tool for validating an OSM export.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"osmclean/internal/audit"
	"osmclean/internal/config"
	"osmclean/internal/formatter"
	"osmclean/internal/logger"
	"osmclean/internal/monitoring"
	"osmclean/internal/osmxml"
	"osmclean/pkg/metadata"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (reference rules when empty)")
	inputPath := flag.String("input", "", "Path to the OSM XML export")
	reportPath := flag.String("report", "", "Write the markdown report to this file (overrides config)")
	metricsPath := flag.String("metrics", "", "Write Prometheus textfile metrics here (overrides config)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: auditor -input <area.osm> [-config <config.yaml>] [-report <report.md>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadOrReference(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *reportPath != "" {
		cfg.Output.ReportPath = *reportPath
	}

	if *metricsPath != "" {
		cfg.Output.MetricsPath = *metricsPath
	}

	log := logger.NewLogger(cfg.Logging.Level)

	if err := run(cfg, *inputPath, log); err != nil {
		log.Error("audit failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inputPath string, log *logger.Logger) error {
	src, err := osmxml.Open(inputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	report, err := audit.NewAuditor(cfg.Audit, log).Run(src)
	if err != nil {
		return err
	}

	rendered := formatter.RenderReport(report)
	fmt.Print(rendered)

	if cfg.Output.ReportPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Output.ReportPath), 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}

		signed := metadata.Sign(rendered, report.RunID, time.Now())
		if err := os.WriteFile(cfg.Output.ReportPath, []byte(signed), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		log.Info("report saved", "path", cfg.Output.ReportPath)
	}

	if cfg.Output.MetricsPath != "" {
		metrics := monitoring.NewMetrics()
		observeReport(metrics, report)

		if err := metrics.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			return err
		}
	}

	log.Info("✅ Done", "findings", len(report.Findings))

	return nil
}

func observeReport(m *monitoring.Metrics, report *audit.Report) {
	for kind, n := range report.FindingsByKind() {
		m.AuditFindings.WithLabelValues(string(kind)).Add(float64(n))
	}

	for class, n := range report.Keys.Counts {
		m.AuditKeys.WithLabelValues(string(class)).Add(float64(n))
	}
}
