// Package main provides the normalizer command-line tool that converts an OSM export into JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"time"

	"osmclean/internal/config"
	"osmclean/internal/logger"
	"osmclean/internal/monitoring"
	"osmclean/internal/normalizer"
	"osmclean/internal/osmxml"
	"osmclean/internal/sink"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (reference rules when empty)")
	inputPath := flag.String("input", "", "Path to the OSM XML export")
	outputPath := flag.String("output", "", "Path to output JSON lines file (overrides config)")
	metricsPath := flag.String("metrics", "", "Write Prometheus textfile metrics here (overrides config)")
	workers := flag.Int("workers", 0, "Concurrent projection workers (overrides config)")
	dumpConfig := flag.String("dump-config", "", "Write the effective configuration to this file and exit")
	flag.Parse()

	cfg, err := config.LoadOrReference(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}

	if *metricsPath != "" {
		cfg.Output.MetricsPath = *metricsPath
	}

	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	if *dumpConfig != "" {
		if err := cfg.SaveConfig(*dumpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to save config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Configuration written to %s\n", *dumpConfig)

		return
	}

	if *inputPath == "" || cfg.Output.Path == "" {
		fmt.Println("Usage: normalizer -input <area.osm> -output <area.json> [-config <config.yaml>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := run(ctx, cfg, *inputPath, log)
	if err != nil {
		log.Error("❌ Conversion failed", "error", err)
		stop()
		os.Exit(1)
	}

	printSummary(res)
}

func run(ctx context.Context, cfg *config.Config, inputPath string, log *logger.Logger) (*normalizer.Result, error) {
	start := time.Now()
	metrics := monitoring.NewMetrics()

	processor, err := normalizer.NewProcessor(cfg, log, metrics)
	if err != nil {
		return nil, err
	}

	src, err := osmxml.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out, err := sink.Create(cfg.Output.Path)
	if err != nil {
		return nil, err
	}

	res, err := processor.Process(ctx, src, out)
	if err != nil {
		out.Abort()

		return res, err
	}

	if err := out.Close(); err != nil {
		return res, err
	}

	if root := src.Root(); root != nil {
		log.Info("Export read", "version", root.Attrs["version"], "generator", root.Attrs["generator"])
	}

	if cfg.Output.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			return res, err
		}
	}

	log.Info("✅ Saved", "path", cfg.Output.Path, "documents", out.Count(), "duration", time.Since(start))

	return res, nil
}

func printSummary(res *normalizer.Result) {
	fmt.Println("------------------------------------------------")
	fmt.Println("📊 Summary Report")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Elements read: %d\n", res.Elements)

	kinds := make([]string, 0, len(res.Kinds))
	for k := range res.Kinds {
		kinds = append(kinds, k)
	}

	slices.Sort(kinds)

	for _, k := range kinds {
		fmt.Printf("  %-10s %d\n", k, res.Kinds[k])
	}

	fmt.Printf("Documents written: %d\n", res.Documents)

	for _, route := range []normalizer.Route{normalizer.RouteAddress, normalizer.RouteMulti, normalizer.RouteScalar, normalizer.RouteDropped} {
		fmt.Printf("  tags %-8s %d\n", route, res.Stats.Routes[route])
	}

	if res.Stats.Unexpected > 0 {
		fmt.Printf("⚠️  Unexpected children: %d\n", res.Stats.Unexpected)
	}

	if len(res.Skipped) > 0 {
		fmt.Printf("⚠️  Skipped elements: %d\n", len(res.Skipped))

		for _, e := range res.Skipped {
			fmt.Printf("  - %v\n", e)
		}
	}

	fmt.Println("------------------------------------------------")
}
