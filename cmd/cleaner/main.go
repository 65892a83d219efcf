// Package main provides the cleaner command-line tool that lists the tags the rewrite rules change.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"osmclean/internal/config"
	"osmclean/internal/formatter"
	"osmclean/internal/logger"
	"osmclean/internal/normalizer"
	"osmclean/internal/osmxml"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (reference rules when empty)")
	inputPath := flag.String("input", "", "Path to the OSM XML export")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: cleaner -input <area.osm> [-config <config.yaml>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadOrReference(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	changes, err := collect(cfg, *inputPath)
	if err != nil {
		log.Error("clean failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(formatter.RenderChanges(changes))
	log.Info("✅ Done", "changed_tags", len(changes))
}

func collect(cfg *config.Config, inputPath string) ([]normalizer.Change, error) {
	rewriter, err := normalizer.NewRewriter(cfg.Rules, cfg.Pipeline.RewriteCacheSize)
	if err != nil {
		return nil, err
	}

	src, err := osmxml.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var changes []normalizer.Change

	for {
		el, err := src.Next()
		if errors.Is(err, io.EOF) {
			return changes, nil
		}

		if err != nil {
			return nil, err
		}

		changes = append(changes, rewriter.Changes(el)...)
	}
}
