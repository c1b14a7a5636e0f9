package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"blindiqa/internal/logger"
	"blindiqa/internal/models"
	"blindiqa/pkg/config"
	"blindiqa/pkg/imageio"
	"blindiqa/pkg/model"
	"blindiqa/pkg/quality"
)

func main() {
	// Parse command line arguments
	metricName := flag.String("metric", "", "Expected metric of the model: niqe or ilniqe (default: taken from the model)")
	modelPath := flag.String("model", "", "Pristine model file (.yaml, optionally .zst, .lz4 or .gz compressed)")
	configPath := flag.String("config", "blindiqa.yaml", "Configuration file, defaults are used when it does not exist")
	crop := flag.Int("crop", -1, "Pixels cropped from every edge (default: from the configuration)")
	workers := flag.Int("workers", 0, "Images scored concurrently (default: from the configuration)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	initConfig := flag.String("init-config", "", "Write a default configuration file to this path and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -model path [options] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *initConfig)
		return
	}

	// Validate inputs
	if *modelPath == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Output.Verbose = true
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}
	if *crop >= 0 {
		cfg.NIQE.CropBorder = *crop
		cfg.ILNIQE.CropBorder = *crop
	}

	format, err := logger.ParseFormat(cfg.Output.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Verbose: cfg.Output.Verbose, Format: format})

	m, err := model.Load(*modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	if *metricName != "" {
		want, err := model.ParseMetric(*metricName)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -metric")
		}
		if want != m.Metric {
			log.Fatal().Str("model", string(m.Metric)).Str("requested", string(want)).Msg("model was trained for another metric")
		}
	}

	var collector *quality.PrometheusCollector
	base := quality.Params{Logger: &log}
	if cfg.Output.MetricsTextfile != "" {
		if collector, err = quality.NewPrometheusCollector(); err != nil {
			log.Fatal().Err(err).Msg("failed to register metrics")
		}
		base.Metrics = collector
	}

	scorer, err := quality.NewFromConfig(m, cfg, base)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scorer")
	}

	paths := flag.Args()
	batch := make(models.Batch, len(paths))
	for i, path := range paths {
		if batch[i], err = imageio.Load(path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load image")
		}
	}
	log.Info().
		Str("metric", string(m.Metric)).
		Int("images", len(batch)).
		Int("workers", cfg.Processing.Workers).
		Msg("scoring")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	results, err := scorer.ScoreBatch(ctx, batch)
	if err != nil {
		var item string
		var stageErr *quality.StageError
		if errors.As(err, &stageErr) && stageErr.Item < len(paths) {
			item = paths[stageErr.Item]
		}
		log.Error().Err(err).Str("path", item).Msg("scoring failed")
		stop()
		os.Exit(1)
	}

	for i, res := range results {
		fmt.Printf("%s\t%.4f\n", paths[i], res.Score)
	}
	log.Info().Dur("elapsed", time.Since(startTime)).Msg("done")

	if collector != nil {
		if err := collector.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			log.Error().Err(err).Msg("failed to write metrics")
		}
	}
}
