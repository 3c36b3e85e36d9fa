package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
	"github.com/joseph-ayodele/cim-extractor/internal/ocr"
	"github.com/joseph-ayodele/cim-extractor/internal/repository"
	"github.com/joseph-ayodele/cim-extractor/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs, err := repository.Open(cfg.DB.Path, logger)
	if err != nil {
		logger.Error("open run log", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := runs.Close(); cerr != nil {
			logger.Error("close run log", "error", cerr)
		}
	}()

	table := mapping.DefaultTable()
	if cfg.Output.MappingPath != "" {
		table, err = mapping.Load(cfg.Output.MappingPath)
		if err != nil {
			logger.Error("load mapping table", "path", cfg.Output.MappingPath, "error", err)
			os.Exit(1)
		}
	}

	// The OCR boundary is optional: without a Vision key the server still
	// accepts raw text uploads, just not PDFs.
	var extractor *ocr.Extractor
	if cfg.OCR.APIKey != "" {
		vision := ocr.NewVisionClient(ocr.VisionConfig{
			APIKey:   cfg.OCR.APIKey,
			Endpoint: cfg.OCR.Endpoint,
			Timeout:  cfg.OCR.Timeout,
		}, logger)
		extractor = ocr.NewExtractor(vision, logger)
	} else {
		logger.Warn("VISION_API_KEY not set, PDF uploads disabled")
	}

	model := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	srv := &server.Server{
		Logger:       logger,
		Model:        model,
		OCR:          extractor,
		Spec:         metricSpec(cfg),
		Table:        table,
		ParseOpts:    llm.ParseOptions{Repair: cfg.LLM.RepairJSON},
		Runs:         runs,
		TemplatePath: cfg.Output.TemplatePath,
		MaxPages:     cfg.OCR.MaxPages,
	}

	if err := server.Serve(ctx, cfg.Server.HTTPAddr, srv.Routes(), logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func metricSpec(cfg *common.Config) llm.MetricSpec {
	return llm.MetricSpec{
		ActualYears:           cfg.Spec.ActualYears,
		ProjectionYears:       cfg.Spec.ProjectionYears,
		PreferAdjustedEBITDA:  cfg.Spec.PreferAdjustedEBITDA,
		PreferMaintCapExLabel: cfg.Spec.PreferMaintCapExLabel,
		IncludeAcquisitions:   cfg.Spec.IncludeAcquisitions,
		IncludeYearHeaders:    cfg.Spec.IncludeYearHeaders,
		LTMHeaderFormat:       cfg.Spec.LTMHeaderFormat,
	}
}
