package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/normalize"
	"github.com/joseph-ayodele/cim-extractor/internal/ocr"
	"github.com/joseph-ayodele/cim-extractor/internal/pdf"
)

// runocr dumps the OCR text of a PDF without calling the extraction model,
// useful for checking what the model will actually see.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 || len(os.Args) > 3 {
		logger.Error("usage: runocr <input.pdf> [output.txt]")
		os.Exit(2)
	}
	inPath := os.Args[1]

	cfg := common.LoadConfig()
	if cfg.OCR.APIKey == "" {
		logger.Error("VISION_API_KEY env var is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	doc, err := os.ReadFile(inPath)
	if err != nil {
		logger.Error("read input", "path", inPath, "error", err)
		os.Exit(1)
	}
	pages, err := pdf.SplitPages(doc, cfg.OCR.MaxPages)
	if err != nil {
		logger.Error("split pages", "path", inPath, "error", err)
		os.Exit(1)
	}

	vision := ocr.NewVisionClient(ocr.VisionConfig{
		APIKey:   cfg.OCR.APIKey,
		Endpoint: cfg.OCR.Endpoint,
		Timeout:  cfg.OCR.Timeout,
	}, logger)

	start := time.Now()
	res, err := ocr.NewExtractor(vision, logger).ExtractText(ctx, pages)
	if err != nil {
		logger.Error("ocr failed", "path", inPath, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}
	for _, warn := range res.Warnings {
		logger.Warn("ocr warning", "warning", warn)
	}
	logger.Info("ocr ok",
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	text := normalize.Text(res.Text)
	if len(os.Args) == 3 {
		if err := os.WriteFile(os.Args[2], []byte(text), 0o644); err != nil {
			logger.Error("write output", "path", os.Args[2], "error", err)
			os.Exit(1)
		}
		logger.Info("text written", "path", os.Args[2])
		return
	}
	fmt.Println(text)
}
