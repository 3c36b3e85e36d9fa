package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/export"
	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
	"github.com/joseph-ayodele/cim-extractor/internal/ocr"
	"github.com/joseph-ayodele/cim-extractor/internal/pdf"
	"github.com/joseph-ayodele/cim-extractor/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) != 3 {
		logger.Error("usage: cimextract <input.pdf|input.txt> <output.xlsx>")
		os.Exit(2)
	}
	inPath, outPath := os.Args[1], os.Args[2]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	doc, err := os.ReadFile(inPath)
	if err != nil {
		logger.Error("read input", "path", inPath, "error", err)
		os.Exit(1)
	}

	rawText, err := documentText(ctx, cfg, logger, inPath, doc)
	if err != nil {
		logger.Error("text extraction failed", "path", inPath, "error", err)
		os.Exit(1)
	}

	table := mapping.DefaultTable()
	if cfg.Output.MappingPath != "" {
		table, err = mapping.Load(cfg.Output.MappingPath)
		if err != nil {
			logger.Error("load mapping table", "path", cfg.Output.MappingPath, "error", err)
			os.Exit(1)
		}
	}

	model := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	proc := pipeline.NewProcessor(model, stdinSelector{}, metricSpec(cfg), table, logger)
	proc.ParseOpts = llm.ParseOptions{Repair: cfg.LLM.RepairJSON}

	out, err := proc.Run(ctx, rawText)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	if out.NoData {
		fmt.Println("No financial data found in the document.")
		return
	}
	for _, warn := range out.Warnings {
		logger.Warn("extraction warning", "run_id", out.RunID, "warning", warn)
	}

	writer, err := openWorkbook(cfg.Output.TemplatePath, logger)
	if err != nil {
		logger.Error("open workbook", "error", err)
		os.Exit(1)
	}
	defer func() { _ = writer.Close() }()

	for _, ww := range writer.ApplyWrites(out.Writes) {
		logger.Warn("cell write skipped", "detail", ww.String())
	}
	if err := writer.SaveAs(outPath); err != nil {
		logger.Error("save workbook", "path", outPath, "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "run_id", out.RunID, "path", outPath, "writes", len(out.Writes))
}

func documentText(ctx context.Context, cfg *common.Config, logger *slog.Logger, path string, doc []byte) (string, error) {
	isPDF := strings.HasSuffix(strings.ToLower(path), ".pdf") || bytes.HasPrefix(doc, []byte("%PDF-"))
	if !isPDF {
		return string(doc), nil
	}
	if cfg.OCR.APIKey == "" {
		return "", fmt.Errorf("PDF input needs VISION_API_KEY")
	}
	pages, err := pdf.SplitPages(doc, cfg.OCR.MaxPages)
	if err != nil {
		return "", err
	}
	vision := ocr.NewVisionClient(ocr.VisionConfig{
		APIKey:   cfg.OCR.APIKey,
		Endpoint: cfg.OCR.Endpoint,
		Timeout:  cfg.OCR.Timeout,
	}, logger)
	res, err := ocr.NewExtractor(vision, logger).ExtractText(ctx, pages)
	if err != nil {
		return "", err
	}
	for _, warn := range res.Warnings {
		logger.Warn("ocr warning", "warning", warn)
	}
	return res.Text, nil
}

func openWorkbook(templatePath string, logger *slog.Logger) (*export.Writer, error) {
	if templatePath != "" {
		return export.OpenTemplate(templatePath, logger)
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Model"); err != nil {
		return nil, err
	}
	return export.NewWriter(f, logger), nil
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

// stdinSelector asks the operator on the terminal which reported variant of
// a metric to keep when the document carries several.
type stdinSelector struct{}

func (stdinSelector) Select(_ context.Context, prefix string, labels []string) (string, error) {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	fmt.Fprintf(os.Stderr, "\nThe document reports %d variants of %s:\n", len(sorted), prefix)
	for i, label := range sorted {
		fmt.Fprintf(os.Stderr, "  [%d] %s\n", i+1, label)
	}
	fmt.Fprintf(os.Stderr, "Pick one (1-%d): ", len(sorted))

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read selection: %w", err)
	}
	choice := strings.TrimSpace(line)
	if n, err := strconv.Atoi(choice); err == nil {
		if n < 1 || n > len(sorted) {
			return "", fmt.Errorf("selection %d out of range", n)
		}
		return sorted[n-1], nil
	}
	for _, label := range sorted {
		if label == choice {
			return label, nil
		}
	}
	return "", fmt.Errorf("unknown selection %q for %s", choice, prefix)
}
