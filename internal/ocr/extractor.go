package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Extractor runs the OCR boundary over every page of a document and joins
// the page texts. A failed page is a per-page warning and contributes no
// text; only a document where every page failed is a hard error.
type Extractor struct {
	Reader PageReader
	Logger *slog.Logger
}

func NewExtractor(reader PageReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Reader: reader, Logger: logger}
}

func (e *Extractor) ExtractText(ctx context.Context, pages [][]byte) (Result, error) {
	var b strings.Builder
	var warnings []string
	ok := 0
	for i, page := range pages {
		text, err := e.Reader.ReadPage(ctx, page)
		if err != nil {
			// a canceled run stops; a failed page does not
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			msg := fmt.Sprintf("page %d: %v", i+1, err)
			e.Logger.Warn("ocr.page_failed", "page", i+1, "error", err)
			warnings = append(warnings, msg)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		ok++
	}
	if len(pages) > 0 && ok == 0 {
		return Result{Pages: len(pages), Warnings: warnings}, fmt.Errorf("every page failed OCR")
	}
	e.Logger.Info("ocr.extract.ok", "pages", len(pages), "failed", len(warnings))
	return Result{Text: b.String(), Pages: len(pages), Warnings: warnings}, nil
}
