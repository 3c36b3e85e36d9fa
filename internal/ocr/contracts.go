package ocr

import "context"

// PageReader is the OCR boundary: one page document in, its text out. A
// returned error covers that page only; the caller decides whether to keep
// going.
type PageReader interface {
	ReadPage(ctx context.Context, page []byte) (string, error)
}

// Result aggregates a whole document.
type Result struct {
	Text     string
	Pages    int
	Warnings []string
}
