// Package export writes resolved metric values into the pre-built LBO
// template workbook. The template is never restructured: only the mapped
// cells are overwritten, styles and formulas stay as authored.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
)

// WriteWarning records one cell the sink rejected. Warnings never abort the
// pass: the workbook is still produced, partially populated.
type WriteWarning struct {
	Key   string
	Sheet string
	Cell  string
	Err   error
}

func (w WriteWarning) String() string {
	return fmt.Sprintf("%s -> %s!%s: %v", w.Key, w.Sheet, w.Cell, w.Err)
}

// Writer fills one template workbook.
type Writer struct {
	file   *excelize.File
	logger *slog.Logger
}

// OpenTemplate loads the template workbook from disk.
func OpenTemplate(path string, logger *slog.Logger) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("template path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	return NewWriter(f, logger), nil
}

// OpenTemplateReader loads the template workbook from a stream (the HTTP
// surface holds templates in memory).
func OpenTemplateReader(r io.Reader, logger *slog.Logger) (*Writer, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	return NewWriter(f, logger), nil
}

func NewWriter(f *excelize.File, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{file: f, logger: logger}
}

// ApplyWrites executes the mapping output against the workbook. Each entry is
// independent; a rejected cell is logged and reported, and the remaining
// entries still execute.
func (w *Writer) ApplyWrites(writes []mapping.Write) []WriteWarning {
	var warnings []WriteWarning
	for _, wr := range writes {
		if err := w.setCell(wr); err != nil {
			cellErr := common.NewAppError(common.CodeCellWrite, "cell write rejected", err)
			w.logger.Warn("export.cell_write_failed",
				"key", wr.Key, "sheet", wr.Sheet, "cell", wr.Cell, "error", cellErr)
			warnings = append(warnings, WriteWarning{Key: wr.Key, Sheet: wr.Sheet, Cell: wr.Cell, Err: cellErr})
			continue
		}
	}
	w.logger.Info("export.apply_writes.ok", "writes", len(writes), "warnings", len(warnings))
	return warnings
}

func (w *Writer) setCell(wr mapping.Write) error {
	if idx, err := w.file.GetSheetIndex(wr.Sheet); err != nil || idx == -1 {
		return fmt.Errorf("sheet %q not in template", wr.Sheet)
	}
	return w.file.SetCellValue(wr.Sheet, wr.Cell, wr.Value)
}

// Bytes serializes the workbook.
func (w *Writer) Bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveAs writes the workbook to disk.
func (w *Writer) SaveAs(path string) error {
	b, err := w.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Close releases the underlying workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}
