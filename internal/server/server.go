// Package server exposes the pipeline over HTTP: upload a CIM (PDF or raw
// OCR text), get back the populated model workbook. Candidate selections
// travel with the request, so a run never blocks on interactive input here.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/export"
	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
	"github.com/joseph-ayodele/cim-extractor/internal/ocr"
	"github.com/joseph-ayodele/cim-extractor/internal/pdf"
	"github.com/joseph-ayodele/cim-extractor/internal/pipeline"
	"github.com/joseph-ayodele/cim-extractor/internal/repository"
	"github.com/joseph-ayodele/cim-extractor/internal/results"
)

const maxUploadBytes = 64 << 20

type Server struct {
	Logger       *slog.Logger
	Model        llm.ModelClient
	OCR          *ocr.Extractor // nil disables the PDF path
	Spec         llm.MetricSpec
	Table        mapping.Table
	ParseOpts    llm.ParseOptions
	Runs         *repository.RunLog
	TemplatePath string
	MaxPages     int
}

func (s *Server) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/extract", s.handleExtract)
	r.Get("/v1/runs/{runID}", s.handleGetRun)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract runs the whole pipeline for one upload. Form fields:
// "file" (PDF or plain text), and optional "select.<Metric>" values naming
// the candidate label to use when the document reports several variants.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field", err)
		return
	}
	defer func() { _ = file.Close() }()
	doc, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload", err)
		return
	}

	rawText, warnings, err := s.documentText(ctx, header.Filename, doc)
	if err != nil {
		writeError(w, http.StatusBadGateway, "OCR failed", err)
		return
	}

	proc := &pipeline.Processor{
		Logger:    s.log(),
		Model:     s.Model,
		Selector:  results.FixedSelector{Choices: selections(r)},
		Spec:      s.Spec,
		Table:     s.Table,
		ParseOpts: s.ParseOpts,
		Runs:      s.Runs,
	}
	out, err := proc.Run(ctx, rawText)
	if err != nil {
		var amb *results.AmbiguousMetricError
		if errors.As(err, &amb) {
			// the client has to break the tie: report the labels so it can
			// re-submit with a select.<Metric> field
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":  "metric has multiple variants, selection required",
				"metric": amb.Prefix,
				"labels": amb.Labels,
			})
			return
		}
		status := http.StatusBadGateway
		var pe *llm.ParseError
		if errors.As(err, &pe) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "extraction failed", err)
		return
	}
	out.Warnings = append(warnings, out.Warnings...)

	if out.NoData {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":  out.RunID,
			"no_data": true,
		})
		return
	}

	book, writeWarnings, err := s.populateTemplate(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "populate template", err)
		return
	}
	for _, ww := range writeWarnings {
		out.Warnings = append(out.Warnings, ww.String())
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cim-model.xlsx"`)
	w.Header().Set("X-Run-ID", out.RunID)
	for _, warn := range out.Warnings {
		s.log().Warn("server.extract.warning", "run_id", out.RunID, "warning", warn)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(book)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeError(w, http.StatusNotFound, "run audit log disabled", nil)
		return
	}
	run, err := s.Runs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         run.ID,
		"status":     run.Status,
		"created_at": run.CreatedAt,
		"updated_at": run.UpdatedAt,
		"warnings":   run.Warnings,
		"error":      run.Error,
	})
}

// documentText turns the upload into OCR text: PDFs go through the page
// splitter and the OCR boundary, anything else is treated as text already.
func (s *Server) documentText(ctx context.Context, filename string, doc []byte) (string, []string, error) {
	if !isPDF(filename, doc) {
		return string(doc), nil, nil
	}
	if s.OCR == nil {
		return "", nil, fmt.Errorf("PDF uploads need the OCR boundary configured")
	}
	pages, err := pdf.SplitPages(doc, s.MaxPages)
	if err != nil {
		return "", nil, err
	}
	res, err := s.OCR.ExtractText(ctx, pages)
	if err != nil {
		return "", res.Warnings, common.RemoteCallError("OCR", err)
	}
	return res.Text, res.Warnings, nil
}

func (s *Server) populateTemplate(out *pipeline.Outcome) ([]byte, []export.WriteWarning, error) {
	var writer *export.Writer
	var err error
	if s.TemplatePath != "" {
		writer, err = export.OpenTemplate(s.TemplatePath, s.log())
	} else {
		writer, err = blankModelWorkbook(s.log())
	}
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = writer.Close() }()

	warnings := writer.ApplyWrites(out.Writes)
	book, err := writer.Bytes()
	return book, warnings, err
}

// selections collects "select.<Metric>" form values.
func selections(r *http.Request) map[string]string {
	choices := map[string]string{}
	for key, vals := range r.MultipartForm.Value {
		if strings.HasPrefix(key, "select.") && len(vals) > 0 {
			choices[strings.TrimPrefix(key, "select.")] = vals[0]
		}
	}
	return choices
}

func isPDF(filename string, doc []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(doc, []byte("%PDF-"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg, "detail": detail})
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("server.listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// blankModelWorkbook stands in when no template is configured: a bare
// workbook with the stock sheet name, useful for smoke runs, not production.
func blankModelWorkbook(logger *slog.Logger) (*export.Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Model"); err != nil {
		return nil, err
	}
	return export.NewWriter(f, logger), nil
}
