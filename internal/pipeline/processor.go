// Package pipeline coordinates one extraction run: normalize the OCR text,
// call the model, parse, canonicalize, resolve candidates, and project onto
// the cell mapping. One run owns its result; runs share nothing mutable.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cim-extractor/constants"
	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
	"github.com/joseph-ayodele/cim-extractor/internal/normalize"
	"github.com/joseph-ayodele/cim-extractor/internal/repository"
	"github.com/joseph-ayodele/cim-extractor/internal/results"
)

type Processor struct {
	Logger    *slog.Logger
	Model     llm.ModelClient
	Selector  results.Selector
	Spec      llm.MetricSpec
	Table     mapping.Table
	ParseOpts llm.ParseOptions
	Runs      *repository.RunLog // optional audit trail
}

func NewProcessor(model llm.ModelClient, sel results.Selector, spec llm.MetricSpec, table mapping.Table, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:   logger,
		Model:    model,
		Selector: sel,
		Spec:     spec,
		Table:    table,
	}
}

// Outcome is what one run produced. NoData marks the legitimate empty-result
// outcome: the run ended cleanly and there is nothing to write.
type Outcome struct {
	RunID     string
	NoData    bool
	CleanText string
	RawReply  string
	Result    map[string]any
	Writes    []mapping.Write
	Warnings  []string
}

// Run executes the pipeline over raw OCR text. Remote and parse failures are
// fatal and reported with their cause; nothing downstream of them runs.
func (p *Processor) Run(ctx context.Context, rawText string) (*Outcome, error) {
	runID := uuid.New().String()
	p.logStart(ctx, runID, len(rawText))

	out := &Outcome{RunID: runID}
	out.CleanText = normalize.Text(rawText)

	prompt := llm.BuildExtractionPrompt(out.CleanText, p.Spec)
	reply, err := p.Model.Complete(ctx, prompt)
	if err != nil {
		return nil, p.fail(ctx, out, common.RemoteCallError("extraction model", err))
	}
	out.RawReply = reply
	p.record(ctx, runID, out.CleanText, reply)

	parsed, err := llm.ParseResponse(reply, p.ParseOpts)
	if errors.Is(err, llm.ErrNoFinancialData) {
		out.NoData = true
		p.finish(ctx, runID, constants.RunStatusNoData, nil, nil)
		p.Logger.Info("pipeline.run.no_data", "run_id", runID)
		return out, nil
	}
	if err != nil {
		return nil, p.fail(ctx, out, common.NewAppError(common.CodeParseFailure, "model reply unusable", err))
	}

	if verr := llm.ValidateAgainstSchema(llm.BuildExtractionJSONSchema(p.Spec), parsed); verr != nil {
		// advisory only: the remote side promises no schema
		out.Warnings = append(out.Warnings, fmt.Sprintf("reply drifts from expected shape: %v", verr))
		p.Logger.Warn("pipeline.parse.schema_drift", "run_id", runID, "error", verr)
	}

	res := results.Flatten(parsed)
	res = results.RenameAliases(res)
	for _, prefix := range constants.MetricPrefixes() {
		res, err = results.Resolve(ctx, res, prefix, p.Selector, p.Logger)
		if err != nil {
			return nil, p.fail(ctx, out, fmt.Errorf("resolve %s: %w", prefix, err))
		}
	}
	out.Result = res
	out.Writes = p.Table.Apply(res)

	p.finish(ctx, runID, constants.RunStatusOK, out.Warnings, nil)
	p.Logger.Info("pipeline.run.ok",
		"run_id", runID,
		"keys", len(res),
		"writes", len(out.Writes),
		"warnings", len(out.Warnings),
	)
	return out, nil
}

func (p *Processor) fail(ctx context.Context, out *Outcome, err error) error {
	p.record(ctx, out.RunID, out.CleanText, out.RawReply)
	p.finish(ctx, out.RunID, constants.RunStatusFailed, out.Warnings, err)
	p.Logger.Error("pipeline.run.failed", "run_id", out.RunID, "error", err)
	return err
}

func (p *Processor) logStart(ctx context.Context, runID string, textLen int) {
	if p.Runs != nil {
		if err := p.Runs.Start(ctx, runID); err != nil {
			p.Logger.Warn("pipeline.audit.start_failed", "run_id", runID, "error", err)
		}
	}
	p.Logger.Info("pipeline.run.start", "run_id", runID, "raw_text_len", textLen)
}

func (p *Processor) record(ctx context.Context, runID, cleanText, rawReply string) {
	if p.Runs == nil {
		return
	}
	if err := p.Runs.RecordText(ctx, runID, cleanText, rawReply); err != nil {
		p.Logger.Warn("pipeline.audit.record_failed", "run_id", runID, "error", err)
	}
}

func (p *Processor) finish(ctx context.Context, runID string, status constants.RunStatus, warnings []string, runErr error) {
	if p.Runs == nil {
		return
	}
	if err := p.Runs.Finish(ctx, runID, status, warnings, runErr); err != nil {
		p.Logger.Warn("pipeline.audit.finish_failed", "run_id", runID, "error", err)
	}
}
