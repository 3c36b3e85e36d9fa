package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/cim-extractor/constants"
	"github.com/joseph-ayodele/cim-extractor/internal/common"
	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
	"github.com/joseph-ayodele/cim-extractor/internal/repository"
	"github.com/joseph-ayodele/cim-extractor/internal/results"
)

type stubModel struct {
	reply string
	err   error
}

func (s stubModel) Complete(context.Context, string) (string, error) {
	return s.reply, s.err
}

func newProcessor(model llm.ModelClient, sel results.Selector) *Processor {
	return NewProcessor(model, sel, llm.DefaultSpec(), mapping.DefaultTable(), nil)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	reply := "```json\n" + `{
		"Revenue_Actual_1": 120.5,
		"Maintenance_CapEx": {"Actual_1": 5, "Proj_Y1": 7},
		"EBITDA_Candidates": {
			"Adj. EBITDA": {"Actual_1": 10, "Proj_Y1": 20},
			"Reported EBITDA": {"Actual_1": 8, "Proj_Y1": 15}
		},
		"Header_E17": "2022"
	}` + "\n```"

	sel := results.FixedSelector{Choices: map[string]string{"EBITDA": "Adj. EBITDA"}}
	p := newProcessor(stubModel{reply: reply}, sel)

	out, err := p.Run(context.Background(), "Adj. 4-Wall RR\nEBITDA\n123")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.NoData {
		t.Fatal("unexpected no-data outcome")
	}
	if out.Result["EBITDA_Actual_1"] != float64(10) || out.Result["EBITDA_Proj_Y1"] != float64(20) {
		t.Fatalf("candidate resolution failed: %v", out.Result)
	}
	if out.Result["CapEx_Maint_Actual_1"] != float64(5) {
		t.Fatalf("flatten+rename failed: %v", out.Result)
	}

	byKey := map[string]mapping.Write{}
	for _, w := range out.Writes {
		byKey[w.Key] = w
	}
	if byKey["Revenue_Actual_1"].Cell != "E18" || byKey["Revenue_Actual_1"].Value != 120.5 {
		t.Fatalf("revenue write wrong: %+v", byKey["Revenue_Actual_1"])
	}
	if byKey["Header_E17"].Cell != "E17" {
		t.Fatalf("header write wrong: %+v", byKey["Header_E17"])
	}
	if _, ok := byKey["EBITDA_Candidates"]; ok {
		t.Fatal("candidates wrapper must never reach the mapping")
	}
}

func TestRun_NoDataOutcome(t *testing.T) {
	t.Parallel()

	p := newProcessor(stubModel{reply: `{"error": "No financial data found"}`}, results.FixedSelector{})
	out, err := p.Run(context.Background(), "nothing useful")
	if err != nil {
		t.Fatalf("no-data is not a failure: %v", err)
	}
	if !out.NoData || len(out.Writes) != 0 {
		t.Fatalf("expected clean no-data outcome: %+v", out)
	}
}

func TestRun_ParseFailureIsFatal(t *testing.T) {
	t.Parallel()

	p := newProcessor(stubModel{reply: "not json at all"}, results.FixedSelector{})
	_, err := p.Run(context.Background(), "text")
	var pe *llm.ParseError
	if !errors.As(err, &pe) || pe.Kind != llm.NoJSONFound {
		t.Fatalf("want NoJSONFound parse failure, got %v", err)
	}
}

func TestRun_ModelFailureIsFatal(t *testing.T) {
	t.Parallel()

	p := newProcessor(stubModel{err: errors.New("boom")}, results.FixedSelector{})
	_, err := p.Run(context.Background(), "text")
	var ae *common.AppError
	if !errors.As(err, &ae) || ae.Code != common.CodeRemoteCall {
		t.Fatalf("want REMOTE_CALL_FAILURE, got %v", err)
	}
}

func TestRun_SchemaDriftIsWarningOnly(t *testing.T) {
	t.Parallel()

	p := newProcessor(stubModel{reply: `{"Gross_Margin_Actual_1": 3, "Revenue_Actual_1": 9}`}, results.FixedSelector{})
	out, err := p.Run(context.Background(), "text")
	if err != nil {
		t.Fatalf("drift must not fail the run: %v", err)
	}
	if len(out.Warnings) == 0 {
		t.Fatal("drift must be reported as a warning")
	}
	if out.Result["Revenue_Actual_1"] != float64(9) {
		t.Fatal("drifting reply must still be processed")
	}
}

func TestRun_AuditTrail(t *testing.T) {
	t.Parallel()

	runs, err := repository.Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = runs.Close() })

	p := newProcessor(stubModel{reply: `{"Revenue_Actual_1": 1}`}, results.FixedSelector{})
	p.Runs = runs

	out, err := p.Run(context.Background(), "Revenue\n1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rec, err := runs.Get(context.Background(), out.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec.Status != constants.RunStatusOK {
		t.Fatalf("want OK status, got %s", rec.Status)
	}
	if rec.RawReply == "" || rec.CleanText == "" {
		t.Fatalf("raw and cleaned text must be retained: %+v", rec)
	}
}
