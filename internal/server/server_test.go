package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/cim-extractor/internal/llm"
	"github.com/joseph-ayodele/cim-extractor/internal/mapping"
)

type stubModel struct{ reply string }

func (s stubModel) Complete(context.Context, string) (string, error) {
	return s.reply, nil
}

func newTestServer(reply string) *Server {
	return &Server{
		Model: stubModel{reply: reply},
		Spec:  llm.DefaultSpec(),
		Table: mapping.DefaultTable(),
	}
}

func postText(t *testing.T, handler http.Handler, text string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "cim.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(text)); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleExtract_TextUploadReturnsWorkbook(t *testing.T) {
	t.Parallel()

	s := newTestServer(`{"Revenue_Actual_1": 12.5}`)
	rec := postText(t, s.Routes(), "Revenue\n12.5", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Fatal("run id header missing")
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}
}

func TestHandleExtract_CandidateSelectionFields(t *testing.T) {
	t.Parallel()

	reply := `{"EBITDA_Candidates": {"Adj.": {"Actual_1": 10}, "Rep.": {"Actual_1": 8}}}`
	s := newTestServer(reply)
	rec := postText(t, s.Routes(), "EBITDA\n10", map[string]string{"select.EBITDA": "Adj."})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHandleExtract_AmbiguousMetricWithoutSelectionIs409(t *testing.T) {
	t.Parallel()

	reply := `{"EBITDA_Candidates": {"Adj.": {"Actual_1": 10}, "Rep.": {"Actual_1": 8}}}`
	s := newTestServer(reply)
	rec := postText(t, s.Routes(), "EBITDA\n10", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["metric"] != "EBITDA" {
		t.Fatalf("metric missing from response: %v", out)
	}
	labels, ok := out["labels"].([]any)
	if !ok || len(labels) != 2 || labels[0] != "Adj." || labels[1] != "Rep." {
		t.Fatalf("candidate labels must be listed for re-submission: %v", out["labels"])
	}
}

func TestHandleExtract_NoData(t *testing.T) {
	t.Parallel()

	s := newTestServer(`{"error": "No financial data found"}`)
	rec := postText(t, s.Routes(), "lorem ipsum", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["no_data"] != true {
		t.Fatalf("want no_data outcome, got %v", out)
	}
}

func TestHandleExtract_ParseFailureIs422(t *testing.T) {
	t.Parallel()

	s := newTestServer("not json at all")
	rec := postText(t, s.Routes(), "text", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleExtract_MissingFile(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("select.EBITDA", "Adj.")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestServer("{}").Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestServer("{}").Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
