package llm

import (
	"strings"
	"testing"
)

func TestBuildExtractionPrompt_EnumeratesConfiguredPeriods(t *testing.T) {
	t.Parallel()

	spec := DefaultSpec()
	spec.ActualYears = 2
	spec.ProjectionYears = 5
	p := BuildExtractionPrompt("some text", spec)

	for _, want := range []string{"Revenue_Actual_1", "Revenue_Actual_2", "EBITDA_Expected", "CapEx_Maint_Proj_Y5", "Num_Acq_Proj_Y1"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing key %q", want)
		}
	}
	for _, reject := range []string{"Revenue_Actual_3", "EBITDA_Proj_Y6"} {
		if strings.Contains(p, reject) {
			t.Fatalf("prompt must not mention %q in a 2/5 configuration", reject)
		}
	}
}

func TestBuildExtractionPrompt_NinePeriodConfiguration(t *testing.T) {
	t.Parallel()

	spec := DefaultSpec()
	spec.ActualYears = 3
	spec.ProjectionYears = 6
	p := BuildExtractionPrompt("x", spec)
	if !strings.Contains(p, "Revenue_Actual_3") || !strings.Contains(p, "EBITDA_Proj_Y6") {
		t.Fatal("9-period configuration must enumerate Actual_3 and Proj_Y6")
	}
}

func TestBuildExtractionPrompt_AcquisitionsToggle(t *testing.T) {
	t.Parallel()

	spec := DefaultSpec()
	spec.IncludeAcquisitions = false
	if strings.Contains(BuildExtractionPrompt("x", spec), "Num_Acq") {
		t.Fatal("Num_Acq must be absent when acquisitions are excluded")
	}
}

func TestBuildExtractionPrompt_HeadersToggle(t *testing.T) {
	t.Parallel()

	spec := DefaultSpec()
	spec.IncludeYearHeaders = true
	p := BuildExtractionPrompt("x", spec)
	if !strings.Contains(p, "Header_E17") || !strings.Contains(p, "Header_H17") {
		t.Fatal("headers requested but not in prompt")
	}
	if !strings.Contains(p, "LTM JUNE-{YY}E") {
		t.Fatalf("LTM label rule missing")
	}

	spec.IncludeYearHeaders = false
	p = BuildExtractionPrompt("x", spec)
	if strings.Contains(p, "Header_E17") {
		t.Fatal("headers must be absent when not requested")
	}
}

func TestBuildExtractionPrompt_ContractLines(t *testing.T) {
	t.Parallel()

	p := BuildExtractionPrompt("THE DOCUMENT BODY", DefaultSpec())
	if !strings.Contains(p, "THE DOCUMENT BODY") {
		t.Fatal("normalized text must be embedded verbatim")
	}
	if !strings.Contains(p, "_Candidates") {
		t.Fatal("candidate-grouping instruction missing")
	}
	if !strings.Contains(p, `{"error": "No financial data found"}`) {
		t.Fatal("empty-result sentinel missing")
	}
	if !strings.Contains(p, "Never calculate") {
		t.Fatal("hardcoded-values-only rule missing")
	}
}

func TestValidateAgainstSchema_AcceptsTypicalResult(t *testing.T) {
	t.Parallel()

	schema := BuildExtractionJSONSchema(DefaultSpec())
	doc := map[string]any{
		"Revenue_Actual_1": 10.5,
		"EBITDA_Candidates": map[string]any{
			"Adj. EBITDA": map[string]any{"Actual_1": 4.2},
		},
		"Header_E17": "2022",
	}
	if err := ValidateAgainstSchema(schema, doc); err != nil {
		t.Fatalf("typical result should validate: %v", err)
	}
}

func TestValidateAgainstSchema_FlagsUnknownKeys(t *testing.T) {
	t.Parallel()

	schema := BuildExtractionJSONSchema(DefaultSpec())
	doc := map[string]any{"Gross_Margin_Actual_1": 1.0}
	if err := ValidateAgainstSchema(schema, doc); err == nil {
		t.Fatal("unknown metric key should be reported as drift")
	}
}
