package llm

import "context"

// ModelClient is the extraction-model boundary: one prompt in, the model's
// free-form reply out. The remote side enforces no schema; ParseResponse does.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MetricSpec selects one of the request-shape variants used across template
// generations. It is data: two binaries with different specs share every line
// of pipeline code.
type MetricSpec struct {
	ActualYears           int  // 2 or 3
	ProjectionYears       int  // 5 or 6
	PreferAdjustedEBITDA  bool // bias the model toward "Adjusted" EBITDA labels
	PreferMaintCapExLabel bool // ask for maintenance (not total) capex
	IncludeAcquisitions   bool // request the acquisition-count series
	IncludeYearHeaders    bool // request Header_E17 / Header_H17
	// LTMHeaderFormat renders the Header_H17 label from the two-digit earliest
	// actual year. The exact product rule is unsettled; it stays configurable.
	LTMHeaderFormat string
}

// DefaultSpec matches the current LBO template generation.
func DefaultSpec() MetricSpec {
	return MetricSpec{
		ActualYears:           3,
		ProjectionYears:       5,
		PreferAdjustedEBITDA:  true,
		PreferMaintCapExLabel: true,
		IncludeAcquisitions:   true,
		IncludeYearHeaders:    true,
		LTMHeaderFormat:       "LTM JUNE-%sE",
	}
}

func (s MetricSpec) withDefaults() MetricSpec {
	if s.ActualYears != 2 && s.ActualYears != 3 {
		s.ActualYears = 3
	}
	if s.ProjectionYears != 5 && s.ProjectionYears != 6 {
		s.ProjectionYears = 5
	}
	if s.LTMHeaderFormat == "" {
		s.LTMHeaderFormat = "LTM JUNE-%sE"
	}
	return s
}
