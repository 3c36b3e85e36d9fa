package llm

import (
	"github.com/joseph-ayodele/cim-extractor/constants"
)

// BuildExtractionJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the reply shape BuildExtractionPrompt asks for.
// The remote side enforces nothing, and the parser stays tolerant; this
// schema is advisory — the pipeline validates against it and logs drift
// instead of rejecting.
func BuildExtractionJSONSchema(spec MetricSpec) map[string]any {
	spec = spec.withDefaults()
	periods := constants.PeriodKeys(spec.ActualYears, spec.ProjectionYears)

	metrics := []string{string(constants.Revenue), string(constants.EBITDA), string(constants.CapExMaint)}
	if spec.IncludeAcquisitions {
		metrics = append(metrics, string(constants.NumAcq))
	}

	props := map[string]any{
		"error": map[string]any{"type": "string"},
	}
	for _, m := range metrics {
		for _, p := range periods {
			props[m+"_"+p] = valueProp()
		}
		props[m+constants.CandidatesSuffix] = candidatesProp(periods)
	}
	if spec.IncludeYearHeaders {
		props[constants.HeaderEarliestActual] = map[string]any{"type": "string"}
		props[constants.HeaderLTM] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func valueProp() map[string]any {
	return map[string]any{"type": []string{"number", "string", "null"}}
}

func candidatesProp(periods []string) map[string]any {
	periodProps := map[string]any{}
	for _, p := range periods {
		periodProps[p] = valueProp()
	}
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type":                 "object",
			"properties":           periodProps,
			"additionalProperties": false,
		},
	}
}
