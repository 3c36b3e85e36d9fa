package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

// BuildExtractionPrompt composes the single structured-extraction instruction
// for the model: the exact key vocabulary for the configured periods, hardcoded
// values only, candidate grouping for competing labels, and the empty-result
// sentinel. Pure function; the normalized OCR text is embedded verbatim.
func BuildExtractionPrompt(normalizedText string, spec MetricSpec) string {
	spec = spec.withDefaults()
	periods := constants.PeriodKeys(spec.ActualYears, spec.ProjectionYears)

	metrics := []string{string(constants.Revenue), string(constants.EBITDA), string(constants.CapExMaint)}
	if spec.IncludeAcquisitions {
		metrics = append(metrics, string(constants.NumAcq))
	}

	var keys []string
	for _, m := range metrics {
		for _, p := range periods {
			keys = append(keys, m+"_"+p)
		}
	}

	var b strings.Builder
	b.WriteString("You are extracting financial figures from OCR text of a Confidential Information Memorandum. ")
	b.WriteString("Return a single JSON object and nothing else: no prose, no explanation, no markdown outside the object.\n\n")

	b.WriteString("Use exactly these keys for values you find (omit keys with no value in the text):\n")
	b.WriteString(strings.Join(keys, ", "))
	b.WriteString("\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Report only values hardcoded in the text. Never calculate, derive, or infer a figure.\n")
	b.WriteString(fmt.Sprintf("- %s are historical reported years (earliest first), %s is the current-year budget or guidance, %s onward are forecast years.\n",
		actualRange(spec.ActualYears), constants.PeriodExpected, constants.ProjPeriod(1)))
	b.WriteString("- Use plain numbers (no currency symbols, no thousands separators). Negative values in parentheses are negative numbers.\n")
	if spec.PreferMaintCapExLabel {
		b.WriteString("- For " + string(constants.CapExMaint) + ", use figures labeled as maintenance capital expenditures, not total capex.\n")
	}
	if spec.PreferAdjustedEBITDA {
		b.WriteString("- When the document distinguishes adjusted and reported EBITDA, prefer the adjusted figure, but still report every labeled variant as described below.\n")
	}
	b.WriteString("- If a metric appears under multiple labels (e.g. \"Adj. EBITDA\" and \"Reported EBITDA\"), do not pick one. ")
	b.WriteString("Group them under \"<Metric>" + constants.CandidatesSuffix + "\" as an object mapping each label to its period values, e.g. ")
	b.WriteString(`{"EBITDA` + constants.CandidatesSuffix + `": {"Adj. EBITDA": {"Actual_1": 10.2}, "Reported EBITDA": {"Actual_1": 8.9}}}.` + "\n")

	if spec.IncludeYearHeaders {
		b.WriteString(fmt.Sprintf("- Also include %q: the earliest actual year as a bare year string (e.g. \"2022\"), and %q: the string %q where YY is the two-digit form of that year.\n",
			constants.HeaderEarliestActual, constants.HeaderLTM, fmt.Sprintf(spec.LTMHeaderFormat, "{YY}")))
	}

	b.WriteString(fmt.Sprintf("- If the text contains no financial data at all, return exactly {\"error\": %q}.\n", constants.NoDataSentinel))

	b.WriteString("\nText to analyze:\n")
	b.WriteString(normalizedText)
	return b.String()
}

func actualRange(n int) string {
	if n == 2 {
		return constants.ActualPeriod(1) + ".." + constants.ActualPeriod(2)
	}
	return constants.ActualPeriod(1) + ".." + constants.ActualPeriod(3)
}
