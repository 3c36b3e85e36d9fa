package constants

import "fmt"

// Period names are fixed and metric-independent: a metric series never
// introduces new period keys. Keys in an extraction result are
// "<Metric>_<Period>", e.g. "EBITDA_Proj_Y3".
const (
	PeriodExpected = "Expected"

	MaxActualYears     = 3
	MaxProjectionYears = 6
)

// CandidatesSuffix marks a nested set of labeled variants for one metric,
// e.g. "EBITDA_Candidates". Candidate sets survive flattening and are only
// merged away by resolution.
const CandidatesSuffix = "_Candidates"

// Header fields emitted when the metric spec asks for year headers.
const (
	HeaderEarliestActual = "Header_E17"
	HeaderLTM            = "Header_H17"
)

// NoDataSentinel is the exact value of the "error" key the extraction model
// returns when the document contains no financial data. It is a legitimate
// terminal outcome, not a parse failure.
const NoDataSentinel = "No financial data found"

func ActualPeriod(i int) string { return fmt.Sprintf("Actual_%d", i) }
func ProjPeriod(i int) string   { return fmt.Sprintf("Proj_Y%d", i) }

// PeriodKeys returns the ordered period vocabulary for a configuration of
// actualYears historical columns and projectionYears forecast columns.
// Out-of-range arguments are clamped to the supported configurations.
func PeriodKeys(actualYears, projectionYears int) []string {
	if actualYears < 2 {
		actualYears = 2
	}
	if actualYears > MaxActualYears {
		actualYears = MaxActualYears
	}
	if projectionYears < 5 {
		projectionYears = 5
	}
	if projectionYears > MaxProjectionYears {
		projectionYears = MaxProjectionYears
	}
	keys := make([]string, 0, actualYears+1+projectionYears)
	for i := 1; i <= actualYears; i++ {
		keys = append(keys, ActualPeriod(i))
	}
	keys = append(keys, PeriodExpected)
	for i := 1; i <= projectionYears; i++ {
		keys = append(keys, ProjPeriod(i))
	}
	return keys
}

// AllPeriodKeys is the widest vocabulary (3 actuals, 6 projections). Rename
// and merge passes iterate this superset so narrower configurations are
// covered for free.
var AllPeriodKeys = PeriodKeys(MaxActualYears, MaxProjectionYears)
