package constants

// Metric is a canonical metric prefix as written into the output template.
type Metric string

const (
	Revenue    Metric = "Revenue"
	EBITDA     Metric = "EBITDA"
	CapExMaint Metric = "CapEx_Maint"
	NumAcq     Metric = "Num_Acq"
)

var allMetrics = []Metric{
	Revenue,
	EBITDA,
	CapExMaint,
	NumAcq,
}

// MetricPrefixes returns the canonical prefixes in output order.
func MetricPrefixes() []string {
	result := make([]string, len(allMetrics))
	for i, m := range allMetrics {
		result[i] = string(m)
	}
	return result
}

// MetricAliases maps legacy metric prefixes, seen in older extraction
// prompts, to the canonical ones. Renaming is additive: the old key is kept
// so a stale consumer of the legacy name still finds its value.
var MetricAliases = map[string]string{
	"Maintenance_CapEx": string(CapExMaint),
	"Acquisition_Count": string(NumAcq),
}
