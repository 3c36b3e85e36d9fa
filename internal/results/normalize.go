// Package results canonicalizes a parsed extraction result: nested metric
// objects are flattened, legacy prefixes renamed, and competing labeled
// variants resolved to one chosen series. Every transform takes a result and
// returns a new one; the stage order (flatten, rename, resolve) is fixed by
// the pipeline, never by call-site accident.
package results

import (
	"maps"
	"strings"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

// Flatten replaces every top-level object value with one entry per sub-key,
// named "<key>_<subkey>". One level only: that is the full nesting depth of
// period-keyed metric objects. Candidate sets stay nested — they flatten only
// through resolution.
func Flatten(result map[string]any) map[string]any {
	out := make(map[string]any, len(result))
	for k, v := range result {
		nested, ok := v.(map[string]any)
		if !ok || strings.HasSuffix(k, constants.CandidatesSuffix) {
			out[k] = v
			continue
		}
		for sub, sv := range nested {
			out[k+"_"+sub] = sv
		}
	}
	return out
}

// RenameAliases introduces the canonical key for every legacy-prefixed entry.
// Additive: the legacy key stays, so nothing that still reads the old name
// loses data. An existing canonical value is never overwritten.
func RenameAliases(result map[string]any) map[string]any {
	out := maps.Clone(result)
	for legacy, canonical := range constants.MetricAliases {
		for _, suffix := range renameSuffixes() {
			oldKey := legacy + suffix
			newKey := canonical + suffix
			if v, ok := out[oldKey]; ok {
				if _, exists := out[newKey]; !exists {
					out[newKey] = v
				}
			}
		}
	}
	return out
}

func renameSuffixes() []string {
	suffixes := make([]string, 0, len(constants.AllPeriodKeys)+1)
	for _, p := range constants.AllPeriodKeys {
		suffixes = append(suffixes, "_"+p)
	}
	return append(suffixes, constants.CandidatesSuffix)
}
