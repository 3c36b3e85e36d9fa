package results

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/cim-extractor/constants"
)

// Selector is the interactive-selection capability: given a metric prefix
// and the labels the extraction surfaced for it, produce exactly one label.
// The real deployment prompts a human; tests and non-interactive surfaces
// inject a double.
type Selector interface {
	Select(ctx context.Context, metricPrefix string, labels []string) (string, error)
}

// AmbiguousMetricError reports a metric with several extracted variants and
// no selection to break the tie. Labels are in sorted order so the caller
// can present them for a re-submission.
type AmbiguousMetricError struct {
	Prefix string
	Labels []string
}

func (e *AmbiguousMetricError) Error() string {
	return fmt.Sprintf("metric %s has %d variants and no selection: %v", e.Prefix, len(e.Labels), e.Labels)
}

// FixedSelector picks from a prepared label-per-prefix table. Used by tests
// and by the HTTP surface, where choices arrive with the request. A metric
// with several variants and no prepared choice is an AmbiguousMetricError,
// never a silent pick.
type FixedSelector struct {
	Choices map[string]string
}

func (s FixedSelector) Select(_ context.Context, prefix string, labels []string) (string, error) {
	if want, ok := s.Choices[prefix]; ok {
		for _, l := range labels {
			if l == want {
				return l, nil
			}
		}
		return "", fmt.Errorf("selection %q for %s is not one of the extracted labels", want, prefix)
	}
	if len(labels) == 1 {
		return labels[0], nil
	}
	return "", &AmbiguousMetricError{Prefix: prefix, Labels: labels}
}

// Resolve merges the chosen labeled variant of one metric family into the
// flat result. Absent candidates are a no-op; a single variant auto-selects
// without consulting the selector; multiple variants require a selection.
// Periods the chosen variant does not define are left untouched.
func Resolve(ctx context.Context, result map[string]any, metricPrefix string, sel Selector, logger *slog.Logger) (map[string]any, error) {
	if logger == nil {
		logger = slog.Default()
	}
	key := metricPrefix + constants.CandidatesSuffix
	raw, ok := result[key]
	if !ok {
		return result, nil
	}

	candidates, ok := raw.(map[string]any)
	if !ok || len(candidates) == 0 {
		// malformed wrapper; keep the rest of the result usable
		logger.Warn("results.resolve.bad_candidates", "metric", metricPrefix)
		out := cloneWithout(result, key)
		return out, nil
	}

	labels := make([]string, 0, len(candidates))
	for l := range candidates {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var chosen string
	if len(labels) == 1 {
		chosen = labels[0]
		logger.Info("results.resolve.auto_selected", "metric", metricPrefix, "label", chosen)
	} else {
		picked, err := sel.Select(ctx, metricPrefix, labels)
		if err != nil {
			return nil, fmt.Errorf("select %s variant: %w", metricPrefix, err)
		}
		chosen = picked
		logger.Info("results.resolve.selected", "metric", metricPrefix, "label", chosen, "labels", len(labels))
	}

	series, ok := candidates[chosen].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("candidate %q of %s is not a period object", chosen, metricPrefix)
	}

	out := cloneWithout(result, key)
	for _, period := range constants.AllPeriodKeys {
		if v, ok := series[period]; ok {
			out[metricPrefix+"_"+period] = v
		}
	}
	return out, nil
}

func cloneWithout(result map[string]any, key string) map[string]any {
	out := make(map[string]any, len(result))
	for k, v := range result {
		if k == key {
			continue
		}
		out[k] = v
	}
	return out
}
