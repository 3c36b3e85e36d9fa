// Package mapping projects a resolved extraction result onto the fixed cell
// layout of the LBO template workbook.
package mapping

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/cim-extractor/internal/common"
)

// CellRef addresses one destination cell in the template.
type CellRef struct {
	Sheet string `yaml:"sheet"`
	Cell  string `yaml:"cell"`
}

// Table maps metric-period keys to destination cells. Loaded once, read-only
// afterwards.
type Table map[string]CellRef

// Write is one emitted (sheet, cell, value) assignment. Entries are
// independent: no write depends on another's outcome.
type Write struct {
	Key   string
	Sheet string
	Cell  string
	Value any
}

// Load reads a table from a YAML file and validates it.
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, common.NewAppError(common.CodeMappingTable, "mapping table is not valid YAML", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate rejects malformed entries and duplicate destination cells.
// Observed legacy tables aimed two source keys at one cell; that is an
// authoring defect caught here at load time, not a last-write-wins race.
func (t Table) Validate() error {
	seen := make(map[CellRef]string, len(t))
	for _, key := range t.sortedKeys() {
		ref := t[key]
		if ref.Sheet == "" || ref.Cell == "" {
			return common.NewAppError(common.CodeMappingTable,
				fmt.Sprintf("entry %q has an empty sheet or cell", key), nil)
		}
		if prev, dup := seen[ref]; dup {
			return common.NewAppError(common.CodeMappingTable,
				fmt.Sprintf("keys %q and %q both target %s!%s", prev, key, ref.Sheet, ref.Cell), nil)
		}
		seen[ref] = key
	}
	return nil
}

// Apply emits one write per table entry whose key is present in the result.
// Missing keys are skipped silently: absent data points are expected. Output
// order is the sorted key order, so identical inputs produce identical write
// sequences.
func (t Table) Apply(result map[string]any) []Write {
	writes := make([]Write, 0, len(t))
	for _, key := range t.sortedKeys() {
		v, ok := result[key]
		if !ok {
			continue
		}
		ref := t[key]
		writes = append(writes, Write{Key: key, Sheet: ref.Sheet, Cell: ref.Cell, Value: v})
	}
	return writes
}

func (t Table) sortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
