package mapping

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestApply_PartialDataEmitsOnlyPresentKeys(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	writes := table.Apply(map[string]any{"Revenue_Actual_1": float64(12)})
	if len(writes) != 1 {
		t.Fatalf("want exactly one write, got %d: %v", len(writes), writes)
	}
	w := writes[0]
	if w.Key != "Revenue_Actual_1" || w.Sheet != "Model" || w.Cell != "E18" || w.Value != float64(12) {
		t.Fatalf("unexpected write: %+v", w)
	}
}

func TestApply_Deterministic(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	result := map[string]any{
		"Revenue_Actual_1": float64(1),
		"EBITDA_Proj_Y3":   float64(2),
		"Num_Acq_Expected": float64(3),
		"Header_E17":       "2022",
	}
	first := table.Apply(result)
	for i := 0; i < 10; i++ {
		if again := table.Apply(result); !reflect.DeepEqual(first, again) {
			t.Fatalf("apply is not deterministic:\n%v\n%v", first, again)
		}
	}
	if len(first) != 4 {
		t.Fatalf("want 4 writes, got %d", len(first))
	}
}

func TestApply_IgnoresUnmappedKeys(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	writes := table.Apply(map[string]any{
		"EBITDA_Candidates": map[string]any{},
		"Bogus_Key":         float64(1),
	})
	if len(writes) != 0 {
		t.Fatalf("unmapped keys must emit nothing: %v", writes)
	}
}

func TestValidate_DefaultTable(t *testing.T) {
	t.Parallel()

	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("default table must validate: %v", err)
	}
}

func TestValidate_DuplicateDestination(t *testing.T) {
	t.Parallel()

	table := Table{
		"Revenue_Expected": {Sheet: "Model", Cell: "H18"},
		"Revenue_Proj_Y1":  {Sheet: "Model", Cell: "H18"},
	}
	if err := table.Validate(); err == nil {
		t.Fatal("duplicate destination cell must be rejected at load time")
	}
}

func TestValidate_EmptyRef(t *testing.T) {
	t.Parallel()

	if err := (Table{"Revenue_Actual_1": {Sheet: "", Cell: "E18"}}).Validate(); err == nil {
		t.Fatal("empty sheet must be rejected")
	}
}

func TestLoad_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	doc := "Revenue_Actual_1:\n  sheet: Model\n  cell: E18\nEBITDA_Actual_1:\n  sheet: Model\n  cell: E19\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table["EBITDA_Actual_1"] != (CellRef{Sheet: "Model", Cell: "E19"}) {
		t.Fatalf("unexpected table: %v", table)
	}
}

func TestLoad_DuplicateDestinationFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	doc := "A:\n  sheet: Model\n  cell: E18\nB:\n  sheet: Model\n  cell: E18\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("duplicate destinations in a loaded table must fail")
	}
}
