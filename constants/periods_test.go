package constants

import "testing"

func TestPeriodKeys_Ordering(t *testing.T) {
	t.Parallel()

	keys := PeriodKeys(3, 5)
	want := []string{
		"Actual_1", "Actual_2", "Actual_3",
		"Expected",
		"Proj_Y1", "Proj_Y2", "Proj_Y3", "Proj_Y4", "Proj_Y5",
	}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d: %v", len(keys), len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestPeriodKeys_Clamping(t *testing.T) {
	t.Parallel()

	if got := len(PeriodKeys(0, 0)); got != 2+1+5 {
		t.Fatalf("low arguments must clamp to 2/5, got %d keys", got)
	}
	if got := len(PeriodKeys(99, 99)); got != 3+1+6 {
		t.Fatalf("high arguments must clamp to 3/6, got %d keys", got)
	}
}

func TestAllPeriodKeys_IsWidest(t *testing.T) {
	t.Parallel()

	if len(AllPeriodKeys) != 10 {
		t.Fatalf("widest vocabulary must have 10 periods, got %d", len(AllPeriodKeys))
	}
	if AllPeriodKeys[len(AllPeriodKeys)-1] != "Proj_Y6" {
		t.Fatalf("last period must be Proj_Y6, got %s", AllPeriodKeys[len(AllPeriodKeys)-1])
	}
}
