package steps

import "testing"

func TestMerge(t *testing.T) {
	current := Facts{LovedOneName: "Sarah", Intent: "comprendre"}

	merged, changed := Merge(current, Facts{Intent: "tourner la page", EmotionalState: "triste"})
	if !changed {
		t.Fatalf("expected change")
	}
	want := Facts{LovedOneName: "Sarah", Intent: "tourner la page", EmotionalState: "triste"}
	if merged != want {
		t.Fatalf("merged=%+v", merged)
	}

	merged, changed = Merge(want, Facts{LovedOneName: "  ", Intent: "tourner la page"})
	if changed {
		t.Fatalf("blank or equal observations must not count as change")
	}
	if merged != want {
		t.Fatalf("known facts erased: %+v", merged)
	}

	if _, changed := Merge(Facts{}, Facts{}); changed {
		t.Fatalf("empty merge changed")
	}
}
