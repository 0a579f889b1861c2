package flowstate

import (
	"reflect"
	"testing"
)

func TestNormalizeSpecsTrimsAndDefaults(t *testing.T) {
	specs := NormalizeSpecs([]FlowSpec{
		{Name: "  Init ", To: []string{" Edit", "Review "}},
		{Name: "Edit"},
		{Name: "Saved ", Terminal: true},
	})

	if len(specs) != 3 {
		t.Fatalf("expected three specs, got %d", len(specs))
	}
	if specs[0].Name != "Init" {
		t.Fatalf("expected trimmed name Init, got %q", specs[0].Name)
	}
	if !reflect.DeepEqual(specs[0].To, []string{"Edit", "Review"}) {
		t.Fatalf("expected trimmed targets, got %v", specs[0].To)
	}
	if specs[1].To != nil {
		t.Fatalf("expected nil targets for Edit, got %v", specs[1].To)
	}
	if specs[1].Terminal {
		t.Fatalf("expected terminal default false")
	}
	if !specs[2].Terminal || specs[2].Name != "Saved" {
		t.Fatalf("expected terminal Saved, got %+v", specs[2])
	}
}

func TestNormalizeSpecsEmptyInput(t *testing.T) {
	if out := NormalizeSpecs(nil); out != nil {
		t.Fatalf("expected nil for empty input, got %v", out)
	}
}
