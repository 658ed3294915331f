package connspec

import (
	"testing"
)

func TestExpandNames(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"a", []string{"a"}},
		{"a, b", []string{"a", "b"}},
		{"data[0]", []string{"data[0]"}},
		{"data[0..3]", []string{"data[0]", "data[1]", "data[2]", "data[3]"}},
		{"a, data[0..2], b", []string{"a", "data[0]", "data[1]", "data[2]", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ExpandNames(tt.spec)
			if err != nil {
				t.Fatalf("ExpandNames(%q): %v", tt.spec, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ExpandNames(%q) = %v, want %v", tt.spec, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ExpandNames(%q)[%d] = %q, want %q", tt.spec, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExpandNamesRejectsAssignments(t *testing.T) {
	if _, err := ExpandNames("a=b"); err == nil {
		t.Fatal("expected an error for an assignment form in a pin-list context")
	}
}

func TestParserNextAssignments(t *testing.T) {
	p := &Parser{Input: "a=b, c[0..1]=d[0..1]"}

	item, err := p.Next(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assign, ok := item.(PinAssignment)
	if !ok {
		t.Fatalf("expected a PinAssignment, got %T", item)
	}
	if assign.LHS.(Pin).Name != "a" || assign.RHS.(Pin).Name != "b" {
		t.Fatalf("unexpected assignment: %+v", assign)
	}

	item, err = p.Next(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assign, ok = item.(PinAssignment)
	if !ok {
		t.Fatalf("expected a PinAssignment, got %T", item)
	}
	if assign.LHS.(PinRange).Name != "c" || assign.RHS.(PinRange).Name != "d" {
		t.Fatalf("unexpected range assignment: %+v", assign)
	}

	item, err = p.Next(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Fatalf("expected exhausted input, got %v", item)
	}
}
