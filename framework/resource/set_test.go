package resource

import (
	"testing"
)

func TestSet_AddRemoveHas(t *testing.T) {
	s := NewSet()
	n1 := NewNode("n1")

	if s.Has(n1) {
		t.Error("empty set should not contain n1")
	}

	s.Add(n1)
	if !s.Has(n1) {
		t.Error("expected set to contain n1 after Add")
	}
	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}

	// Adding the same handle twice is a no-op
	s.Add(n1)
	if s.Len() != 1 {
		t.Errorf("expected length 1 after duplicate Add, got %d", s.Len())
	}

	s.Remove(n1)
	if s.Has(n1) {
		t.Error("expected set to not contain n1 after Remove")
	}
}

func TestSet_Diff(t *testing.T) {
	before := NewSet(NewNode("n1"), NewNode("n2"))
	after := NewSet(NewNode("n1"), NewNode("n2"), NewNode("n3"), NewNode("n4"))

	added := after.Diff(before)
	if added.Len() != 2 {
		t.Fatalf("expected 2 new handles, got %d", added.Len())
	}
	if !added.Has(NewNode("n3")) || !added.Has(NewNode("n4")) {
		t.Errorf("expected diff to contain n3 and n4, got %v", added.Names())
	}

	removed := before.Diff(after)
	if removed.Len() != 0 {
		t.Errorf("expected empty diff, got %v", removed.Names())
	}
}

func TestSet_DiffDistinguishesKind(t *testing.T) {
	s := NewSet(NewNode("x"))
	other := NewSet(NewPod("x"))

	// Same name, different kind: not the same handle
	if s.Diff(other).Len() != 1 {
		t.Error("expected Node/x to differ from Pod/x")
	}
}

func TestSet_NamesSorted(t *testing.T) {
	s := NewSet(NewNode("zeta"), NewNode("alpha"), NewNode("mid"))
	names := s.Names()

	expected := []string{"alpha", "mid", "zeta"}
	for i, n := range expected {
		if names[i] != n {
			t.Errorf("expected names[%d]=%q, got %q", i, n, names[i])
		}
	}
}

func TestHandle_String(t *testing.T) {
	h := NewNode("worker-0")
	if h.String() != "Node/worker-0" {
		t.Errorf("expected 'Node/worker-0', got %q", h.String())
	}
}
