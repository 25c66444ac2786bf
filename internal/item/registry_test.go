package item

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTypeCode(t *testing.T) {
	if JewelOfChaos != 6159 {
		t.Fatalf("expected jewel of chaos type 6159, got %d", JewelOfChaos)
	}
	if JewelOfChaos.Group() != 12 || JewelOfChaos.Index() != 15 {
		t.Fatalf("unexpected split %d/%d", JewelOfChaos.Group(), JewelOfChaos.Index())
	}
	it := Item{Group: 14, Index: 53}
	if it.Type() != CharmOfLuck {
		t.Fatalf("expected charm of luck, got %d", it.Type())
	}
}

func TestNilRegistryIsEmpty(t *testing.T) {
	var r *Registry
	if r.IsWing(MakeType(12, 0)) {
		t.Fatal("nil registry reported a wing")
	}
	if _, ok := r.MixValue(JewelOfChaos); ok {
		t.Fatal("nil registry reported a mix value")
	}
	if w, h := r.Size(JewelOfChaos); w != 1 || h != 1 {
		t.Fatalf("expected 1x1 default size, got %dx%d", w, h)
	}
	if r.Len() != 0 || r.Export() != nil {
		t.Fatal("nil registry should be empty")
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	data := []byte(`items:
  - {group: 12, index: 15, name: Jewel of Chaos, width: 1, height: 1, jewel: true, mix_value: 40000}
  - {group: 12, index: 3, name: Wings of Spirits, width: 3, height: 2, wing: true}
  - {group: 14, index: 53, name: Charm of Luck, stackable: true}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", r.Len())
	}
	if v, ok := r.MixValue(JewelOfChaos); !ok || v != 40000 {
		t.Fatalf("expected mix value 40000, got %d (%v)", v, ok)
	}
	if !r.IsJewel(JewelOfChaos) || r.IsWing(JewelOfChaos) {
		t.Fatal("jewel of chaos classification wrong")
	}
	if !r.IsWing(MakeType(12, 3)) {
		t.Fatal("expected wing")
	}
	if w, h := r.Size(MakeType(12, 3)); w != 3 || h != 2 {
		t.Fatalf("expected 3x2, got %dx%d", w, h)
	}
	if !r.IsStackable(CharmOfLuck) {
		t.Fatal("expected stackable charm")
	}
	exported := r.Export()
	if exported[0].Type() != MakeType(12, 3) {
		t.Fatalf("export not sorted: %+v", exported)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d items", r.Len())
	}
}

func TestRegisterRejectsInvalidType(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Details{Group: 1, Index: MaxIndex}); err == nil {
		t.Fatal("expected error for out of range index")
	}
}

func TestItemValid(t *testing.T) {
	tests := []struct {
		it   Item
		want bool
	}{
		{Item{Group: 12, Index: 15}, true},
		{Item{Group: MaxGroup - 1, Index: MaxIndex - 1}, true},
		{Item{Group: 11, Index: 527}, false},
		{Item{Group: 0, Index: -1}, false},
		{Item{Group: -1, Index: 3}, false},
		{Item{Group: MaxGroup, Index: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.it.Valid(); got != tt.want {
			t.Errorf("Valid(%d/%d) = %v, want %v", tt.it.Group, tt.it.Index, got, tt.want)
		}
	}
	if r := NewRegistry(); r.Register(Details{Group: MaxGroup, Index: 0}) == nil {
		t.Fatal("expected error for out of range group")
	}
}
