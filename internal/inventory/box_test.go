package inventory

import (
	"errors"
	"testing"

	"github.com/bernatvadell/muonline-sub002/internal/item"
)

var wings = item.Item{Group: 12, Index: 3, Level: 9, Durability: 200}

func jewel() item.Item { return item.Item{Group: 12, Index: 15, Durability: 1} }

func testRegistry() *item.Registry {
	return item.NewRegistry(
		item.Details{Group: 12, Index: 3, Width: 3, Height: 2, Wing: true},
		item.Details{Group: 0, Index: 5, Width: 1, Height: 4},
	)
}

func TestBoxPlacement(t *testing.T) {
	box := New(4, 3, WithSizer(testRegistry()))
	if _, err := box.Add(wings, &Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	// overlapping placement should fail
	if _, err := box.Add(jewel(), &Point{X: 2, Y: 1}); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected overlap error, got %v", err)
	}
	// out of bounds
	if _, err := box.Add(jewel(), &Point{X: 4, Y: 0}); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected bounds error, got %v", err)
	}
	// first fit lands right of the wings
	idx, err := box.Add(jewel(), nil)
	if err != nil {
		t.Fatalf("unexpected auto-place error: %v", err)
	}
	if p := box.Stacks[idx].Position; p != (Point{X: 3, Y: 0}) {
		t.Fatalf("expected first fit at (3,0), got %+v", p)
	}
	// a 1x4 sword never fits in a 3 row box
	if _, err := box.Add(item.Item{Group: 0, Index: 5}, nil); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected no space, got %v", err)
	}
}

func TestBoxRemoveFreesCells(t *testing.T) {
	box := New(3, 2, WithSizer(testRegistry()))
	if _, err := box.Add(wings, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := box.Add(jewel(), nil); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected full box, got %v", err)
	}
	got, err := box.Remove(0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.Type() != wings.Type() {
		t.Fatalf("removed wrong item %+v", got)
	}
	if _, err := box.Add(jewel(), &Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("expected freed cell, got %v", err)
	}
	if _, err := box.Remove(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestBoxItemsIsCopy(t *testing.T) {
	box := New(0, 0)
	if box.Width != DefaultWidth || box.Height != DefaultHeight {
		t.Fatalf("expected default size, got %dx%d", box.Width, box.Height)
	}
	_, _ = box.Add(jewel(), nil)
	items := box.Items()
	items[0].Level = 15
	if box.Items()[0].Level != 0 {
		t.Fatal("Items must return a copy")
	}
	box.Clear()
	if box.Len() != 0 || len(box.Items()) != 0 {
		t.Fatal("expected empty box after clear")
	}
	if _, err := box.Add(jewel(), &Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("expected free grid after clear, got %v", err)
	}
}

func TestBoxFilter(t *testing.T) {
	onlyJewels := func(it item.Item) bool { return it.Type() == item.JewelOfChaos }
	box := New(8, 4, WithFilter(onlyJewels))
	if _, err := box.Add(wings, nil); !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if _, err := box.Add(jewel(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
