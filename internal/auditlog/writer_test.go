package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	clock := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	matched := mix.Recipe{Category: mix.CategoryGoblinNormal, Index: 1, MixID: 2}
	first := NewEntry("player-1", mix.FacilityGoblin, 2, mix.Result{Matched: &matched, SuccessRate: 100, RequiredCurrency: 1000000})
	if err := w.Write(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	similar := mix.Recipe{Category: mix.CategoryChaosCard, Index: 0}
	if err := w.Write(NewEntry("player-2", mix.FacilityChaosCard, 1, mix.Result{Similar: &similar})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := ReadFile(filepath.Join(dir, "mix-2024-03-09-14.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" || entries[1].ID == "" || e.ID == entries[1].ID {
		t.Fatalf("expected distinct ids, got %q and %q", e.ID, entries[1].ID)
	}
	if !e.Time.Equal(clock) || e.PlayerID != "player-1" || e.Facility != "goblin" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Matched == nil || *e.Matched != matched.Key() || e.MatchedID != 2 || e.RequiredZen != 1000000 {
		t.Fatalf("unexpected match data %+v", e)
	}
	if entries[1].Matched != nil || entries[1].Similar == nil || entries[1].Similar.Category != mix.CategoryChaosCard {
		t.Fatalf("unexpected similar data %+v", entries[1])
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	clock := time.Date(2024, 3, 9, 14, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(Entry{PlayerID: "a"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(Entry{PlayerID: "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "mix-*.jsonl.zst"))
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	for _, f := range files {
		entries, err := ReadFile(f)
		if err != nil || len(entries) != 1 {
			t.Fatalf("%s: expected one entry, got %d (%v)", f, len(entries), err)
		}
	}
}

func TestWriterFlushesEachEntry(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	defer w.Close()
	w.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

	for _, id := range []string{"a", "b"} {
		if err := w.Write(Entry{PlayerID: id}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	// the hourly file is still open
	entries, err := ReadFile(filepath.Join(dir, "mix-2024-03-09-14.jsonl.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 || entries[0].PlayerID != "a" || entries[1].PlayerID != "b" {
		t.Fatalf("expected both entries before close, got %+v", entries)
	}
}
