package mixdb

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

func sampleDatabase() *Database {
	return NewDatabase(map[mix.Category][]mix.Recipe{
		mix.CategoryGoblinNormal: {sampleRecipe(1), sampleRecipe(2), sampleRecipe(3)},
		mix.CategoryElpis:        {sampleRecipe(4)},
	})
}

func mustPack(t *testing.T, db *Database, c cipher.Cipher) []byte {
	t.Helper()
	raw, err := Pack(db, c)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return raw
}

func TestPackDecode(t *testing.T) {
	bf, err := cipher.NewBlowfish([]byte("mix-test-key"))
	if err != nil {
		t.Fatalf("blowfish: %v", err)
	}
	for name, c := range map[string]cipher.Cipher{"bux": cipher.Bux{}, "blowfish": bf} {
		t.Run(name, func(t *testing.T) {
			raw := mustPack(t, sampleDatabase(), c)
			if len(raw) != HeaderSize+4*RecordSize {
				t.Fatalf("unexpected image size %d", len(raw))
			}
			db := Decode(raw, c)
			if db.Count() != 4 {
				t.Fatalf("expected 4 recipes, got %d", db.Count())
			}
			elpis := db.Recipes(mix.CategoryElpis)
			if len(elpis) != 1 || elpis[0].MixIndex != 4 || elpis[0].Category != mix.CategoryElpis {
				t.Fatalf("unexpected elpis recipes %+v", elpis)
			}
			goblin := db.Recipes(mix.CategoryGoblinNormal)
			for i, r := range goblin {
				if r.Index != i || r.MixIndex != int32(i+1) {
					t.Fatalf("recipe %d out of file order: %+v", i, r.Key())
				}
			}
		})
	}
}

func TestDecodeTruncatedCategory(t *testing.T) {
	db := NewDatabase(map[mix.Category][]mix.Recipe{
		mix.CategoryGoblinNormal: {sampleRecipe(1), sampleRecipe(2), sampleRecipe(3)},
	})
	raw := mustPack(t, db, nil)
	got := Decode(raw[:len(raw)-100], nil)
	if n := len(got.Recipes(mix.CategoryGoblinNormal)); n != 2 {
		t.Fatalf("expected 2 recipes kept, got %d", n)
	}
}

func TestDecodeLengthMismatchIsNotFatal(t *testing.T) {
	raw := mustPack(t, sampleDatabase(), nil)
	raw = append(raw, 1, 2, 3, 4)
	if n := Decode(raw, nil).Count(); n != 4 {
		t.Fatalf("expected trailing bytes to be ignored, got %d recipes", n)
	}
}

func TestDecodeShortHeader(t *testing.T) {
	db := Decode([]byte{1, 2, 3}, nil)
	if db.Count() != 0 {
		t.Fatalf("expected empty database, got %d", db.Count())
	}
	for c := mix.Category(0); c < mix.MaxCategories; c++ {
		if db.Recipes(c) != nil {
			t.Fatalf("category %s not empty", c)
		}
	}
}

// shortCipher returns a truncated block on the nth decrypt call.
type shortCipher struct {
	cipher.Bux
	calls  int
	broken int
}

func (s *shortCipher) Decrypt(src []byte) ([]byte, error) {
	s.calls++
	out, err := s.Bux.Decrypt(src)
	if s.calls == s.broken {
		return out[:len(out)/2], err
	}
	return out, err
}

func TestDecodeMalformedRecordTruncatesOnlyItsCategory(t *testing.T) {
	raw := mustPack(t, sampleDatabase(), nil)
	// call 1 is the header, call 3 the second goblin record
	db := Decode(raw, &shortCipher{broken: 3})
	if n := len(db.Recipes(mix.CategoryGoblinNormal)); n != 1 {
		t.Fatalf("expected goblin category cut to 1 recipe, got %d", n)
	}
	elpis := db.Recipes(mix.CategoryElpis)
	if len(elpis) != 1 || elpis[0].MixIndex != 4 {
		t.Fatalf("expected elpis recipe to survive, got %+v", elpis)
	}
}

func TestDecodeNeverExceedsArrays(t *testing.T) {
	r := sampleRecipe(1)
	r.NumRateData = 500
	r.NumSources = 50
	db := NewDatabase(map[mix.Category][]mix.Recipe{mix.CategoryTrainer: {r}})
	got := Decode(mustPack(t, db, nil), nil).Recipes(mix.CategoryTrainer)
	if len(got) != 1 {
		t.Fatalf("expected one recipe, got %d", len(got))
	}
	if got[0].NumSources > mix.MaxSources || got[0].NumRateData > mix.MaxRateTokens {
		t.Fatalf("counts not clamped: %d/%d", got[0].NumSources, got[0].NumRateData)
	}
}

func TestServiceEmbedded(t *testing.T) {
	svc := NewService(Embedded(), cipher.Bux{})
	counts := svc.Database().Counts()
	if counts[mix.CategoryGoblinNormal] != 2 || counts[mix.CategoryChaosCard] != 1 {
		t.Fatalf("unexpected embedded counts %v", counts)
	}

	e := mix.NewEngine(svc, nil)
	jewel := item.Item{Group: 12, Index: 15, Durability: 1}
	res := e.Evaluate(mix.FacilityGoblin, []item.Item{jewel, jewel})
	if res.Matched == nil || res.Matched.MixID != 2 {
		t.Fatalf("expected embedded recipe 2, got %+v", res.Matched)
	}
	if res.SuccessRate != 100 || res.RequiredCurrency != 1000000 {
		t.Fatalf("unexpected rate %d / zen %d", res.SuccessRate, res.RequiredCurrency)
	}

	sword := item.Item{Group: 0, Index: 5, Level: 7, Durability: 50, Value: 300000}
	res = e.Evaluate(mix.FacilityGoblin, []item.Item{sword, jewel})
	if res.Matched == nil || res.Matched.MixID != 1 {
		t.Fatalf("expected chaos weapon recipe, got %+v", res.Matched)
	}
	// (300000 + 40000) / 20000 = 17
	if res.SuccessRate != 17 || res.RequiredCurrency != 170000 {
		t.Fatalf("unexpected rate %d / zen %d", res.SuccessRate, res.RequiredCurrency)
	}
}

func TestServiceMissingSource(t *testing.T) {
	svc := NewService(File(filepath.Join(t.TempDir(), "absent.bmd")), nil)
	if svc.Database().Count() != 0 {
		t.Fatal("expected empty database")
	}
	if svc.Recipes(mix.CategoryGoblinNormal) != nil {
		t.Fatal("expected no recipes")
	}
	if NewService(nil, nil).Database().Count() != 0 {
		t.Fatal("expected empty database without a source")
	}
}

func TestServiceZstdFile(t *testing.T) {
	raw := mustPack(t, sampleDatabase(), nil)
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err := enc.Write(raw); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	path := filepath.Join(t.TempDir(), "mix.bmd.zst")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc := NewService(File(path), nil)
	if n := svc.Database().Count(); n != 4 {
		t.Fatalf("expected 4 recipes, got %d", n)
	}
}

func TestServiceLoadsOnce(t *testing.T) {
	raw := mustPack(t, sampleDatabase(), nil)
	var opens int32
	src := func() (io.ReadCloser, error) {
		atomic.AddInt32(&opens, 1)
		return Bytes(raw)()
	}
	svc := NewService(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Database().Count() != 4 {
				t.Error("unexpected recipe count")
			}
		}()
	}
	wg.Wait()
	if opens != 1 {
		t.Fatalf("expected a single load, got %d", opens)
	}
}
