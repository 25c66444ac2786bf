package network_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bernatvadell/muonline-sub002/internal/mix"
	"github.com/bernatvadell/muonline-sub002/internal/network"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go value into the generic form the validator expects.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ClientRequests(t *testing.T) {
	s := compile(t, "mix_evaluate.schema.json")
	valid := []string{
		`{"type":"mix_evaluate"}`,
		`{"type":"mix_clear","payload":{}}`,
		`{"type":"mix_open","payload":{"facility":"goblin","character_level":250}}`,
		`{"type":"mix_add","payload":{"item":{"group":12,"index":15,"durability":1},"x":2,"y":0}}`,
		`{"type":"mix_remove","payload":{"index":0}}`,
	}
	for _, raw := range valid {
		var v any
		_ = json.Unmarshal([]byte(raw), &v)
		if err := s.Validate(v); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
	}

	invalid := []string{
		`{"type":"chat"}`,
		`{"type":"mix_open","payload":{"facility":"blacksmith"}}`,
		`{"type":"mix_add","payload":{"item":{"group":12,"index":900}}}`,
		`{"type":"mix_remove","payload":{"index":-1}}`,
	}
	for _, raw := range invalid {
		var v any
		_ = json.Unmarshal([]byte(raw), &v)
		if err := s.Validate(v); err == nil {
			t.Fatalf("%s: expected validation error", raw)
		}
	}

	// the typed payload encodes to something the schema accepts
	x, y := 1, 1
	add := network.ClientMessage{Type: network.MsgTypeMixAdd}
	add.Payload, _ = json.Marshal(network.MixAddPayload{X: &x, Y: &y})
	if err := s.Validate(roundTrip(t, add)); err != nil {
		t.Fatalf("typed mix_add: %v", err)
	}
}

func TestSchemas_MixResult(t *testing.T) {
	s := compile(t, "mix_result.schema.json")

	r := mix.Recipe{Category: mix.CategoryGoblinNormal, Index: 1, MixID: 2, RequiredLevel: 10}
	matched := network.ServerMessage{
		Type:    network.MsgTypeMixResult,
		Payload: network.NewMixResult(mix.Result{Matched: &r, SuccessRate: 100, RequiredCurrency: 1000000}, 5),
	}
	if err := s.Validate(roundTrip(t, matched)); err != nil {
		t.Fatalf("matched result: %v", err)
	}

	empty := network.ServerMessage{Type: network.MsgTypeMixResult, Payload: network.NewMixResult(mix.Result{}, 1)}
	if err := s.Validate(roundTrip(t, empty)); err != nil {
		t.Fatalf("empty result: %v", err)
	}

	both := network.ServerMessage{
		Type: network.MsgTypeMixResult,
		Payload: network.MixResultPayload{
			Matched: network.NewRecipeSummary(&r),
			Similar: network.NewRecipeSummary(&r),
		},
	}
	if err := s.Validate(roundTrip(t, both)); err == nil {
		t.Fatal("matched and similar together must be rejected")
	}
}

func TestNewMixResultLevelShort(t *testing.T) {
	r := mix.Recipe{RequiredLevel: 150}
	p := network.NewMixResult(mix.Result{Matched: &r, SuccessRate: 40}, 100)
	if !p.LevelShort || p.Matched == nil || p.Similar != nil {
		t.Fatalf("unexpected payload %+v", p)
	}
}
