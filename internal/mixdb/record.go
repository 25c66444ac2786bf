package mixdb

import (
	"errors"
	"fmt"

	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// Sizes of the on-disk structures.
const (
	RecordSize = 656
	HeaderSize = mix.MaxCategories * 4
	sourceSize = 40
)

// ErrRecordSize is returned when a decrypted record is not RecordSize bytes.
var ErrRecordSize = errors.New("invalid mix record size")

// DecodeRecord parses one decrypted record. Declared token and source counts
// are clamped to the fixed array sizes.
func DecodeRecord(buf []byte) (mix.Recipe, error) {
	var r mix.Recipe
	if len(buf) != RecordSize {
		return r, fmt.Errorf("%w: got %d bytes", ErrRecordSize, len(buf))
	}
	c := &cursor{buf: buf}

	r.MixIndex = c.i32()
	r.MixID = c.i32()
	for i := range r.Name {
		r.Name[i] = c.i32()
	}
	for i := range r.Desc {
		r.Desc[i] = c.i32()
	}
	for i := range r.Advice {
		r.Advice[i] = c.i32()
	}
	r.Width = c.i32()
	r.Height = c.i32()
	r.RequiredLevel = c.i32()
	r.CurrencyType = c.u8()
	c.skip(3)
	r.Currency = c.u32()

	r.NumRateData = clampCount(c.i32(), mix.MaxRateTokens)
	for i := range r.RateTokens {
		r.RateTokens[i] = mix.Token{Op: mix.Opcode(c.i32()), Value: c.f32()}
	}
	r.MaxSuccessRate = c.i32()

	r.MixOption = c.u8()
	r.CharmOption = c.u8()
	r.ChaosCharmOption = c.u8()
	c.skip(1)

	for i := range r.Sources {
		s := &r.Sources[i]
		s.TypeMin = c.i16()
		s.TypeMax = c.i16()
		s.LevelMin, s.LevelMax = c.i32(), c.i32()
		s.OptionMin, s.OptionMax = c.i32(), c.i32()
		s.DurabilityMin, s.DurabilityMax = c.i32(), c.i32()
		s.CountMin, s.CountMax = c.i32(), c.i32()
		s.SpecialFlags = mix.Flags(c.u32())
	}
	r.NumSources = clampCount(c.i32(), mix.MaxSources)
	return r, nil
}

// EncodeRecord produces the plaintext record for r.
func EncodeRecord(r *mix.Recipe) []byte {
	buf := make([]byte, RecordSize)
	p := &putter{buf: buf}

	p.i32(r.MixIndex)
	p.i32(r.MixID)
	for _, v := range r.Name {
		p.i32(v)
	}
	for _, v := range r.Desc {
		p.i32(v)
	}
	for _, v := range r.Advice {
		p.i32(v)
	}
	p.i32(r.Width)
	p.i32(r.Height)
	p.i32(r.RequiredLevel)
	p.u8(r.CurrencyType)
	p.skip(3)
	p.u32(r.Currency)

	p.i32(int32(clampCount(int32(r.NumRateData), mix.MaxRateTokens)))
	for _, tok := range r.RateTokens {
		p.i32(int32(tok.Op))
		p.f32(tok.Value)
	}
	p.i32(r.MaxSuccessRate)

	p.u8(r.MixOption)
	p.u8(r.CharmOption)
	p.u8(r.ChaosCharmOption)
	p.skip(1)

	for _, s := range r.Sources {
		p.i16(s.TypeMin)
		p.i16(s.TypeMax)
		p.i32(s.LevelMin)
		p.i32(s.LevelMax)
		p.i32(s.OptionMin)
		p.i32(s.OptionMax)
		p.i32(s.DurabilityMin)
		p.i32(s.DurabilityMax)
		p.i32(s.CountMin)
		p.i32(s.CountMax)
		p.u32(uint32(s.SpecialFlags))
	}
	p.i32(int32(clampCount(int32(r.NumSources), mix.MaxSources)))
	return buf
}

func clampCount(v int32, limit int) int {
	if v < 0 {
		return 0
	}
	if int(v) > limit {
		return limit
	}
	return int(v)
}
