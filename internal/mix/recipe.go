package mix

// Limits of the fixed-size recipe record.
const (
	MaxSources    = 8
	MaxRateTokens = 32
)

// OptionAllowed is the option flag value that enables a charm exception.
const OptionAllowed = 'A'

// Currency formula selectors.
const (
	CurrencyFlat        = 'A'
	CurrencyPerRate     = 'B'
	CurrencyFlatAnyRate = 'C'
)

// Flags is a bitmask of rare item states.
type Flags uint32

const (
	FlagExcellent Flags = 1 << iota
	FlagAdd380
	FlagSetItem
	FlagHarmony
	FlagSocket
)

// Has reports whether every bit of required is present in f.
func (f Flags) Has(required Flags) bool {
	return f&required == required
}

// Source is one requirement slot of a recipe. All ranges are inclusive.
type Source struct {
	TypeMin       int16 `json:"type_min"`
	TypeMax       int16 `json:"type_max"`
	LevelMin      int32 `json:"level_min"`
	LevelMax      int32 `json:"level_max"`
	OptionMin     int32 `json:"option_min"`
	OptionMax     int32 `json:"option_max"`
	DurabilityMin int32 `json:"durability_min"`
	DurabilityMax int32 `json:"durability_max"`
	CountMin      int32 `json:"count_min"`
	CountMax      int32 `json:"count_max"`
	SpecialFlags  Flags `json:"special_flags"`
}

// Optional reports whether the slot may stay empty.
func (s Source) Optional() bool { return s.CountMin <= 0 }

// Accepts reports whether a candidate item is compatible with the slot,
// ignoring counts.
func (s Source) Accepts(c Candidate) bool {
	t := int(c.Type)
	switch {
	case t < int(s.TypeMin) || t > int(s.TypeMax):
		return false
	case c.Level < int(s.LevelMin) || c.Level > int(s.LevelMax):
		return false
	case c.Option < int(s.OptionMin) || c.Option > int(s.OptionMax):
		return false
	case c.Durability < int(s.DurabilityMin) || c.Durability > int(s.DurabilityMax):
		return false
	}
	return c.Flags.Has(s.SpecialFlags)
}

// Recipe is one decoded mix rule. Recipes are immutable once loaded.
type Recipe struct {
	Category Category `json:"category"`
	Index    int      `json:"index"` // position in the category, file order

	MixIndex int32    `json:"mix_index"`
	MixID    int32    `json:"mix_id"`
	Name     [3]int32 `json:"name"`
	Desc     [3]int32 `json:"desc"`
	Advice   [3]int32 `json:"advice"`

	Width         int32 `json:"width"`
	Height        int32 `json:"height"`
	RequiredLevel int32 `json:"required_level"`

	CurrencyType byte   `json:"currency_type"`
	Currency     uint32 `json:"currency"`

	NumRateData    int                  `json:"num_rate_data"`
	RateTokens     [MaxRateTokens]Token `json:"-"`
	MaxSuccessRate int32                `json:"max_success_rate"`

	MixOption        byte `json:"mix_option"`
	CharmOption      byte `json:"charm_option"`
	ChaosCharmOption byte `json:"chaos_charm_option"`

	Sources    [MaxSources]Source `json:"-"`
	NumSources int                `json:"num_sources"`
}

// Program returns the live part of the rate token program.
func (r *Recipe) Program() Program {
	n := r.NumRateData
	if n < 0 {
		n = 0
	}
	if n > MaxRateTokens {
		n = MaxRateTokens
	}
	return Program(r.RateTokens[:n])
}

// Slots returns the live requirement slots.
func (r *Recipe) Slots() []Source {
	n := r.NumSources
	if n < 0 {
		n = 0
	}
	if n > MaxSources {
		n = MaxSources
	}
	return r.Sources[:n]
}

// Key identifies a recipe across the database.
type Key struct {
	Category Category `json:"category"`
	Index    int      `json:"index"`
}

// Key returns the category/index pair of the recipe.
func (r *Recipe) Key() Key {
	return Key{Category: r.Category, Index: r.Index}
}
