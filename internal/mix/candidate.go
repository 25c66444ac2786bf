package mix

import "github.com/bernatvadell/muonline-sub002/internal/item"

// LuckBonus is the value of the LuckOpt variable when any item has luck.
const LuckBonus = 25

// Classifier answers the static item questions the engine needs. The item
// registry implements it; lookups of unknown types must answer false.
type Classifier interface {
	IsWing(t item.Type) bool
	IsJewel(t item.Type) bool
	IsStackable(t item.Type) bool
	MixValue(t item.Type) (uint64, bool)
}

// builtinMixValues apply when the classifier has no override.
var builtinMixValues = map[item.Type]uint64{
	item.JewelOfChaos:    40000,
	item.JewelOfBless:    100000,
	item.JewelOfSoul:     70000,
	item.JewelOfLife:     45000,
	item.JewelOfCreation: 450000,
}

// Candidate is the engine's view of one item presented for mixing.
type Candidate struct {
	Type       item.Type
	Level      int
	Option     int
	Durability int
	Count      int
	Flags      Flags
	MixValue   uint64
	Wing       bool
	Jewel      bool
	Equipment  bool
	Luck       bool
}

// NewCandidate derives a candidate from a decoded item.
func NewCandidate(it item.Item, cls Classifier) Candidate {
	if cls == nil {
		cls = noClassifier{}
	}
	t := it.Type()
	c := Candidate{
		Type:       t,
		Level:      it.Level,
		Option:     it.Option,
		Durability: it.Durability,
		Count:      1,
		Wing:       cls.IsWing(t),
		Jewel:      cls.IsJewel(t),
		Equipment:  it.IsEquipment(),
		Luck:       it.Luck,
	}
	if cls.IsStackable(t) && it.Durability > 1 {
		c.Count = it.Durability
	}
	if it.IsExcellent() {
		c.Flags |= FlagExcellent
	}
	if it.IsAdd380() {
		c.Flags |= FlagAdd380
	}
	if it.SetItem {
		c.Flags |= FlagSetItem
	}
	if it.Harmony {
		c.Flags |= FlagHarmony
	}
	if it.IsSocketed() {
		c.Flags |= FlagSocket
	}
	switch v, ok := cls.MixValue(t); {
	case ok:
		c.MixValue = v
	case builtinMixValues[t] != 0:
		c.MixValue = builtinMixValues[t]
	default:
		c.MixValue = it.Value
	}
	return c
}

// Stats are the aggregate values a rate program reads.
type Stats struct {
	TotalValue      uint64 `json:"total_value"`
	WingValue       uint64 `json:"wing_value"`
	ExcellentValue  uint64 `json:"excellent_value"`
	EquipValue      uint64 `json:"equip_value"`
	SetValue        uint64 `json:"set_value"`
	NonJewelValue   uint64 `json:"non_jewel_value"`
	Luck            bool   `json:"luck"`
	CharmCount      int    `json:"charm_count"`
	ChaosCharmCount int    `json:"chaos_charm_count"`

	// Set by the matcher.
	Level1            int  `json:"level1"`
	OptionalSatisfied bool `json:"optional_satisfied"`
}

// Vars converts the statistics into evaluator variables.
func (s Stats) Vars(maxRate int32) Vars {
	v := Vars{
		MaxRate:   float64(maxRate),
		Item:      float64(s.TotalValue),
		Wing:      float64(s.WingValue),
		Excellent: float64(s.ExcellentValue),
		Equip:     float64(s.EquipValue),
		Set:       float64(s.SetValue),
		NonJewel:  float64(s.NonJewelValue),
		Level1:    float64(s.Level1),
	}
	if s.Luck {
		v.LuckOpt = LuckBonus
	}
	return v
}

// CandidateSet is the immutable item list of one evaluation together with
// totals computed over every item in it.
type CandidateSet struct {
	Items  []Candidate
	totals Stats
}

// NewCandidateSet wraps the items of one evaluation request.
func NewCandidateSet(items []item.Item, cls Classifier) *CandidateSet {
	set := &CandidateSet{Items: make([]Candidate, 0, len(items))}
	for _, it := range items {
		set.Items = append(set.Items, NewCandidate(it, cls))
	}
	set.totals = computeTotals(set.Items)
	return set
}

// Totals returns the aggregate statistics of the full set.
func (s *CandidateSet) Totals() Stats { return s.totals }

// Len returns the number of candidates.
func (s *CandidateSet) Len() int { return len(s.Items) }

// NewScratch allocates scratch counters filled with each candidate's count.
func (s *CandidateSet) NewScratch() []int {
	scratch := make([]int, len(s.Items))
	s.ResetScratch(scratch)
	return scratch
}

// ResetScratch restores every counter to its candidate's full count.
func (s *CandidateSet) ResetScratch(scratch []int) {
	for i := range s.Items {
		scratch[i] = s.Items[i].Count
	}
}

func computeTotals(items []Candidate) Stats {
	var st Stats
	for _, c := range items {
		st.TotalValue += c.MixValue
		if c.Wing {
			st.WingValue += c.MixValue
		}
		if c.Flags.Has(FlagExcellent) {
			st.ExcellentValue += c.MixValue
		}
		if c.Equipment {
			st.EquipValue += c.MixValue
		}
		if c.Flags.Has(FlagSetItem) {
			st.SetValue += c.MixValue
		}
		if !c.Jewel {
			st.NonJewelValue += c.MixValue
		}
		if c.Luck {
			st.Luck = true
		}
		switch c.Type {
		case item.CharmOfLuck:
			st.CharmCount += c.Count
		case item.ChaosCharm:
			st.ChaosCharmCount += c.Count
		}
	}
	return st
}

type noClassifier struct{}

func (noClassifier) IsWing(item.Type) bool             { return false }
func (noClassifier) IsJewel(item.Type) bool            { return false }
func (noClassifier) IsStackable(item.Type) bool        { return false }
func (noClassifier) MixValue(item.Type) (uint64, bool) { return 0, false }
