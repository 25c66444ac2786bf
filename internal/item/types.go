// Package item describes the item attributes the mix engine consumes. The
// raw inventory byte decoder lives elsewhere; it produces Item values.
package item

// MaxIndex is the number of item indices per group. Type codes are
// group*MaxIndex + index.
const MaxIndex = 512

// MaxGroup is the number of item groups.
const MaxGroup = 16

// Groups referenced by the mix engine.
const (
	GroupWing   = 12
	GroupPotion = 14
)

// Type is a single integer identifying an item kind (group*512 + index).
type Type int

// MakeType builds a type code from a group and index.
func MakeType(group, index int) Type {
	return Type(group*MaxIndex + index)
}

// Group returns the item group of the type.
func (t Type) Group() int { return int(t) / MaxIndex }

// Index returns the index within the group.
func (t Type) Index() int { return int(t) % MaxIndex }

// Well known types.
var (
	JewelOfChaos    = MakeType(GroupWing, 15)
	JewelOfBless    = MakeType(GroupPotion, 13)
	JewelOfSoul     = MakeType(GroupPotion, 14)
	JewelOfLife     = MakeType(GroupPotion, 16)
	JewelOfCreation = MakeType(GroupPotion, 22)
	CharmOfLuck     = MakeType(GroupPotion, 53)
	ChaosCharm      = MakeType(GroupPotion, 96)
)

// Item is one decoded inventory item.
type Item struct {
	Group      int  `json:"group"`
	Index      int  `json:"index"`
	Level      int  `json:"level"`  // upgrade level 0-15
	Option     int  `json:"option"` // additional option value
	Durability int  `json:"durability"`
	Luck       bool `json:"luck,omitempty"`
	Excellent  int  `json:"excellent,omitempty"` // excellent option bits
	SetItem    bool `json:"set_item,omitempty"`  // ancient/set option present
	Harmony    bool `json:"harmony,omitempty"`
	Sockets    int  `json:"sockets,omitempty"`
	// RequiredLevel is the character level needed to equip the item.
	RequiredLevel int `json:"required_level,omitempty"`
	// Value is the base item value from the item value tables.
	Value uint64 `json:"value,omitempty"`
}

// Type returns the item's type code.
func (it Item) Type() Type {
	return MakeType(it.Group, it.Index)
}

// Valid reports whether group and index lie in their ranges. Out of range
// values would alias the type code of another item.
func (it Item) Valid() bool {
	return it.Group >= 0 && it.Group < MaxGroup && it.Index >= 0 && it.Index < MaxIndex
}

// IsExcellent reports whether any excellent option is set.
func (it Item) IsExcellent() bool { return it.Excellent != 0 }

// IsAdd380 reports whether the item belongs to the 380 level tier.
func (it Item) IsAdd380() bool { return it.RequiredLevel >= 380 }

// IsSocketed reports whether the item carries socket slots.
func (it Item) IsSocketed() bool { return it.Sockets > 0 }

// IsEquipment reports whether the item is a weapon or armor piece.
func (it Item) IsEquipment() bool { return it.Group >= 0 && it.Group < GroupWing }
