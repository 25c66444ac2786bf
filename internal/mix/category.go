package mix

import (
	"fmt"
	"strings"
)

// Category identifies one recipe list in the database. Categories are stored
// in this order in the file header.
type Category int

const (
	CategoryGoblinNormal Category = iota
	CategoryGoblinChaosItem
	CategoryGoblinAdd380
	CategoryCastleSenior
	CategoryTrainer
	CategoryOsbourne
	CategoryJerridon
	CategoryElpis
	CategoryChaosCard
	CategoryCherryBlossom
	CategoryExtractSeed
	CategorySeedSphere
	CategoryAttachSocket
	CategoryDetachSocket
)

// MaxCategories is the number of per-category counts in the database header.
const MaxCategories = 14

var categoryNames = [MaxCategories]string{
	"goblin_normal",
	"goblin_chaos_item",
	"goblin_add380",
	"castle_senior",
	"trainer",
	"osbourne",
	"jerridon",
	"elpis",
	"chaos_card",
	"cherry_blossom",
	"extract_seed",
	"seed_sphere",
	"attach_socket",
	"detach_socket",
}

// String returns the snake_case name of the category.
func (c Category) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= 0 && c < MaxCategories
}

// Facility is an NPC or device that accepts items for mixing. Each facility
// searches one or more categories, in order.
type Facility string

const (
	FacilityGoblin         Facility = "goblin"
	FacilityCastleSenior   Facility = "castle_senior"
	FacilityTrainer        Facility = "trainer"
	FacilityOsbourne       Facility = "osbourne"
	FacilityJerridon       Facility = "jerridon"
	FacilityElpis          Facility = "elpis"
	FacilityChaosCard      Facility = "chaos_card"
	FacilityCherryBlossom  Facility = "cherry_blossom"
	FacilitySeedMaster     Facility = "seed_master"
	FacilitySeedResearcher Facility = "seed_researcher"
)

var facilityCategories = map[Facility][]Category{
	FacilityGoblin:         {CategoryGoblinNormal, CategoryGoblinChaosItem, CategoryGoblinAdd380},
	FacilityCastleSenior:   {CategoryCastleSenior},
	FacilityTrainer:        {CategoryTrainer},
	FacilityOsbourne:       {CategoryOsbourne},
	FacilityJerridon:       {CategoryJerridon},
	FacilityElpis:          {CategoryElpis},
	FacilityChaosCard:      {CategoryChaosCard},
	FacilityCherryBlossom:  {CategoryCherryBlossom},
	FacilitySeedMaster:     {CategoryExtractSeed, CategorySeedSphere},
	FacilitySeedResearcher: {CategoryAttachSocket, CategoryDetachSocket},
}

// Categories returns the categories searched by the facility. Unknown
// facilities search nothing.
func (f Facility) Categories() []Category {
	cats := facilityCategories[f]
	out := make([]Category, len(cats))
	copy(out, cats)
	return out
}

// ParseFacility resolves a facility name received from a client.
func ParseFacility(s string) (Facility, error) {
	f := Facility(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := facilityCategories[f]; !ok {
		return "", fmt.Errorf("unknown facility: %q", s)
	}
	return f, nil
}
