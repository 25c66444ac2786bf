package mix

import "github.com/bernatvadell/muonline-sub002/internal/item"

// RecipeSource provides the recipes of a category in file order. The
// returned slice must not be modified.
type RecipeSource interface {
	Recipes(c Category) []Recipe
}

// Result is the outcome of one evaluation. At most one of Matched and
// Similar is set; rate and currency are only computed for Matched.
type Result struct {
	Matched          *Recipe `json:"matched,omitempty"`
	Similar          *Recipe `json:"similar,omitempty"`
	SuccessRate      int     `json:"success_rate"`
	RequiredCurrency uint64  `json:"required_currency"`
	Stats            Stats   `json:"stats"`
}

// LevelShort reports whether the matched recipe needs a higher character
// level than charLevel.
func (r Result) LevelShort(charLevel int) bool {
	return r.Matched != nil && int(r.Matched.RequiredLevel) > charLevel
}

// Engine resolves candidate items against the recipe database. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	recipes RecipeSource
	cls     Classifier
}

// NewEngine creates an engine over the given recipes. cls may be nil.
func NewEngine(recipes RecipeSource, cls Classifier) *Engine {
	return &Engine{recipes: recipes, cls: cls}
}

// Evaluate runs the selection protocol over the categories of a facility.
func (e *Engine) Evaluate(f Facility, items []item.Item) Result {
	return e.EvaluateCategories(f.Categories(), items)
}

// EvaluateCategories finds the first recipe of cats, in order, that the
// items satisfy exactly. When none does it reports the first recipe that
// accepts at least one of the items.
func (e *Engine) EvaluateCategories(cats []Category, items []item.Item) Result {
	set := NewCandidateSet(items, e.cls)
	scratch := set.NewScratch()

	for _, cat := range cats {
		recipes := e.recipesOf(cat)
		for i := range recipes {
			r := &recipes[i]
			st, ok := Match(r, set, scratch)
			if !ok {
				continue
			}
			rate := SuccessRate(r, st)
			return Result{
				Matched:          r,
				SuccessRate:      rate,
				RequiredCurrency: RequiredCurrency(r, rate),
				Stats:            st,
			}
		}
	}

	if set.Len() == 0 {
		return Result{}
	}
	for _, cat := range cats {
		recipes := e.recipesOf(cat)
		for i := range recipes {
			if Similar(&recipes[i], set) {
				return Result{Similar: &recipes[i]}
			}
		}
	}
	return Result{}
}

// IsSource reports whether any recipe of the facility has a slot that
// accepts the item.
func (e *Engine) IsSource(f Facility, it item.Item) bool {
	if !it.Valid() {
		return false
	}
	c := NewCandidate(it, e.cls)
	for _, cat := range f.Categories() {
		recipes := e.recipesOf(cat)
		for i := range recipes {
			for _, src := range recipes[i].Slots() {
				if src.Accepts(c) {
					return true
				}
			}
		}
	}
	return false
}

func (e *Engine) recipesOf(c Category) []Recipe {
	if e.recipes == nil {
		return nil
	}
	return e.recipes.Recipes(c)
}
