package mix

import "math"

// Vars holds the values rate program variables resolve to.
type Vars struct {
	MaxRate   float64
	Item      float64
	Wing      float64
	Excellent float64
	Equip     float64
	Set       float64
	NonJewel  float64
	LuckOpt   float64
	Level1    float64
}

func (v Vars) lookup(op Opcode) float64 {
	switch op {
	case OpMaxRate:
		return v.MaxRate
	case OpItem:
		return v.Item
	case OpWing:
		return v.Wing
	case OpExcellent:
		return v.Excellent
	case OpEquip:
		return v.Equip
	case OpSet:
		return v.Set
	case OpLevel1:
		return v.Level1
	case OpNonJewelItem:
		return v.NonJewel
	case OpLuckOpt:
		return v.LuckOpt
	}
	return 0
}

// EvalRate evaluates a rate program. An empty program yields 0. Evaluation
// stops at the end of the program or at an unmatched close-paren.
func EvalRate(prog Program, vars Vars) float64 {
	val, _ := evalExpr(prog, 0, vars)
	if math.IsNaN(val) {
		return 0
	}
	return val
}

// evalExpr parses Term (('+'|'-') Term)* starting at pos and returns the
// value together with the position of the first unconsumed token.
func evalExpr(prog Program, pos int, vars Vars) (float64, int) {
	val, pos := evalTerm(prog, pos, vars)
	for pos < len(prog) {
		var rhs float64
		switch prog[pos].Op {
		case OpAdd:
			rhs, pos = evalTerm(prog, pos+1, vars)
			val += rhs
		case OpSub:
			rhs, pos = evalTerm(prog, pos+1, vars)
			val -= rhs
		default:
			return val, pos
		}
	}
	return val, pos
}

func evalTerm(prog Program, pos int, vars Vars) (float64, int) {
	val, pos := evalFactor(prog, pos, vars)
	for pos < len(prog) {
		var rhs float64
		switch prog[pos].Op {
		case OpMul:
			rhs, pos = evalFactor(prog, pos+1, vars)
			val *= rhs
		case OpDiv:
			rhs, pos = evalFactor(prog, pos+1, vars)
			if rhs == 0 {
				val = 0
			} else {
				val /= rhs
			}
		default:
			return val, pos
		}
	}
	return val, pos
}

// evalFactor never consumes a close-paren on its own; the open-paren branch
// consumes the one that ends its sub-expression.
func evalFactor(prog Program, pos int, vars Vars) (float64, int) {
	if pos >= len(prog) {
		return 0, pos
	}
	tok := prog[pos]
	switch {
	case tok.Op == OpNumber:
		return float64(tok.Value), pos + 1
	case tok.Op == OpOpenParen:
		val, next := evalExpr(prog, pos+1, vars)
		if next < len(prog) && prog[next].Op == OpCloseParen {
			next++
		}
		return val, next
	case tok.Op == OpInt:
		val, next := evalFactor(prog, pos+1, vars)
		return math.Trunc(val), next
	case tok.Op == OpCloseParen:
		return 0, pos
	case tok.Op.IsVariable():
		return vars.lookup(tok.Op), pos + 1
	}
	// unknown opcode
	return 0, pos + 1
}

// SuccessRate computes the final rate of a matched recipe: the program
// result clamped to [0, MaxSuccessRate], plus the luck charms when the
// recipe allows them, clamped to [0, 100].
func SuccessRate(r *Recipe, st Stats) int {
	val := EvalRate(r.Program(), st.Vars(r.MaxSuccessRate))
	upper := math.Max(0, float64(r.MaxSuccessRate))
	rate := int(math.Max(0, math.Min(val, upper)))
	if r.CharmOption == OptionAllowed {
		rate += st.CharmCount
	}
	return clampPercent(rate)
}

// RequiredCurrency derives the zen cost of a matched recipe.
func RequiredCurrency(r *Recipe, rate int) uint64 {
	switch r.CurrencyType {
	case CurrencyPerRate:
		if rate <= 0 {
			return 0
		}
		return uint64(r.Currency) * uint64(rate)
	default:
		// CurrencyFlat, CurrencyFlatAnyRate and unknown selectors.
		return uint64(r.Currency)
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
