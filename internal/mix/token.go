package mix

import (
	"strconv"
	"strings"
)

// Opcode is the operation of a rate token.
type Opcode int32

const (
	OpNumber Opcode = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpOpenParen
	OpCloseParen
	OpInt
)

// Variables read from the aggregate statistics.
const (
	OpMaxRate Opcode = 32 + iota
	OpItem
	OpWing
	OpExcellent
	OpEquip
	OpSet
	OpLevel1
	OpNonJewelItem
	OpLuckOpt
)

var opcodeNames = map[Opcode]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpOpenParen:    "(",
	OpCloseParen:   ")",
	OpInt:          "int",
	OpMaxRate:      "MaxRate",
	OpItem:         "Item",
	OpWing:         "Wing",
	OpExcellent:    "Excellent",
	OpEquip:        "Equip",
	OpSet:          "Set",
	OpLevel1:       "Level1",
	OpNonJewelItem: "NonJewelItem",
	OpLuckOpt:      "LuckOpt",
}

// IsVariable reports whether the opcode reads an aggregate statistic.
func (op Opcode) IsVariable() bool {
	return op >= OpMaxRate && op <= OpLuckOpt
}

// String returns the source spelling of the opcode.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	if op == OpNumber {
		return "number"
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// Token is one entry of a rate program. Value is only read for OpNumber.
type Token struct {
	Op    Opcode  `json:"op"`
	Value float32 `json:"value,omitempty"`
}

// Num returns a number literal token.
func Num(v float32) Token { return Token{Op: OpNumber, Value: v} }

// Op returns an operator or variable token.
func Op(op Opcode) Token { return Token{Op: op} }

// Program is a flat rate token sequence.
type Program []Token

// String renders the program as space separated infix text.
func (p Program) String() string {
	parts := make([]string, len(p))
	for i, tok := range p {
		if tok.Op == OpNumber {
			parts[i] = strconv.FormatFloat(float64(tok.Value), 'g', -1, 32)
			continue
		}
		parts[i] = tok.Op.String()
	}
	return strings.Join(parts, " ")
}
