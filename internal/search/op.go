package search

import (
	"fmt"
	"strings"

	"github.com/2767mr/tmam/internal/shape"
)

// Op is the operation that produced a record. The values are the ones
// written to the construction database.
type Op uint8

const (
	OpNone Op = iota
	OpPrim
	OpStack
	OpCutLeft
	OpCutRight
	OpRight
	OpUTurn
	OpLeft
)

var opNames = [...]string{
	OpNone:     "none",
	OpPrim:     "prim",
	OpStack:    "stack",
	OpCutLeft:  "cut_left",
	OpCutRight: "cut_right",
	OpRight:    "right",
	OpUTurn:    "uturn",
	OpLeft:     "left",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if strings.EqualFold(s, name) {
			return Op(i), nil
		}
	}
	return OpNone, fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Unary reports whether o takes a single input.
func (o Op) Unary() bool {
	return o >= OpCutLeft
}

// unaryOps is the expansion order of the one-input ops.
var unaryOps = [...]struct {
	op    Op
	apply func(shape.Code) shape.Code
}{
	{OpLeft, shape.Code.Left},
	{OpUTurn, shape.Code.UTurn},
	{OpRight, shape.Code.Right},
	{OpCutLeft, shape.Code.CutLeft},
	{OpCutRight, shape.Code.CutRight},
}

// Apply runs a one-input op.
func (o Op) Apply(c shape.Code) (shape.Code, bool) {
	for _, u := range unaryOps {
		if u.op == o {
			return u.apply(c), true
		}
	}
	return 0, false
}
