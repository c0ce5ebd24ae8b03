package tmam

import "github.com/2767mr/tmam/internal/shape"

// rule decides what a quad does with its part in one layer.
type rule uint8

const (
	ruleFlat rule = iota
	ruleStack
	ruleLeft
	ruleRight
	ruleLeftPrune
	ruleRightPrune
	ruleLeft2
	ruleRight2
	numRules
)

func (r rule) dir() int {
	switch r {
	case ruleLeft, ruleLeftPrune, ruleLeft2:
		return 1
	case ruleRight, ruleRightPrune, ruleRight2:
		return -1
	}
	return 0
}

func (r rule) maxSize() int {
	if r == ruleLeft2 || r == ruleRight2 {
		return 2
	}
	return 5
}

// pruned rules only float a part when the quad straight above is empty.
func (r rule) pruned() bool {
	return r == ruleLeftPrune || r == ruleRightPrune
}

type quadOp uint8

const (
	opEject quadOp = iota
	opStack
	opLeft
	opRight
)

// passedPart is a part handed up into a quad from the layer below.
type passedPart struct {
	code shape.Code
	via  quadOp
	size int
}

// rules holds one rule for each layer that can pass parts upward.
type rules [shape.Layers - 1]rule

var quadOrder = [4]int{3, 0, 1, 2}

const numRuleSets = int(numRules) * int(numRules) * int(numRules)

// partLists remembers the part lists already tried for one target.
type partLists struct {
	lists [numRuleSets][MaxParts]shape.Code
	n     int
}

// add reports whether parts is new and records it.
func (p *partLists) add(parts [MaxParts]shape.Code) bool {
	for i := 0; i < p.n; i++ {
		if p.lists[i] == parts {
			return false
		}
	}
	p.lists[p.n] = parts
	p.n++
	return true
}

// fastmam tries every rule set in a fixed order.
func (r *run) fastmam() (Result, bool) {
	var seen partLists
	n := int(numRules)

	for i := 0; i < numRuleSets && !r.exhausted; i++ {
		cfg := rules{rule(i / (n * n)), rule(i / n % n), rule(i % n)}

		var buf [MaxParts]shape.Code
		count, ok := fastmamParts(r.target, cfg, &buf)
		if !ok || !seen.add(buf) {
			continue
		}

		parts := buf[:count]
		if order, ok := r.tryBuild(parts); ok {
			return r.result(parts, order, StrategyFastmam), true
		}
		if r.target.LayerCount() == shape.Layers && count < MaxParts {
			parts = append(parts, shape.Scaffold)
			if order, ok := r.tryBuild(parts); ok {
				return r.result(parts, order, StrategyFastmam), true
			}
		}
	}
	return Result{}, false
}

// fastmamParts walks target bottom to top under cfg and writes the parts to
// out: per layer, the layer's flat first, then the parts that start there.
func fastmamParts(target shape.Code, cfg rules, out *[MaxParts]shape.Code) (int, bool) {
	var (
		passed     [shape.Layers][4]passedPart
		flats      [shape.Layers]shape.Code
		multi      [shape.Layers][4]shape.Code
		multiCount [shape.Layers]int
	)

	for layer := 0; layer < shape.Layers; layer++ {
		for _, q := range quadOrder {
			if !target.Has(layer, q) {
				continue
			}
			in := passed[layer][q]
			part := in.code | 1<<(4*layer+q)
			size := in.size + 1

			op := opEject
			if layer < shape.Layers-1 {
				op = chooseOp(target, cfg[layer], layer, q, in, size, &passed[layer+1])
			}

			switch op {
			case opEject:
				if in.size == 0 {
					flats[layer] |= part
					break
				}
				b := part.BottomLayer()
				multi[b][multiCount[b]] = part
				multiCount[b]++
			case opStack:
				passed[layer+1][q] = passedPart{code: part, via: opStack, size: size}
			case opLeft, opRight:
				passed[layer+1][diagonal(q, op)] = passedPart{code: part, via: op, size: size}
			}
		}
	}

	n := 0
	for layer := 0; layer < shape.Layers; layer++ {
		if flats[layer] != 0 {
			if n == MaxParts {
				return 0, false
			}
			out[n] = flats[layer]
			n++
		}
		for _, part := range multi[layer][:multiCount[layer]] {
			if n == MaxParts {
				return 0, false
			}
			out[n] = part
			n++
		}
	}
	return n, n > 0
}

func chooseOp(target shape.Code, r rule, layer, q int, in passedPart, size int, above *[4]passedPart) quadOp {
	switch r {
	case ruleFlat:
		return opEject
	case ruleStack:
		if canStack(target, layer, q, in, above) {
			return opStack
		}
		return opEject
	}

	op := opLeft
	if r.dir() < 0 {
		op = opRight
	}
	t := diagonal(q, op)
	switch {
	case !target.Has(layer+1, t):
	case above[t].size != 0:
	case size+1 > r.maxSize():
	case r.pruned() && target.Has(layer+1, q):
	default:
		return op
	}
	return opEject
}

// canStack reports whether a part can grow straight up: the quad above has
// material, nothing claimed it yet, and the part did not arrive diagonally.
func canStack(target shape.Code, layer, q int, in passedPart, above *[4]passedPart) bool {
	return target.Has(layer+1, q) && above[q].size == 0 && (in.size == 0 || in.via == opStack)
}

func diagonal(q int, op quadOp) int {
	if op == opLeft {
		return (q + 1) & 3
	}
	return (q + 3) & 3
}
