package tmam

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2767mr/tmam/internal/shape"
)

func TestChooseOp(t *testing.T) {
	grown := passedPart{code: 0x1, via: opStack, size: 1}

	tests := []struct {
		name   string
		target shape.Code
		rule   rule
		in     passedPart
		size   int
		above  [4]passedPart
		want   quadOp
	}{
		{"flat", 0x21, ruleFlat, passedPart{}, 1, [4]passedPart{}, opEject},
		{"stack", 0x11, ruleStack, passedPart{}, 1, [4]passedPart{}, opStack},
		{"stack without support", 0x21, ruleStack, passedPart{}, 1, [4]passedPart{}, opEject},
		{"left", 0x31, ruleLeft, passedPart{}, 1, [4]passedPart{}, opLeft},
		{"left into claimed quad", 0x21, ruleLeft, passedPart{}, 1, [4]passedPart{1: grown}, opEject},
		{"left prune free", 0x21, ruleLeftPrune, passedPart{}, 1, [4]passedPart{}, opLeft},
		{"left prune covered", 0x31, ruleLeftPrune, passedPart{}, 1, [4]passedPart{}, opEject},
		{"right prune free", 0x81, ruleRightPrune, passedPart{}, 1, [4]passedPart{}, opRight},
		{"right prune covered", 0x91, ruleRightPrune, passedPart{}, 1, [4]passedPart{}, opEject},
		{"left2 single", 0x21, ruleLeft2, passedPart{}, 1, [4]passedPart{}, opLeft},
		{"left2 full", 0x21, ruleLeft2, grown, 2, [4]passedPart{}, opEject},
		{"left grows past two", 0x21, ruleLeft, grown, 2, [4]passedPart{}, opLeft},
		{"right2 full", 0x81, ruleRight2, grown, 2, [4]passedPart{}, opEject},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := chooseOp(tc.target, tc.rule, 0, shape.East, tc.in, tc.size, &tc.above)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFastmamParts(t *testing.T) {
	tests := []struct {
		name   string
		target shape.Code
		cfg    rules
		want   []shape.Code
	}{
		{"zig-zag", 0x121, rules{ruleLeft, ruleRight, ruleFlat}, []shape.Code{0x121}},
		{"two high cap", 0x121, rules{ruleLeft, ruleRight2, ruleFlat}, []shape.Code{0x21, 0x100}},
		{"left", 0x31, rules{ruleLeft, ruleFlat, ruleFlat}, []shape.Code{0x21, 0x10}},
		{"pruned", 0x31, rules{ruleLeftPrune, ruleFlat, ruleFlat}, []shape.Code{0x1, 0x30}},
		{"all flat", 0x4b, rules{ruleFlat, ruleFlat, ruleFlat}, []shape.Code{0xb, 0x40}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out [MaxParts]shape.Code
			n, ok := fastmamParts(tc.target, tc.cfg, &out)
			assert.True(t, ok)
			assert.Equal(t, tc.want, out[:n])
		})
	}
}

func TestPartLists(t *testing.T) {
	var seen partLists
	a := [MaxParts]shape.Code{0x9, 0x42}
	b := [MaxParts]shape.Code{0x42, 0x9}

	assert.True(t, seen.add(a))
	assert.True(t, seen.add(b))
	assert.False(t, seen.add(a))
	assert.Equal(t, 2, seen.n)

	allocs := testing.AllocsPerRun(10, func() {
		seen.n = 0
		seen.add(a)
		seen.add(a)
	})
	assert.Zero(t, allocs)
}
