package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestCase struct {
	name      string
	input     Code
	input2    Code
	expect    Code
	operation func(*testing.T, TestCase)
}

var (
	checkRight = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.Right(), "original %s", tc.input.Hex())
	}

	checkLeft = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.Left(), "original %s", tc.input.Hex())
	}

	checkMirror = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.Mirror(), "original %s", tc.input.Hex())
	}

	checkKey = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.KeyCode(), "original %s", tc.input.Hex())
	}

	checkCutLeft = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.CutLeft(), "original %s", tc.input.Hex())
	}

	checkCutRight = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.CutRight(), "original %s", tc.input.Hex())
	}

	// input is dropped onto input2
	checkStack = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, Stack(tc.input, tc.input2), "%s onto %s", tc.input.Hex(), tc.input2.Hex())
	}

	checkCollapse = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.Collapse(), "original %s", tc.input.Hex())
	}

	checkScrewRight = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.ScrewRight(), "original %s", tc.input.Hex())
	}

	checkFlip = func(t *testing.T, tc TestCase) {
		assert.Equal(t, tc.expect, tc.input.Flip(), "original %s", tc.input.Hex())
	}
)

func testOne(t *testing.T, tc TestCase) {
	t.Run(tc.name, func(t *testing.T) {
		tc.operation(t, tc)
	})
}

func TestShapes(t *testing.T) {
	testOne(t, TestCase{"ROT_01", 0x0001, 0, 0x0002, checkRight})
	testOne(t, TestCase{"ROT_02", 0x0008, 0, 0x0001, checkRight})
	testOne(t, TestCase{"ROT_03", 0x1248, 0, 0x8124, checkLeft})

	testOne(t, TestCase{"MIRROR_01", 0x1234, 0, 0x84c2, checkMirror})
	testOne(t, TestCase{"KEY_01", 0x4321, 0, 0x1624, checkKey})
	testOne(t, TestCase{"KEY_02", 0x0008, 0, 0x0001, checkKey})

	testOne(t, TestCase{"CUT_01", 0x5aff, 0, 0x48cc, checkCutLeft})
	testOne(t, TestCase{"CUT_02", 0x5aff, 0, 0x1233, checkCutRight})
	testOne(t, TestCase{"CUT_03", 0x936c, 0, 0x084c, checkCutLeft})
	testOne(t, TestCase{"CUT_04", 0x936c, 0, 0x0132, checkCutRight})
	testOne(t, TestCase{"CUT_05", 0x0003, 0, 0x0000, checkCutLeft})

	testOne(t, TestCase{"STACK_01", 0x000f, 0x000f, 0x00ff, checkStack})
	testOne(t, TestCase{"STACK_02", 0xfffa, 0x5111, 0xf111, checkStack})
	testOne(t, TestCase{"STACK_03", 0x0003, 0x0048, 0x004b, checkStack})
	testOne(t, TestCase{"STACK_04", 0x000f, 0xffff, 0xffff, checkStack})
	testOne(t, TestCase{"STACK_05", 0x0006, 0x000b, 0x006b, checkStack})

	testOne(t, TestCase{"COLLAPSE_01", 0x1020, 0, 0x0012, checkCollapse})
	testOne(t, TestCase{"COLLAPSE_02", 0x10000, 0, 0x0001, checkCollapse})

	testOne(t, TestCase{"SCREW_01", 0x1111, 0, 0x1842, checkScrewRight})
	testOne(t, TestCase{"FLIP_01", 0x0012, 0, 0x0048, checkFlip})
}

func TestUnstack(t *testing.T) {
	bottom, top := Code(0x4b).Unstack()
	assert.Equal(t, Code(0xb), bottom)
	assert.Equal(t, Code(0x4), top)

	bottom, top = Code(0).Unstack()
	assert.Zero(t, bottom)
	assert.Zero(t, top)

	bottom, top = Code(0x4b).UnstackBottom()
	assert.Equal(t, Code(0xb), bottom)
	assert.Equal(t, Code(0x4), top)
}

func TestLayers(t *testing.T) {
	assert.Equal(t, 0, Code(0).LayerCount())
	assert.Equal(t, 1, Code(0x8).LayerCount())
	assert.Equal(t, 4, Code(0x1000).LayerCount())
	assert.Equal(t, 5, Scaffold.LayerCount())

	assert.Equal(t, -1, Code(0).BottomLayer())
	assert.Equal(t, 2, Code(0x1300).BottomLayer())
	assert.Equal(t, Code(0x13), Code(0x1300).Normalize())
	assert.Equal(t, Code(0x13), Code(0x1300).DropLayers(2))
}

func TestPredicates(t *testing.T) {
	assert.True(t, Code(0x00ff).CanStackAll())
	assert.True(t, Code(0x0013).CanStackAll())
	assert.False(t, Code(0x004b).CanStackAll())
	assert.False(t, Code(0x0101).CanStackAll())

	assert.True(t, Code(0x0001).CanStackBottom())
	assert.True(t, Code(0x0013).CanStackBottom())
	assert.False(t, Code(0x004b).CanStackBottom())

	assert.True(t, Code(0x5aff).CanCut())
	assert.False(t, Code(0x936c).CanCut())

	assert.True(t, Code(0).IsInvalid())
	assert.True(t, Code(0x0101).IsInvalid())
	assert.False(t, Code(0x004b).IsInvalid())
	assert.False(t, Code(0xf111).IsInvalid())

	assert.Equal(t, Code(0x0fff), Code(0x0fff).Add5th())
	assert.Equal(t, Code(0xf1000), Code(0x1000).Add5th())
}

func TestAlgebraProperties(t *testing.T) {
	for i := 0; i <= int(Mask); i++ {
		c := Code(i)

		for a := 0; a < 4; a++ {
			for b := 0; b < 4; b++ {
				require.Equal(t, c.Rotate(a+b), c.Rotate(a).Rotate(b))
			}
			require.Equal(t, c.KeyCode(), c.Rotate(a).KeyCode())
		}
		require.Equal(t, c, c.Mirror().Mirror())
		require.Equal(t, c.KeyCode(), c.Mirror().KeyCode())
		require.True(t, c.KeyCode() <= c)

		if c.canCutVertical() {
			require.Equal(t, c, Stack(c.CutLeft(), c.CutRight()))
		}
		if c.CanCut() {
			r := c.Right()
			require.True(t, Stack(c.CutLeft(), c.CutRight()) == c || Stack(r.CutLeft(), r.CutRight()) == r)
		}
		if c.CanStackAll() {
			acc := c.Layer(0)
			for l := 1; l < c.LayerCount(); l++ {
				acc = Stack(c.Layer(l), acc)
			}
			require.Equal(t, c, acc)
		}
	}
}

func TestStackStaysInFourLayers(t *testing.T) {
	for top := Code(1); top <= 0xff; top++ {
		for _, bottom := range []Code{0x1, 0xf, 0x4b, 0x121, 0xf111, 0xffff} {
			require.LessOrEqual(t, Stack(top, bottom).LayerCount(), Layers)
		}
	}
}

func TestScrewMatchesLayerRotation(t *testing.T) {
	for i := 0; i <= int(Mask); i += 7 {
		c := Code(i)
		var right, left Code
		for l := 0; l < c.LayerCount(); l++ {
			right |= c.Layer(l).Rotate(l+1) << (4 * l)
			left |= c.Layer(l).Rotate(-(l + 1)) << (4 * l)
		}
		require.Equal(t, right, c.ScrewRight())
		require.Equal(t, left, c.ScrewLeft())
	}
}

// Builds the logo from a single full layer: halves, turns, a stack and a
// final cut leave a half logo that takes a flat.
func TestBuildLogo(t *testing.T) {
	full := Code(0x000f)
	left, right := full.Cut()
	require.Equal(t, Code(0xc), left)
	require.Equal(t, Code(0x3), right)

	base := Stack(right, right.Left().CutLeft())
	require.Equal(t, Code(0xb), base)

	logo := Stack(left.Left(), base).CutLeft()
	require.Equal(t, Code(0x48), logo)

	target := Stack(right, logo)
	require.Equal(t, Code(0x4b), target)

	key, err := Parse("RrRr--Rr:----Rg--")
	require.NoError(t, err)
	assert.Equal(t, target, key)
	assert.Equal(t, "CuCu--Cu:----Cu--", target.String())
	assert.Equal(t, "CuCu--Cu:----Cu--:--------:--------", target.Full())

	back, err := Parse(target.Full())
	require.NoError(t, err)
	assert.Equal(t, target, back)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Code
	}{
		{"4b", 0x4b},
		{"0x004B", 0x4b},
		{"f0000", 0xf0000},
		{"Cu------", 0x1},
		{"--------:CuCuCuCu", 0xf0},
		{"SrWb----:------Cg", 0x83},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "0x", "xyz", "123456", "Cu----", "Cu-x----", "Xu------"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}

	assert.Equal(t, "--------", Code(0).String())
	assert.Equal(t, "--------:--------:--------:--------", Code(0).Full())
	assert.Equal(t, "--------:--------:--------:--------:CuCuCuCu", Scaffold.Full())
	assert.Equal(t, "004b", Code(0x4b).Hex())
}
