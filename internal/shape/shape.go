package shape

import "math/bits"

// Code is a shape packed into bits. Bit 4*layer+quad is set when that corner
// is occupied. Layer 0 is the bottom. Layers 0..3 hold the shape itself and
// layer 4 is only ever used as scaffolding during deconstruction.
type Code uint32

const (
	LayerMask Code = 0b1111

	// Mask is the four real layers.
	Mask Code = 0xFFFF
	// MaskExtended includes the scaffolding layer.
	MaskExtended Code = 0xF_FFFF

	// Scaffold is a full fifth layer.
	Scaffold Code = LayerMask << 16

	Layers    = 4
	MaxLayers = 5
)

// Quadrants within a layer.
const (
	East = iota
	North
	West
	South
)

const (
	leftHalf  Code = 0xCCCC
	rightHalf Code = 0x3333
)

func (c Code) Layer(layer int) Code {
	return (c >> (4 * layer)) & LayerMask
}

func (c Code) Has(layer, quad int) bool {
	return (c>>(4*layer+quad))&1 != 0
}

func (c Code) LayerCount() int {
	return (bits.Len32(uint32(c)) + 3) / 4
}

// BottomLayer is the index of the lowest nonzero layer, or -1 for 0.
func (c Code) BottomLayer() int {
	if c == 0 {
		return -1
	}
	return bits.TrailingZeros32(uint32(c)) / 4
}

// Normalize drops c until its lowest nonzero layer is layer 0.
func (c Code) Normalize() Code {
	if c == 0 {
		return 0
	}
	return c.DropLayers(c.BottomLayer())
}

func (c Code) DropLayers(n int) Code {
	return c >> (4 * n)
}

// Rotate turns every layer by steps quadrants: bit 4L+q moves to
// 4L+((q+steps) mod 4).
func (c Code) Rotate(steps int) Code {
	switch steps & 3 {
	case 1:
		return (c&0x7_7777)<<1 | (c&0x8_8888)>>3
	case 2:
		return (c&0x3_3333)<<2 | (c&0xC_CCCC)>>2
	case 3:
		return (c&0x1_1111)<<3 | (c&0xE_EEEE)>>1
	}
	return c
}

func (c Code) Right() Code { return c.Rotate(1) }
func (c Code) UTurn() Code { return c.Rotate(2) }
func (c Code) Left() Code  { return c.Rotate(3) }

// Mirror reflects every layer across the east-west axis.
func (c Code) Mirror() Code {
	c = c&^0x9_9999 | (c&0x1_1111)<<3 | (c&0x8_8888)>>3
	c = c&^0x6_6666 | (c&0x2_2222)<<1 | (c&0x4_4444)>>1
	return c
}

// KeyCode is the smallest code among the rotations of c and of its mirror.
func (c Code) KeyCode() Code {
	m := c.Mirror()
	return min(
		min(min(c, c.Rotate(1)), min(c.Rotate(2), c.Rotate(3))),
		min(min(m, m.Rotate(1)), min(m.Rotate(2), m.Rotate(3))),
	)
}

func (c Code) IsMinimal() bool {
	return c == c.KeyCode()
}

// Collapse removes empty layers, keeping the order of the others.
func (c Code) Collapse() Code {
	var result Code
	next := 0
	for i := 0; i < MaxLayers; i++ {
		if layer := c.Layer(i); layer != 0 {
			result |= layer << (4 * next)
			next++
		}
	}
	return result
}

func (c Code) CutLeft() Code {
	return (c & leftHalf).Collapse()
}

func (c Code) CutRight() Code {
	return (c & rightHalf).Collapse()
}

func (c Code) Cut() (left, right Code) {
	return c.CutLeft(), c.CutRight()
}

// Stack drops top onto bottom. top falls until one of its corners would
// overlap bottom and comes to rest one layer above that contact. Anything
// pushed past layer 3 is lost.
func Stack(top, bottom Code) Code {
	for k := Layers; k > 0; k-- {
		if (top<<(4*(k-1)))&bottom != 0 {
			return (top<<(4*k) | bottom) & Mask
		}
	}
	return (top | bottom) & Mask
}

// Unstack splits off the highest nonzero layer. top is moved down to layer 0.
func (c Code) Unstack() (bottom, top Code) {
	if c == 0 {
		return 0, 0
	}
	shift := 4 * (c.LayerCount() - 1)
	mask := LayerMask << shift
	return c &^ mask, (c & mask) >> shift
}

func (c Code) UnstackBottom() (bottom, top Code) {
	return c & LayerMask, c >> 4
}

func (c Code) ScrewLeft() Code  { return c.screw(-1) }
func (c Code) ScrewRight() Code { return c.screw(1) }

// screw peels layers off the top; layer L ends up turned by (L+1)*dir.
func (c Code) screw(dir int) Code {
	var result Code
	for c != 0 {
		layer := c.LayerCount() - 1
		bottom, top := c.Unstack()
		result |= top.Rotate(dir*(layer+1)) << (4 * layer)
		c = bottom
	}
	return result
}

// Flip mirrors c and turns it upside down.
func (c Code) Flip() Code {
	m := c.Mirror()
	n := m.LayerCount()
	var result Code
	for i := 0; i < n; i++ {
		result |= m.Layer(i) << (4 * (n - 1 - i))
	}
	return result
}

// CanStackAll reports whether stacking the layers of c one by one, bottom
// first, gives c back.
func (c Code) CanStackAll() bool {
	if c == 0 {
		return false
	}
	acc := c.Layer(0)
	for i := 1; i < c.LayerCount(); i++ {
		acc = Stack(c.Layer(i), acc)
	}
	return acc == c
}

// CanStackBottom reports whether the bottom layer touches the layer above it.
func (c Code) CanStackBottom() bool {
	return c.LayerCount() == 1 || (c&(c>>4))&LayerMask != 0
}

// CanCut reports whether c can be split into halves and stacked back
// together, either as is or after a quarter turn.
func (c Code) CanCut() bool {
	if c.canCutVertical() {
		return true
	}
	return c.Right().canCutVertical()
}

func (c Code) canCutVertical() bool {
	left, right := c.Cut()
	return Stack(left, right) == c
}

// IsInvalid reports the empty shape and shapes with an empty layer below an
// occupied one.
func (c Code) IsInvalid() bool {
	if c == 0 {
		return true
	}
	for i := 0; i < c.LayerCount(); i++ {
		if c.Layer(i) == 0 {
			return true
		}
	}
	return false
}

// Add5th puts a full scaffolding layer above shapes that use all four layers.
func (c Code) Add5th() Code {
	if c > 0x0FFF {
		return c | Scaffold
	}
	return c
}
