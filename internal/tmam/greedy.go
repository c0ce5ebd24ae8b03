package tmam

import "github.com/2767mr/tmam/internal/shape"

// Half logos by height, in their two zig-zag directions. A logo of height S
// at position P is logoBases[v][S].Rotate(P).
var logoBases = [2][shape.Layers + 1]shape.Code{
	{2: 0x21, 3: 0x121, 4: 0x2121},
	{2: 0x12, 3: 0x212, 4: 0x1212},
}

// stripes are the two columns a logo of each height lives in.
var stripes = [shape.Layers + 1]shape.Code{2: 0x33, 3: 0x333, 4: 0x3333}

// logoMask is the region that has to match the logo exactly. The loose mask
// ignores whatever sits next to the logo in its top layer.
func logoMask(size, variant, pos int, loose bool) shape.Code {
	mask := stripes[size]
	if loose {
		top := shape.LayerMask << (4 * (size - 1))
		mask = mask&^top | logoBases[variant][size]&top
	}
	return mask.Rotate(pos)
}

func positions(reverse bool) [4]int {
	if reverse {
		return [4]int{shape.South, shape.West, shape.North, shape.East}
	}
	return [4]int{shape.East, shape.North, shape.West, shape.South}
}

type greedyPass struct {
	loose   bool
	reverse bool
}

var greedyPasses = [...]greedyPass{
	{loose: true},
	{loose: true, reverse: true},
	{},
	{reverse: true},
}

func (r *run) greedy() (Result, bool) {
	for _, pass := range greedyPasses {
		if res, ok := r.greedyPass(pass); ok {
			return res, true
		}
		if r.exhausted {
			break
		}
	}
	return Result{}, false
}

// greedyPass peels the working shape from the bottom: flats where the bottom
// layer is held up by the next one, half logos where it is not.
func (r *run) greedyPass(pass greedyPass) (Result, bool) {
	var buf [MaxParts]shape.Code
	parts := buf[:0]

	w := r.target.Add5th()
	base := 0
	for w != 0 && len(parts) < MaxParts {
		if w&shape.LayerMask == 0 {
			w >>= 4
			base++
			continue
		}

		part := w & shape.LayerMask
		if w.LayerCount() > 1 && !w.CanStackBottom() {
			if logo, ok := r.findLogo(w, pass); ok {
				part = logo
			}
			// otherwise the bottom layer goes in as an extra and will most
			// likely fail to verify
		}

		w &^= part
		parts = append(parts, part<<(4*base))
		if order, ok := r.tryBuild(parts); ok {
			return r.result(parts, order, StrategyGreedy), true
		}
		if r.exhausted {
			break
		}
	}
	return Result{}, false
}

func (r *run) findLogo(w shape.Code, pass greedyPass) (shape.Code, bool) {
	for size := r.solver.cfg.MaxLogoSize; size >= 2; size-- {
		for variant := range logoBases {
			for _, pos := range positions(pass.reverse) {
				logo := logoBases[variant][size].Rotate(pos)
				if w&logoMask(size, variant, pos, pass.loose) == logo {
					return logo, true
				}
			}
		}
	}
	return 0, false
}
