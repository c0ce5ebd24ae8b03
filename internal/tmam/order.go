package tmam

import (
	"errors"
	"fmt"

	"github.com/2767mr/tmam/internal/shape"
)

// Sentinel errors for the deconstruction solver.
var (
	// ErrNotFound means no strategy produced a part list that rebuilds the
	// target.
	ErrNotFound = errors.New("tmam: no deconstruction found")
	// ErrBadOrder means a stacking order does not fit its part list.
	ErrBadOrder = errors.New("tmam: malformed stacking order")
	// ErrUnknownStrategy means a configured strategy name has no solver.
	ErrUnknownStrategy = errors.New("tmam: unknown strategy")
	// ErrInvalidConfig means a solver setting is out of range.
	ErrInvalidConfig = errors.New("tmam: invalid config")
)

// MaxParts is the largest part list the order table covers.
const MaxParts = 5

// orders lists the stacking orders tried for each number of parts. A digit
// pushes that part, '+' drops the top entry onto the one below it.
var orders = [MaxParts + 1][]string{
	1: {"0"},
	2: {"01+"},
	3: {"012++", "01+2+"},
	4: {"0123+++", "012++3+", "01+23++"},
	5: {"01234++++", "012++34++", "01+234+++"},
}

// Orders returns the stacking orders tried for n parts.
func Orders(n int) []string {
	if n < 0 || n > MaxParts {
		return nil
	}
	return orders[n]
}

// Replay evaluates order over parts. Parts are given in target coordinates
// and are dropped from above, so each one is moved down to layer 0 first.
func Replay(parts []shape.Code, order string) (shape.Code, error) {
	var stack [MaxParts]shape.Code
	n := 0

	for i := 0; i < len(order); i++ {
		ch := order[i]
		switch {
		case ch == '+':
			if n < 2 {
				return 0, fmt.Errorf("%w: %q underflows at %d", ErrBadOrder, order, i)
			}
			top, bottom := stack[n-1], stack[n-2]
			n--
			stack[n-1] = shape.Stack(top, bottom)
		case ch >= '0' && ch <= '9':
			idx := int(ch - '0')
			if idx >= len(parts) {
				return 0, fmt.Errorf("%w: %q uses part %d of %d", ErrBadOrder, order, idx, len(parts))
			}
			if n == len(stack) {
				return 0, fmt.Errorf("%w: %q is too deep", ErrBadOrder, order)
			}
			stack[n] = parts[idx].Normalize()
			n++
		default:
			return 0, fmt.Errorf("%w: %q has %q", ErrBadOrder, order, ch)
		}
	}

	if n != 1 {
		return 0, fmt.Errorf("%w: %q leaves %d entries", ErrBadOrder, order, n)
	}
	return stack[0], nil
}
