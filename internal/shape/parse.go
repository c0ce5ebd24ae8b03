package shape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned by Parse for text that is neither a hex code nor a
// short key.
var ErrSyntax = errors.New("shape: invalid shape")

// String renders c as a short key, bottom layer first, East quadrant first.
// Only the occupied layers are written; Full pads the key to every layer.
func (c Code) String() string {
	return c.key(max(c.LayerCount(), 1))
}

// Full renders c as a short key with all four layers written out, and the
// scaffold layer too when it is occupied.
func (c Code) Full() string {
	return c.key(max(c.LayerCount(), Layers))
}

func (c Code) key(layers int) string {
	var sb strings.Builder
	for layer := 0; layer < layers; layer++ {
		if layer > 0 {
			sb.WriteByte(':')
		}
		for quad := 0; quad < 4; quad++ {
			if c.Has(layer, quad) {
				sb.WriteString("Cu")
			} else {
				sb.WriteString("--")
			}
		}
	}
	return sb.String()
}

// Hex renders c the way the text formats store codes.
func (c Code) Hex() string {
	return fmt.Sprintf("%04x", uint32(c))
}

// Parse reads a code written as 1-5 hex digits (with or without 0x) or as a
// short key such as "RrRr--Rr:----Rg--". Colours are ignored.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") || len(s) <= 5 {
		return ParseHex(s)
	}
	return parseShortKey(s)
}

func ParseHex(s string) (Code, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(digits) == 0 || len(digits) > 5 {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return Code(v), nil
}

func parseShortKey(s string) (Code, error) {
	layers := strings.Split(s, ":")
	if len(layers) > MaxLayers {
		return 0, fmt.Errorf("%w: %q has %d layers", ErrSyntax, s, len(layers))
	}

	var result Code
	for layer, text := range layers {
		if len(text) != 8 {
			return 0, fmt.Errorf("%w: layer %q", ErrSyntax, text)
		}
		for quad := 0; quad < 4; quad++ {
			switch text[2*quad] {
			case 'C', 'R', 'W', 'S':
				result |= 1 << (4*layer + quad)
			case '-':
				if text[2*quad+1] != '-' {
					return 0, fmt.Errorf("%w: layer %q", ErrSyntax, text)
				}
			default:
				return 0, fmt.Errorf("%w: layer %q", ErrSyntax, text)
			}
		}
	}

	return result, nil
}
