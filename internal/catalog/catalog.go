// Package catalog holds the set of shape codes that can actually be made in
// the game. It is loaded once from a text file where every line pairs a
// canonical key with the codes that are equivalent to it under rotation and
// mirroring:
//
//	<keyHex> <hex>,<hex>,...
//
// A Catalog is read-only after loading.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/2767mr/tmam/internal/shape"
)

// ErrEmpty is returned when a catalog with no codes is used under the
// abort policy.
var ErrEmpty = errors.New("catalog: no possible shapes loaded")

// EmptyPolicy says what callers do when the catalog has no codes.
type EmptyPolicy string

const (
	// EmptyAll treats every code as possible.
	EmptyAll EmptyPolicy = "all"
	// EmptyAbort refuses to work without a catalog.
	EmptyAbort EmptyPolicy = "abort"
)

// Catalog is a sorted set of possible codes.
type Catalog struct {
	possibleList []shape.Code
	keys         []shape.Code

	// Malformed counts hex tokens that were skipped while parsing.
	Malformed int
}

// Load reads a catalog file from path.
func Load(path string, log logrus.FieldLogger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"path":      path,
			"keys":      len(c.keys),
			"codes":     len(c.possibleList),
			"malformed": c.Malformed,
		}).Info("catalog loaded")
	}
	return c, nil
}

// Parse reads catalog lines from r. Blank lines are skipped and malformed
// hex tokens are counted in Malformed rather than failing the load.
func Parse(r io.Reader) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[shape.Code]struct{})
	add := func(s shape.Code) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			c.possibleList = append(c.possibleList, s)
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		key, err := shape.ParseHex(fields[0])
		if err != nil {
			c.Malformed++
		} else {
			c.keys = append(c.keys, key)
			add(key)
		}

		for _, list := range fields[1:] {
			for _, token := range strings.Split(list, ",") {
				if token == "" {
					continue
				}
				s, err := shape.ParseHex(token)
				if err != nil {
					c.Malformed++
					continue
				}
				add(s)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slices.Sort(c.possibleList)
	return c, nil
}

// FromCodes builds a catalog from codes directly.
func FromCodes(codes ...shape.Code) *Catalog {
	c := &Catalog{possibleList: slices.Clone(codes)}
	slices.Sort(c.possibleList)
	c.possibleList = slices.Compact(c.possibleList)
	return c
}

func (c *Catalog) IsPossible(s shape.Code) bool {
	if c == nil {
		return false
	}
	_, ok := slices.BinarySearch(c.possibleList, s)
	return ok
}

// Codes returns every possible code in ascending order.
func (c *Catalog) Codes() []shape.Code {
	if c == nil {
		return nil
	}
	return slices.Clone(c.possibleList)
}

// Keys returns the canonical keys in file order.
func (c *Catalog) Keys() []shape.Code {
	if c == nil {
		return nil
	}
	return slices.Clone(c.keys)
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.possibleList)
}

func (c *Catalog) Empty() bool {
	return c == nil || len(c.possibleList) == 0
}

// Allows reports whether s should be treated as a candidate. An empty
// catalog allows everything.
func (c *Catalog) Allows(s shape.Code) bool {
	if c.Empty() {
		return true
	}
	return c.IsPossible(s)
}

// Check returns ErrEmpty when the catalog is empty and policy is EmptyAbort.
func (c *Catalog) Check(policy EmptyPolicy) error {
	if c.Empty() && policy == EmptyAbort {
		return ErrEmpty
	}
	return nil
}
