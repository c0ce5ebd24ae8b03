// Package builddb reads and writes the construction database: one fixed
// five byte entry for every 16-bit shape code.
//
// Entry layout at offset 5*code:
//
//	code1 lo, code1 hi, code2 lo, code2 hi, op
//
// Stack entries hold their operands the other way round (top first), which
// is what external viewers of the file expect. Entries handed out by this
// package are always in record order: Stack(Code2, Code1) == code.
package builddb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
)

const (
	EntrySize = 5
	Entries   = int(shape.Mask) + 1
	Size      = EntrySize * Entries
)

// ErrSize means the input is not exactly Size bytes.
var ErrSize = errors.New("builddb: wrong database size")

// Entry is the stored build of one code. Op is search.OpNone for codes
// that were never built.
type Entry struct {
	Code1 shape.Code
	Code2 shape.Code
	Op    search.Op
}

func (e Entry) Known() bool {
	return e.Op != search.OpNone
}

// Encode lays records out as a database. Records for codes above 16 bits
// are ignored.
func Encode(records []search.Record) []byte {
	buf := make([]byte, Size)
	for _, rec := range records {
		if rec.Code > shape.Mask || !rec.Known() {
			continue
		}
		first, second := rec.Code1, rec.Code2
		if rec.Op == search.OpStack {
			first, second = second, first
		}

		entry := buf[EntrySize*int(rec.Code):]
		binary.LittleEndian.PutUint16(entry[0:], uint16(first))
		binary.LittleEndian.PutUint16(entry[2:], uint16(second))
		entry[4] = byte(rec.Op)
	}
	return buf
}

// Decode reads a database back into one entry per code.
func Decode(b []byte) ([]Entry, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSize, len(b), Size)
	}

	entries := make([]Entry, Entries)
	for code := range entries {
		raw := b[EntrySize*code : EntrySize*(code+1)]
		e := Entry{
			Code1: shape.Code(binary.LittleEndian.Uint16(raw[0:])),
			Code2: shape.Code(binary.LittleEndian.Uint16(raw[2:])),
			Op:    search.Op(raw[4]),
		}
		if e.Op == search.OpStack {
			e.Code1, e.Code2 = e.Code2, e.Code1
		}
		entries[code] = e
	}
	return entries, nil
}

func Write(w io.Writer, records []search.Record) error {
	if _, err := w.Write(Encode(records)); err != nil {
		return fmt.Errorf("builddb: write: %w", err)
	}
	return nil
}

func WriteFile(path string, records []search.Record) error {
	if err := os.WriteFile(path, Encode(records), 0o644); err != nil {
		return fmt.Errorf("builddb: write %s: %w", path, err)
	}
	return nil
}

func Read(r io.Reader) ([]Entry, error) {
	var buf bytes.Buffer
	buf.Grow(Size)
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("builddb: read: %w", err)
	}
	return Decode(buf.Bytes())
}

func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("builddb: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}
