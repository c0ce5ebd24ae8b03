// Package report writes and reads the text outputs: the known-builds list,
// target lists and shape charts.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

// ErrSyntax is returned for a builds or targets line that cannot be read.
var ErrSyntax = errors.New("report: malformed line")

// WriteBuilds writes one line per result:
//
//	<hex> [<hex>,<hex>,...] <order>
func WriteBuilds(w io.Writer, results []tmam.Result) error {
	bw := bufio.NewWriter(w)
	for _, res := range results {
		bw.WriteString(res.Target.Hex())
		bw.WriteString(" [")
		for i, p := range res.Parts {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(p.Hex())
		}
		bw.WriteString("] ")
		bw.WriteString(res.Order)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: write builds: %w", err)
	}
	return nil
}

func WriteBuildsFile(path string, results []tmam.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteBuilds(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadBuilds reads what WriteBuilds wrote. Strategy and stats are not part
// of the format and come back empty.
func ReadBuilds(r io.Reader) ([]tmam.Result, error) {
	var results []tmam.Result

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		res, err := parseBuild(text)
		if err != nil {
			return nil, fmt.Errorf("report: builds line %d: %w", line, err)
		}
		results = append(results, res)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("report: read builds: %w", err)
	}
	return results, nil
}

func ReadBuildsFile(path string) ([]tmam.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBuilds(f)
}

func parseBuild(text string) (tmam.Result, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return tmam.Result{}, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	list, ok := strings.CutPrefix(fields[1], "[")
	if ok {
		list, ok = strings.CutSuffix(list, "]")
	}
	if !ok || list == "" {
		return tmam.Result{}, fmt.Errorf("%w: parts %q", ErrSyntax, fields[1])
	}

	target, err := shape.ParseHex(fields[0])
	if err != nil {
		return tmam.Result{}, err
	}
	res := tmam.Result{Target: target, Order: fields[2]}
	for _, tok := range strings.Split(list, ",") {
		p, err := shape.ParseHex(tok)
		if err != nil {
			return tmam.Result{}, err
		}
		res.Parts = append(res.Parts, p)
		res.Extra = res.Extra || p&shape.Scaffold != 0
	}
	return res, nil
}

// ReadTargets reads one shape per line, as hex or as a short key. Blank
// lines and lines starting with # are skipped.
func ReadTargets(r io.Reader) ([]shape.Code, error) {
	var targets []shape.Code

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		c, err := shape.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("report: targets line %d: %w", line, err)
		}
		targets = append(targets, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("report: read targets: %w", err)
	}
	return targets, nil
}

func ReadTargetsFile(path string) ([]shape.Code, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTargets(f)
}
