package report

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/2767mr/tmam/internal/shape"
)

// ChartWidth is the number of shapes per chart row.
const ChartWidth = 8

// WriteChart draws codes as grids, ChartWidth to a row. Each grid has one
// line per layer, scaffold layer at the top, and one column per quadrant
// starting at East. Shapes on a row are separated by a space and rows by a
// blank line.
func WriteChart(w io.Writer, codes []shape.Code) error {
	bw := bufio.NewWriter(w)
	for start := 0; start < len(codes); start += ChartWidth {
		if start > 0 {
			bw.WriteByte('\n')
		}
		row := codes[start:min(start+ChartWidth, len(codes))]
		for layer := shape.MaxLayers - 1; layer >= 0; layer-- {
			for i, c := range row {
				if i > 0 {
					bw.WriteByte(' ')
				}
				for quad := 0; quad < 4; quad++ {
					if c.Has(layer, quad) {
						bw.WriteString("X ")
					} else {
						bw.WriteString("- ")
					}
				}
			}
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: write chart: %w", err)
	}
	return nil
}

func WriteChartFile(path string, codes []shape.Code) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteChart(f, codes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
