package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

func TestWriteBuilds(t *testing.T) {
	results := []tmam.Result{
		{Target: 0x4b, Parts: []shape.Code{0x9, 0x42}, Order: "01+"},
		{Target: 0xf00f, Parts: []shape.Code{0xf, 0xf000, shape.Scaffold}, Order: "012++", Extra: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBuilds(&buf, results))
	assert.Equal(t, "004b [0009,0042] 01+\nf00f [000f,f000,f0000] 012++\n", buf.String())

	back, err := ReadBuilds(&buf)
	require.NoError(t, err)
	assert.Equal(t, results, back)
}

func TestReadBuildsErrors(t *testing.T) {
	for _, text := range []string{
		"4b 01+",
		"4b [] 01+",
		"4b 9,42 01+",
		"4b [9,zz] 01+",
		"xyz [9] 0",
	} {
		_, err := ReadBuilds(strings.NewReader(text))
		assert.Error(t, err, text)
	}
}

func TestBuildsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builds.txt")
	results := []tmam.Result{{Target: 0x121, Parts: []shape.Code{0x121}, Order: "0"}}
	require.NoError(t, WriteBuildsFile(path, results))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	back, err := ReadBuilds(f)
	require.NoError(t, err)
	assert.Equal(t, results, back)

	codes, err := ReadTargetsFile(path + ".missing")
	assert.Error(t, err)
	assert.Nil(t, codes)
}

func TestReadTargets(t *testing.T) {
	text := "# targets\n4b\n\n0x121\nRrRr--Rr:----Rg--\n"
	targets, err := ReadTargets(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []shape.Code{0x4b, 0x121, 0x4b}, targets)

	_, err = ReadTargets(strings.NewReader("4b\nnope\n"))
	assert.ErrorIs(t, err, shape.ErrSyntax)
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, []shape.Code{0x4b, 0x1}))

	want := "" +
		"- - - -  - - - - \n" +
		"- - - -  - - - - \n" +
		"- - - -  - - - - \n" +
		"- - X -  - - - - \n" +
		"X X - X  X - - - \n"
	assert.Equal(t, want, buf.String())
}

func TestWriteChartRows(t *testing.T) {
	codes := make([]shape.Code, ChartWidth+1)
	for i := range codes {
		codes[i] = shape.Scaffold
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, codes))

	rows := strings.Split(buf.String(), "\n\n")
	require.Len(t, rows, 2)
	first := strings.Split(rows[0], "\n")
	assert.Equal(t, strings.Repeat("X X X X  ", ChartWidth-1)+"X X X X ", first[0])
	assert.Equal(t, "X X X X \n- - - - \n- - - - \n- - - - \n- - - - \n", rows[1])
}
