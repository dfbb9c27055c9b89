package main

import (
	"strings"
	"testing"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestParseGenotypes(t *testing.T) {
	in := `# two samples, three sites
1	0	1
0	0	1
`
	numSamples, numSites, data, err := parseGenotypes(strings.NewReader(in))
	assert.NoError(t, err)
	expect.EQ(t, numSamples, 2)
	expect.EQ(t, numSites, 3)
	expect.EQ(t, data, []hap.Allele{1, 0, 1, 0, 0, 1})
}

func TestParseGenotypesErrors(t *testing.T) {
	_, _, _, err := parseGenotypes(strings.NewReader("1\t0\n1\n"))
	expect.HasSubstr(t, err.Error(), "columns")
	_, _, _, err = parseGenotypes(strings.NewReader("1\t2\n"))
	expect.HasSubstr(t, err.Error(), "not in {0,1}")
	_, _, _, err = parseGenotypes(strings.NewReader("# nothing\n"))
	expect.HasSubstr(t, err.Error(), "empty")
}

func TestParsePositions(t *testing.T) {
	positions, err := parsePositions(strings.NewReader("# header\n1.5\n30\n200\n"))
	assert.NoError(t, err)
	expect.EQ(t, positions, []float64{1.5, 30, 200})

	_, err = parsePositions(strings.NewReader("abc\n"))
	expect.HasSubstr(t, err.Error(), "bad position")
}

func TestHaplotypeString(t *testing.T) {
	expect.EQ(t, haplotypeString([]hap.Allele{-1, 0, 1, -1}), ".01.")
}

func TestJoin(t *testing.T) {
	expect.EQ(t, joinInt32(nil), ".")
	expect.EQ(t, joinInt32([]int32{0, 2, 2}), "0,2,2")
	expect.EQ(t, joinSites(nil), ".")
	expect.EQ(t, joinSites([]hap.SiteID{1, 4}), "1,4")
}
