package ancestor_test

import (
	"testing"

	"github.com/grailbio/ancestry/ancestor"
	"github.com/grailbio/ancestry/hap"
	"github.com/stretchr/testify/require"
)

func makeOne(t *testing.T, rows [][]hap.Allele, focal hap.SiteID) (a []hap.Allele, start, end hap.SiteID) {
	t.Helper()
	b := ancestor.NewBuilder(len(rows), len(rows[0]))
	addMatrix(t, b, rows)
	a = make([]hap.Allele, len(rows[0]))
	start, end, err := b.MakeAncestor(
		ancestor.Descriptor{Frequency: b.FrequencyOf(focal), FocalSites: []hap.SiteID{focal}}, a)
	require.NoError(t, err)
	return a, start, end
}

func TestMakeAncestorIsolatedFocal(t *testing.T) {
	// No site is older than the focal site, so the span is just the focal
	// site itself and everything else stays unknown.
	a, start, end := makeOne(t, testRows, 0)
	require.Equal(t, []hap.Allele{1, -1, -1, -1, -1}, a)
	require.Equal(t, hap.SiteID(0), start)
	require.Equal(t, hap.SiteID(1), end)

	a, start, end = makeOne(t, testRows, 2)
	require.Equal(t, []hap.Allele{-1, -1, 1, -1, -1}, a)
	require.Equal(t, hap.SiteID(2), start)
	require.Equal(t, hap.SiteID(3), end)
}

func TestMakeAncestorRightwardConsensus(t *testing.T) {
	// Six samples.  Site 0 is focal with frequency 4 (samples 0-3).  Sites
	// 1, 3, 4, 5 are older (frequency 5); site 2 is a singleton.
	//
	// Walking right: at site 1, sample 3 disagrees with the consensus and is
	// flagged; at site 3 it disagrees again and is removed (two strikes),
	// leaving {0,1,2}.  At site 4 sample 0 disagrees and is flagged; at site
	// 5 it disagrees again and is removed, shrinking the set to 2 <= 4/2, so
	// the pass stops there without recording site 5.
	rows := [][]hap.Allele{
		{1, 1, 1, 1, 0, 0},
		{1, 1, 0, 1, 1, 1},
		{1, 1, 0, 1, 1, 1},
		{1, 0, 0, 0, 1, 1},
		{0, 1, 0, 1, 1, 1},
		{0, 1, 0, 1, 1, 1},
	}
	a, start, end := makeOne(t, rows, 0)
	// Site 2 is younger than the focal site and inside the span: ancestrally
	// absent.  Site 5 is past the stop boundary: unknown.
	require.Equal(t, []hap.Allele{1, 1, 0, 1, 1, -1}, a)
	require.Equal(t, hap.SiteID(0), start)
	require.Equal(t, hap.SiteID(5), end)
}

func TestMakeAncestorTieFavorsDerived(t *testing.T) {
	// Focal site 0 has frequency 2 (samples 0,1).  At site 1 the consistent
	// set splits 1-1; the tie resolves to the derived allele.  Sample 1 then
	// disagrees again at site 2 and is removed, leaving 1 <= 2/2: stop.
	rows := [][]hap.Allele{
		{1, 1, 1},
		{1, 0, 0},
		{0, 1, 1},
		{0, 1, 1},
	}
	a, start, end := makeOne(t, rows, 0)
	require.Equal(t, []hap.Allele{1, 1, -1}, a)
	require.Equal(t, hap.SiteID(0), start)
	require.Equal(t, hap.SiteID(2), end)
}

func TestMakeAncestorLeftwardConsensus(t *testing.T) {
	// Mirror image of the tie case: focal site 2, older sites to the left.
	rows := [][]hap.Allele{
		{1, 1, 1},
		{0, 0, 1},
		{1, 1, 0},
		{1, 1, 0},
	}
	a, start, end := makeOne(t, rows, 2)
	require.Equal(t, []hap.Allele{-1, 1, 1}, a)
	require.Equal(t, hap.SiteID(1), start)
	require.Equal(t, hap.SiteID(3), end)
}

func TestMakeAncestorFullFrequency(t *testing.T) {
	// Every sample carries the derived allele at site 0: there can be no
	// older site, so the ancestor is defined at the focal site only.
	rows := [][]hap.Allele{
		{1, 1, 1},
		{1, 1, 1},
		{1, 0, 1},
	}
	a, start, end := makeOne(t, rows, 0)
	require.Equal(t, []hap.Allele{1, -1, -1}, a)
	require.Equal(t, hap.SiteID(0), start)
	require.Equal(t, hap.SiteID(1), end)

	// Site 1 (frequency 2) sees unanimous older sites on both flanks and
	// extends across the whole sequence.
	a, start, end = makeOne(t, rows, 1)
	require.Equal(t, []hap.Allele{1, 1, 1}, a)
	require.Equal(t, hap.SiteID(0), start)
	require.Equal(t, hap.SiteID(3), end)
}

func TestMakeAncestorValidation(t *testing.T) {
	b := ancestor.NewBuilder(4, 5)
	addMatrix(t, b, testRows)
	a := make([]hap.Allele, 5)

	_, _, err := b.MakeAncestor(ancestor.Descriptor{Frequency: 2, FocalSites: nil}, a)
	require.Error(t, err)
	_, _, err = b.MakeAncestor(ancestor.Descriptor{Frequency: 2, FocalSites: []hap.SiteID{7}}, a)
	require.Error(t, err)
	_, _, err = b.MakeAncestor(ancestor.Descriptor{Frequency: 2, FocalSites: []hap.SiteID{0}}, a[:3])
	require.Error(t, err)
	// Site 1 is a singleton; no ancestor can be built from it.
	_, _, err = b.MakeAncestor(ancestor.Descriptor{Frequency: 1, FocalSites: []hap.SiteID{1}}, a)
	require.Error(t, err)
}
