package thread_test

import (
	"testing"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/ancestry/panel"
	"github.com/grailbio/ancestry/thread"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// testPanel builds a panel with unit-spaced positions from the given rows.
func testPanel(t *testing.T, rows ...[]hap.Allele) *panel.Panel {
	t.Helper()
	numSites := len(rows[0])
	positions := make([]float64, numSites)
	for l := range positions {
		positions[l] = float64(l + 1)
	}
	p, err := panel.New(positions, float64(numSites+1))
	assert.NoError(t, err)
	for _, h := range rows {
		_, err := p.Append(h)
		assert.NoError(t, err)
	}
	return p
}

func runThread(t *testing.T, p *panel.Panel, query, panelSize int, rho, mu float64) ([]int32, []hap.SiteID) {
	t.Helper()
	path := make([]int32, p.NumSites())
	muts, err := thread.NewThreader(p).Run(query, panelSize, rho, mu, path)
	assert.NoError(t, err)
	return path, muts
}

func TestRunSwitchesTemplates(t *testing.T) {
	// The query is a clean mosaic of the two templates; with a mismatch far
	// more expensive than a switch, the path must recombine once and imply
	// no mutations.
	p := testPanel(t,
		[]hap.Allele{0, 0, 0, 0, 0, 0},
		[]hap.Allele{1, 1, 1, 1, 1, 1},
		[]hap.Allele{0, 0, 0, 1, 1, 1},
	)
	path, muts := runThread(t, p, 2, 2, 1.0, 0.01)
	expect.EQ(t, path, []int32{0, 0, 0, 1, 1, 1})
	expect.EQ(t, len(muts), 0)
}

func TestRunPrefersMismatchOverDoubleSwitch(t *testing.T) {
	// A single-site disagreement in the middle of a long match is cheaper to
	// explain as a mutation than as two template switches.
	p := testPanel(t,
		[]hap.Allele{0, 0, 0, 0, 0, 0},
		[]hap.Allele{0, 0, 0, 1, 0, 0},
	)
	path, muts := runThread(t, p, 1, 1, 1e-8, 1e-3)
	expect.EQ(t, path, []int32{0, 0, 0, 0, 0, 0})
	expect.EQ(t, muts, []hap.SiteID{3})
}

func TestRunTieBreaksDeterministically(t *testing.T) {
	// Two identical templates: every cost ties, so the path must settle on
	// the lower row index throughout.
	p := testPanel(t,
		[]hap.Allele{0, 1, 0, 1},
		[]hap.Allele{0, 1, 0, 1},
		[]hap.Allele{0, 1, 0, 1},
	)
	path, muts := runThread(t, p, 2, 2, 1.0, 0.01)
	expect.EQ(t, path, []int32{0, 0, 0, 0})
	expect.EQ(t, len(muts), 0)
}

func TestRunPanelCausality(t *testing.T) {
	// With panelSize = k every path entry must reference a row < k, even
	// when a later row matches the query exactly.
	p := testPanel(t,
		[]hap.Allele{0, 0, 0, 0, 0},
		[]hap.Allele{0, 0, 1, 1, 1},
		[]hap.Allele{0, 0, 1, 1, 1},
	)
	path, muts := runThread(t, p, 2, 1, 1.0, 0.01)
	for l, row := range path {
		expect.EQ(t, row, int32(0))
		_ = l
	}
	expect.EQ(t, muts, []hap.SiteID{2, 3, 4})
}

func TestRunValidation(t *testing.T) {
	p := testPanel(t,
		[]hap.Allele{0, 1},
		[]hap.Allele{1, 0},
	)
	th := thread.NewThreader(p)
	path := make([]int32, 2)

	_, err := th.Run(5, 1, 1.0, 0.01, path)
	expect.HasSubstr(t, err.Error(), "query row")
	_, err = th.Run(0, 0, 1.0, 0.01, path)
	expect.HasSubstr(t, err.Error(), "panel size")
	_, err = th.Run(0, 3, 1.0, 0.01, path)
	expect.HasSubstr(t, err.Error(), "panel size")
	_, err = th.Run(0, 1, 1.0, 0.01, path[:1])
	expect.HasSubstr(t, err.Error(), "path")
	_, err = th.Run(0, 1, 0, 0.01, path)
	expect.HasSubstr(t, err.Error(), "recombination")
	_, err = th.Run(0, 1, 1.0, 1.5, path)
	expect.HasSubstr(t, err.Error(), "error probability")
}

func TestTraceback(t *testing.T) {
	p := testPanel(t,
		[]hap.Allele{0, 0, 0},
		[]hap.Allele{1, 1, 1},
		[]hap.Allele{0, 1, 1},
	)
	th := thread.NewThreader(p)
	path := make([]int32, 3)
	_, err := th.Run(2, 2, 1.0, 0.01, path)
	assert.NoError(t, err)
	tb, rows, cols := th.Traceback()
	expect.EQ(t, rows, 3)
	expect.EQ(t, cols, 3)
	expect.EQ(t, len(tb), 9)
	// Row 2 was not a candidate template and stays untouched.
	expect.EQ(t, tb[2*3:], []int32{0, 0, 0})
}
