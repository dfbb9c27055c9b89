// Package thread reconstructs the lowest-cost copying path of a haplotype
// through a reference panel.  The query is modeled as an imperfect mosaic of
// the panel rows: at every site it copies from one template row, switching
// templates at a cost controlled by the recombination rate and tolerating
// mismatches at a cost controlled by the per-site error probability.  The
// minimum-cost path is found with a Viterbi-style dynamic program over the
// panel rows.
package thread

import (
	"fmt"
	"math"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/ancestry/panel"
	"github.com/grailbio/base/errors"
)

// Threader threads haplotypes through a panel.  It is not safe for
// concurrent use: each Run overwrites the traceback matrix and internal
// scratch.  Create one Threader per goroutine; the panel itself may be
// shared.
type Threader struct {
	p *panel.Panel

	// traceback[j*numSites+l] is the best predecessor row at site l-1 given
	// that the query copies row j at site l.  Sized to the full panel at the
	// time of the last Run; rows at or beyond that run's panelSize are left
	// zero.
	traceback []int32
	tbRows    int

	cur, next []float64 // per-row cost scratch
}

// NewThreader returns a Threader over p.
func NewThreader(p *panel.Panel) *Threader {
	return &Threader{p: p}
}

// Run computes the minimum-cost copying path for the panel row query,
// copying only from template rows [0, panelSize).  The path is written into
// path, which must have one entry per site.  The returned mutations list
// holds the sites, in ascending order, where the query disagrees with its
// template: the sites whose alleles the copying process cannot explain.
//
// recombinationRate must be positive and errorProb must lie in (0, 1); both
// are taken as given coefficients.  Costs are negative log probabilities
// under the usual mosaic model: the per-site probability of switching away
// from the current template is (1-exp(-rho·d/n))/n for inter-site distance d
// and panel size n, and a mismatch costs -log(errorProb).  Cost ties resolve
// toward staying on the current template, then toward the lower row index,
// so the path is deterministic.
func (t *Threader) Run(query, panelSize int, recombinationRate, errorProb float64, path []int32) ([]hap.SiteID, error) {
	numHaps := t.p.NumHaplotypes()
	numSites := t.p.NumSites()
	if query < 0 || query >= numHaps {
		return nil, errors.New(fmt.Sprintf("thread: query row %d out of range [0,%d)", query, numHaps))
	}
	if panelSize < 1 || panelSize > numHaps {
		return nil, errors.New(fmt.Sprintf("thread: panel size %d out of range [1,%d]", panelSize, numHaps))
	}
	if len(path) != numSites {
		return nil, errors.New(fmt.Sprintf("thread: path has %d entries, want %d", len(path), numSites))
	}
	if recombinationRate <= 0 {
		return nil, errors.New(fmt.Sprintf("thread: recombination rate %v must be positive", recombinationRate))
	}
	if errorProb <= 0 || errorProb >= 1 {
		return nil, errors.New(fmt.Sprintf("thread: error probability %v must be in (0,1)", errorProb))
	}

	if t.tbRows != numHaps || len(t.traceback) != numHaps*numSites {
		t.traceback = make([]int32, numHaps*numSites)
		t.tbRows = numHaps
	} else {
		for i := range t.traceback {
			t.traceback[i] = 0
		}
	}
	if cap(t.cur) < panelSize {
		t.cur = make([]float64, panelSize)
		t.next = make([]float64, panelSize)
	}
	cur, next := t.cur[:panelSize], t.next[:panelSize]

	q := t.p.Haplotype(query)
	pos := t.p.Positions()
	templates := make([][]hap.Allele, panelSize)
	for j := range templates {
		templates[j] = t.p.Haplotype(j)
	}
	n := float64(panelSize)
	mismatchCost := -math.Log(errorProb)
	matchCost := -math.Log(1 - errorProb)
	emit := func(row, l int) float64 {
		if templates[row][l] != q[l] {
			return mismatchCost
		}
		return matchCost
	}

	// Uniform prior over starting templates.
	startCost := math.Log(n)
	for j := 0; j < panelSize; j++ {
		cur[j] = startCost + emit(j, 0)
	}

	for l := 1; l < numSites; l++ {
		// Distance between site l-1 and site l; positions[l+1] is the
		// coordinate of site l in the bracketed array.
		d := pos[l+1] - pos[l]
		pNoRec := math.Exp(-recombinationRate * d / n)
		switchCost := -math.Log((1 - pNoRec) / n)
		stayCost := -math.Log(pNoRec + (1-pNoRec)/n)

		bestRow := 0
		for j := 1; j < panelSize; j++ {
			if cur[j] < cur[bestRow] {
				bestRow = j
			}
		}
		bestSwitch := cur[bestRow] + switchCost
		for j := 0; j < panelSize; j++ {
			stay := cur[j] + stayCost
			if stay <= bestSwitch {
				next[j] = stay + emit(j, l)
				t.traceback[j*numSites+l] = int32(j)
			} else {
				next[j] = bestSwitch + emit(j, l)
				t.traceback[j*numSites+l] = int32(bestRow)
			}
		}
		cur, next = next, cur
	}

	best := 0
	for j := 1; j < panelSize; j++ {
		if cur[j] < cur[best] {
			best = j
		}
	}
	path[numSites-1] = int32(best)
	for l := numSites - 1; l > 0; l-- {
		path[l-1] = t.traceback[int(path[l])*numSites+l]
	}

	var mutations []hap.SiteID
	for l := 0; l < numSites; l++ {
		if templates[path[l]][l] != q[l] {
			mutations = append(mutations, hap.SiteID(l))
		}
	}
	return mutations, nil
}

// Traceback returns the best-predecessor matrix from the most recent Run,
// row-major with one row per panel haplotype, together with its dimensions.
// It is overwritten by the next Run; callers wanting to keep it must copy.
func (t *Threader) Traceback() (tb []int32, numRows, numSites int) {
	return t.traceback, t.tbRows, t.p.NumSites()
}
