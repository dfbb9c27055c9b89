package infer

import (
	"fmt"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/base/errors"
)

// Genotypes is the observed input to inference: a dense numSamples ×
// numSites matrix of {0,1} calls in row-major order, plus the genomic
// coordinate of every site.
type Genotypes struct {
	numSamples, numSites int
	data                 []hap.Allele
	positions            []float64
	sequenceLength       float64
}

// NewGenotypes validates and wraps a genotype matrix.  data is row-major
// with one row per sample and is not copied.  positions must hold one
// strictly increasing positive coordinate per site, below sequenceLength; a
// nil positions takes unit-spaced coordinates 1..numSites with a sequence
// length of numSites+1.
func NewGenotypes(numSamples, numSites int, data []hap.Allele, positions []float64, sequenceLength float64) (*Genotypes, error) {
	if numSamples < 2 {
		return nil, errors.New(fmt.Sprintf("infer: at least 2 samples required, got %d", numSamples))
	}
	if numSites < 1 {
		return nil, errors.New(fmt.Sprintf("infer: at least one site required, got %d", numSites))
	}
	if len(data) != numSamples*numSites {
		return nil, errors.New(fmt.Sprintf("infer: genotype matrix has %d entries, want %d×%d",
			len(data), numSamples, numSites))
	}
	if _, err := hap.CheckGenotypes(data); err != nil {
		return nil, errors.E(err, "infer: genotype matrix")
	}
	if positions == nil {
		positions = make([]float64, numSites)
		for l := range positions {
			positions[l] = float64(l + 1)
		}
		sequenceLength = float64(numSites + 1)
	} else if len(positions) != numSites {
		return nil, errors.New(fmt.Sprintf("infer: %d positions for %d sites", len(positions), numSites))
	}
	return &Genotypes{
		numSamples:     numSamples,
		numSites:       numSites,
		data:           data,
		positions:      positions,
		sequenceLength: sequenceLength,
	}, nil
}

// NumSamples returns the number of samples.
func (g *Genotypes) NumSamples() int { return g.numSamples }

// NumSites returns the number of sites.
func (g *Genotypes) NumSites() int { return g.numSites }

// Positions returns the per-site coordinates, without sentinels.
func (g *Genotypes) Positions() []float64 { return g.positions }

// SequenceLength returns the total addressable sequence length.
func (g *Genotypes) SequenceLength() float64 { return g.sequenceLength }

// Sample returns sample j's haplotype as a view into the matrix.
func (g *Genotypes) Sample(j int) []hap.Allele {
	return g.data[j*g.numSites : (j+1)*g.numSites]
}

// siteColumn fills col with the genotype vector of site l and returns its
// derived-allele frequency.  col must have numSamples entries.
func (g *Genotypes) siteColumn(l int, col []hap.Allele) int {
	freq := 0
	for j := 0; j < g.numSamples; j++ {
		col[j] = g.data[j*g.numSites+l]
		if col[j] == hap.Derived {
			freq++
		}
	}
	return freq
}
