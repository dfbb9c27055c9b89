// Package panel implements the append-only reference panel of haplotypes
// that threading copies from.  Rows are samples and previously built
// ancestors; once appended, a row never changes, so threading against any
// prefix of the panel stays valid as the panel grows.
package panel

import (
	"fmt"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Panel is a row-major matrix of haplotypes over {0,1} plus the genomic
// position of every site.  Append is the only mutating operation.
//
// Appends must be serialized by the caller; concurrent reads of previously
// appended rows are safe.
type Panel struct {
	numSites int
	// positions has numSites+2 entries: positions[l+1] is the coordinate of
	// site l, bracketed by sentinel coordinates 0 and the sequence length.
	positions []float64
	data      []hap.Allele
	numHaps   int
}

// New returns an empty panel.  positions must hold one strictly increasing
// coordinate per site, with 0 < positions[0] and
// positions[len-1] < sequenceLength.
func New(positions []float64, sequenceLength float64) (*Panel, error) {
	numSites := len(positions)
	if numSites < 1 {
		return nil, errors.New("panel: at least one site required")
	}
	prev := 0.0
	for l, pos := range positions {
		if pos <= prev {
			return nil, errors.New(fmt.Sprintf(
				"panel: positions must be strictly increasing and positive: position %v at site %d follows %v", pos, l, prev))
		}
		prev = pos
	}
	if prev >= sequenceLength {
		return nil, errors.New(fmt.Sprintf(
			"panel: last position %v is not below the sequence length %v", prev, sequenceLength))
	}
	bracketed := make([]float64, numSites+2)
	copy(bracketed[1:], positions)
	bracketed[numSites+1] = sequenceLength
	return &Panel{numSites: numSites, positions: bracketed}, nil
}

// NewFromMatrix returns a panel pre-populated with numHaplotypes rows taken
// from the row-major matrix data.
func NewFromMatrix(numHaplotypes int, data []hap.Allele, positions []float64, sequenceLength float64) (*Panel, error) {
	p, err := New(positions, sequenceLength)
	if err != nil {
		return nil, err
	}
	if len(data) != numHaplotypes*p.numSites {
		return nil, errors.New(fmt.Sprintf("panel: matrix has %d entries, want %d×%d",
			len(data), numHaplotypes, p.numSites))
	}
	for j := 0; j < numHaplotypes; j++ {
		if _, err := p.Append(data[j*p.numSites : (j+1)*p.numSites]); err != nil {
			return nil, errors.E(err, fmt.Sprintf("panel: row %d", j))
		}
	}
	return p, nil
}

// Append adds a haplotype row and returns its row index.  h must have one
// {0,1} value per site; it is copied, so the caller may reuse it.
func (p *Panel) Append(h []hap.Allele) (int, error) {
	if len(h) != p.numSites {
		return 0, errors.New(fmt.Sprintf("panel: haplotype has %d sites, want %d", len(h), p.numSites))
	}
	if _, err := hap.CheckGenotypes(h); err != nil {
		return 0, errors.E(err, "panel: Append")
	}
	p.data = append(p.data, h...)
	row := p.numHaps
	p.numHaps++
	return row, nil
}

// NumHaplotypes returns the number of rows appended so far.
func (p *Panel) NumHaplotypes() int { return p.numHaps }

// NumSites returns the number of sites per row.
func (p *Panel) NumSites() int { return p.numSites }

// SequenceLength returns the upper sentinel coordinate.
func (p *Panel) SequenceLength() float64 { return p.positions[p.numSites+1] }

// Positions returns the bracketed coordinate array of length NumSites()+2.
// Callers must not modify it.
func (p *Panel) Positions() []float64 { return p.positions }

// Haplotype returns row as a view into the panel.  Callers must not modify
// it.
func (p *Panel) Haplotype(row int) []hap.Allele {
	if row < 0 || row >= p.numHaps {
		log.Panicf("panel: row %d out of range [0,%d)", row, p.numHaps)
	}
	return p.data[row*p.numSites : (row+1)*p.numSites]
}
