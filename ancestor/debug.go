package ancestor

import (
	"fmt"
	"io"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/base/errors"
)

// WriteDebug dumps the builder's state to w in a human-readable form.
func (b *Builder) WriteDebug(w io.Writer) {
	fmt.Fprintf(w, "ancestor builder: num_samples=%d num_sites=%d num_ancestors=%d\n",
		b.numSamples, b.numSites, b.numAncestors)
	fmt.Fprintf(w, "sites:\n")
	for l := range b.sites {
		fmt.Fprintf(w, "\t%d\tfreq=%d\n", l, b.sites[l].frequency)
	}
	fmt.Fprintf(w, "pattern index:\n")
	for f := len(b.freqIndex) - 1; f >= 0; f-- {
		tree := &b.freqIndex[f]
		if tree.Len() == 0 {
			continue
		}
		fmt.Fprintf(w, "\tfreq=%d: %d patterns\n", f, tree.Len())
		tree.Do(func(c llrb.Comparable) bool {
			e := c.(patternKey).entry
			fmt.Fprintf(w, "\t\t")
			for _, g := range e.genotypes {
				fmt.Fprintf(w, "%d", g)
			}
			fmt.Fprintf(w, "\tsites=%v\n", b.siteList(e))
			return false
		})
	}
	stats := b.alloc.Stats()
	fmt.Fprintf(w, "arena: blocks=%d reserved=%d used=%d\n",
		stats.Blocks, stats.Reserved, stats.Used)
}

// checkState verifies the pattern index invariants: every pattern in
// frequency class f has exactly f derived alleles, every site on its list
// shares its frequency and canonical vector, and the list length matches the
// recorded count.
func (b *Builder) checkState() error {
	var err error
	for f := range b.freqIndex {
		freq := f
		b.freqIndex[f].Do(func(c llrb.Comparable) bool {
			e := c.(patternKey).entry
			ones := 0
			for _, g := range e.genotypes {
				ones += int(g)
			}
			if ones != freq {
				err = errors.New(fmt.Sprintf("pattern in class %d has %d derived alleles", freq, ones))
				return true
			}
			n := 0
			for ci := e.head; ci != -1; ci = b.cells[ci].next {
				l := b.cells[ci].site
				if b.sites[l].frequency != freq {
					err = errors.New(fmt.Sprintf("site %d frequency %d filed under class %d", l, b.sites[l].frequency, freq))
					return true
				}
				if &b.sites[l].genotypes[0] != &e.genotypes[0] {
					err = errors.New(fmt.Sprintf("site %d does not share its pattern's canonical vector", l))
					return true
				}
				n++
			}
			if n != e.numSites {
				err = errors.New(fmt.Sprintf("pattern site list has %d cells, count says %d", n, e.numSites))
				return true
			}
			return false
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FrequencyOf returns the derived-allele frequency recorded for site l.
func (b *Builder) FrequencyOf(l hap.SiteID) int { return b.sites[l].frequency }
