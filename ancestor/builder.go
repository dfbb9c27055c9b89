package ancestor

import (
	"bytes"
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/ancestry/arena"
	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// patternEntry owns one canonical genotype vector together with the sites
// that produce it.  The site list is kept newest-first as indices into
// Builder.cells and reversed to ascending site order on emission, which
// relies on AddSite being called in increasing site order.
type patternEntry struct {
	genotypes []byte // canonical {0,1} vector, arena-owned
	numSites  int
	head      int32 // newest-first list head in Builder.cells; -1 if empty
}

// patternKey is the llrb element for one pattern entry.  Entries within a
// frequency class are totally ordered by the bytes of their genotype vector,
// making iteration order deterministic.
type patternKey struct {
	genotypes []byte
	entry     *patternEntry
}

// Compare implements llrb.Comparable.
func (k patternKey) Compare(c llrb.Comparable) int {
	return bytes.Compare(k.genotypes, c.(patternKey).genotypes)
}

// siteCell is one cell of a pattern entry's singly linked site list.  Cells
// live in a single append-only pool and are freed only when the Builder is
// discarded.
type siteCell struct {
	site hap.SiteID
	next int32 // index into Builder.cells, -1 terminates
}

// site holds the per-site metadata recorded by AddSite.
type site struct {
	frequency int
	// genotypes points at the canonical pattern vector shared by every site
	// with the same pattern at the same frequency.  nil for sites with
	// frequency <= 1; those sites never act as focal or older sites, so
	// their vectors are not retained.
	genotypes []byte
}

// Builder constructs ancestral haplotypes from per-site genotype vectors.
// Feed it every site with AddSite, call Finalize to obtain the ancestor
// descriptors in build order, then call MakeAncestor once per descriptor.
//
// A Builder is not safe for concurrent mutation, but once every site has
// been added, MakeAncestor only reads shared state and may be called from
// multiple goroutines at once.
type Builder struct {
	numSamples int
	numSites   int

	sites []site
	// freqIndex[f] is the ordered set of genotype patterns whose
	// derived-allele count is f.  Classes 0 and 1 stay empty: no ancestor is
	// built from a singleton-sample site.
	freqIndex []llrb.Tree
	cells     []siteCell
	alloc     *arena.Arena
	probe     []byte // AddSite scratch, one byte per sample

	nextSite     hap.SiteID
	numAncestors int
	finalized    bool
	breakBetween BreakPolicy
}

// NewBuilder returns a Builder for numSamples samples and numSites sites.
// numSamples must be at least 2.
func NewBuilder(numSamples, numSites int) *Builder {
	if numSamples < 2 {
		log.Panicf("ancestor: NewBuilder needs at least 2 samples, got %d", numSamples)
	}
	if numSites < 0 {
		log.Panicf("ancestor: negative site count %d", numSites)
	}
	return &Builder{
		numSamples:   numSamples,
		numSites:     numSites,
		sites:        make([]site, numSites),
		freqIndex:    make([]llrb.Tree, numSamples+1),
		alloc:        arena.NewDefault(),
		probe:        make([]byte, numSamples),
		breakBetween: AlwaysBreak,
	}
}

// NumSamples returns the number of samples.
func (b *Builder) NumSamples() int { return b.numSamples }

// NumSites returns the number of sites.
func (b *Builder) NumSites() int { return b.numSites }

// NumAncestors returns the number of descriptors emitted by Finalize.  It is
// zero before Finalize is called.
func (b *Builder) NumAncestors() int { return b.numAncestors }

// AddSite records site l with the given derived-allele frequency and
// genotype vector.  Sites must be added exactly once each, in increasing
// site order; the pattern index relies on that ordering to recover ascending
// site lists from its newest-first internal lists.
//
// genotypes must have one value per sample, restricted to {0,1}, and
// frequency must equal its derived-allele count.  Sites with frequency <= 1
// are recorded in the site table but never produce an ancestor.
func (b *Builder) AddSite(l hap.SiteID, frequency int, genotypes []hap.Allele) error {
	if b.finalized {
		return errors.New("ancestor: AddSite called after Finalize")
	}
	if int(l) >= b.numSites {
		return errors.New(fmt.Sprintf("ancestor: site %d out of range [0,%d)", l, b.numSites))
	}
	if l != b.nextSite {
		return errors.New(fmt.Sprintf("ancestor: sites must be added in increasing order: got site %d, want %d", l, b.nextSite))
	}
	if len(genotypes) != b.numSamples {
		return errors.New(fmt.Sprintf("ancestor: genotype vector has %d entries, want %d", len(genotypes), b.numSamples))
	}
	n, err := hap.CheckGenotypes(genotypes)
	if err != nil {
		return errors.E(err, "ancestor: AddSite")
	}
	if n != frequency {
		return errors.New(fmt.Sprintf("ancestor: frequency %d does not match derived-allele count %d", frequency, n))
	}
	b.nextSite++
	b.sites[l].frequency = frequency
	if frequency <= 1 {
		return nil
	}

	for i, a := range genotypes {
		b.probe[i] = byte(a)
	}
	tree := &b.freqIndex[frequency]
	var entry *patternEntry
	if got := tree.Get(patternKey{genotypes: b.probe}); got != nil {
		entry = got.(patternKey).entry
	} else {
		vec := b.alloc.Alloc(b.numSamples)
		copy(vec, b.probe)
		entry = &patternEntry{genotypes: vec, head: -1}
		tree.Insert(patternKey{genotypes: vec, entry: entry})
	}
	b.sites[l].genotypes = entry.genotypes
	entry.numSites++
	b.cells = append(b.cells, siteCell{site: l, next: entry.head})
	entry.head = int32(len(b.cells) - 1)
	return nil
}

// siteList returns e's sites in ascending site order.
func (b *Builder) siteList(e *patternEntry) []hap.SiteID {
	sites := make([]hap.SiteID, e.numSites)
	k := e.numSites - 1
	for ci := e.head; ci != -1; ci = b.cells[ci].next {
		sites[k] = b.cells[ci].site
		k--
	}
	return sites
}

// consistentSamples appends to buf the samples carrying the derived allele
// at the focal site.
func (b *Builder) consistentSamples(focal hap.SiteID, buf []int32) []int32 {
	g := b.sites[focal].genotypes
	for j := 0; j < b.numSamples; j++ {
		if g[j] == 1 {
			buf = append(buf, int32(j))
		}
	}
	return buf
}
