package ancestor

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/ancestry/hap"
)

// Descriptor names one ancestor to be built: the shared derived-allele
// frequency and the focal sites that define it.  Under the default break
// policy every descriptor carries exactly one focal site.
type Descriptor struct {
	Frequency  int
	FocalSites []hap.SiteID
}

// BreakPolicy decides whether two adjacent focal sites sharing a genotype
// pattern become separate ancestors.  a < b always holds.  Returning false
// keeps a and b in the same descriptor, merging them into one multi-focal
// ancestor.
type BreakPolicy func(a, b hap.SiteID) bool

// AlwaysBreak splits every shared pattern into single-focal-site ancestors.
// It is the default policy and the only one MakeAncestor supports; the seam
// exists for experiments with multi-focal ancestors.
func AlwaysBreak(a, b hap.SiteID) bool { return true }

// SetBreakPolicy replaces the break policy consulted by Finalize.  Must be
// called before Finalize.
func (b *Builder) SetBreakPolicy(p BreakPolicy) { b.breakBetween = p }

// Finalize emits the ancestor descriptors in build order: frequency classes
// in strictly descending order from NumSamples down to 2, patterns within a
// class in lexicographic order of their genotype vectors, and a pattern's
// sites in ascending site order.  A derived allele carried by more samples
// is assumed to have arisen earlier, so high-frequency ancestors are built
// first and form the oldest layers of the reconstruction.
//
// The emitted order is fully determined by the input matrix, so identical
// inputs yield byte-for-byte identical descriptor lists.
func (b *Builder) Finalize() []Descriptor {
	descriptors := make([]Descriptor, 0, b.numSites)
	for f := b.numSamples; f > 1; f-- {
		b.freqIndex[f].Do(func(c llrb.Comparable) bool {
			sites := b.siteList(c.(patternKey).entry)
			start := 0
			for i := 0; i+1 < len(sites); i++ {
				if b.breakBetween(sites[i], sites[i+1]) {
					descriptors = append(descriptors, Descriptor{Frequency: f, FocalSites: sites[start : i+1]})
					start = i + 1
				}
			}
			descriptors = append(descriptors, Descriptor{Frequency: f, FocalSites: sites[start:]})
			return false
		})
	}
	b.finalized = true
	b.numAncestors = len(descriptors)
	return descriptors
}
