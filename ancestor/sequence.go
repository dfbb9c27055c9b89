package ancestor

import (
	"fmt"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/base/errors"
)

// MakeAncestor reconstructs the ancestral haplotype for descriptor d into a,
// which must have NumSites entries.  Sites inside the returned half-open
// span [start, end) are set to Derived or Ancestral; sites outside it are
// set to Unknown.  a[focal] is always Derived: the ancestor is defined as
// the haplotype on which the focal mutation arose.
//
// The reconstruction extends outwards from the focal site through the older
// sites (those with frequency strictly greater than the focal frequency),
// taking the consensus of the samples that carry the focal mutation at each
// one.  A sample is dropped from the consensus only after disagreeing with
// it at two consecutive older sites, and a pass stops once the surviving
// sample set has shrunk to at most half its starting size.  Younger sites
// inside the span are ancestrally absent by assumption and set to 0.
//
// MakeAncestor reads only state that is immutable once every site has been
// added, so concurrent calls with distinct output buffers are safe.
func (b *Builder) MakeAncestor(d Descriptor, a []hap.Allele) (start, end hap.SiteID, err error) {
	if len(d.FocalSites) != 1 {
		// The break policy seam permits multi-focal descriptors, but
		// reconstruction for them was retired along with pattern grouping.
		return 0, 0, errors.New(fmt.Sprintf(
			"ancestor: descriptor has %d focal sites, only single-focal ancestors are supported", len(d.FocalSites)))
	}
	focal := d.FocalSites[0]
	if int(focal) < 0 || int(focal) >= b.numSites {
		return 0, 0, errors.New(fmt.Sprintf("ancestor: focal site %d out of range [0,%d)", focal, b.numSites))
	}
	if len(a) != b.numSites {
		return 0, 0, errors.New(fmt.Sprintf("ancestor: output buffer has %d entries, want %d", len(a), b.numSites))
	}
	focalFreq := b.sites[focal].frequency
	if focalFreq < 2 {
		return 0, 0, errors.New(fmt.Sprintf("ancestor: focal site %d has frequency %d < 2", focal, focalFreq))
	}

	for i := range a {
		a[i] = hap.Unknown
	}
	a[focal] = hap.Derived

	older := make([]hap.SiteID, 0, b.numSites)
	sampleSet := make([]int32, 0, b.numSamples)
	disagree := make([]bool, b.numSamples)

	// Rightwards from the focal site.
	for l := int(focal) + 1; l < b.numSites; l++ {
		if b.sites[l].frequency > focalFreq {
			older = append(older, hap.SiteID(l))
		}
	}
	last := b.extendConsensus(focal, older, b.consistentSamples(focal, sampleSet), disagree, a)
	for l := int(focal) + 1; l < int(last); l++ {
		if b.sites[l].frequency <= focalFreq {
			a[l] = hap.Ancestral
		}
	}
	end = last + 1

	// Leftwards from the focal site.
	older = older[:0]
	for l := int(focal) - 1; l >= 0; l-- {
		if b.sites[l].frequency > focalFreq {
			older = append(older, hap.SiteID(l))
		}
	}
	last = b.extendConsensus(focal, older, b.consistentSamples(focal, sampleSet[:0]), disagree, a)
	for l := int(last) + 1; l < int(focal); l++ {
		if b.sites[l].frequency <= focalFreq {
			a[l] = hap.Ancestral
		}
	}
	start = last
	return start, end, nil
}

// extendConsensus runs one consensus-extension pass over the older sites, in
// the order given, and returns the last site whose consensus value was
// recorded into a (the focal site itself if none was).  sampleSet is
// consumed; disagree must have one entry per sample and is reset on entry.
func (b *Builder) extendConsensus(focal hap.SiteID, older []hap.SiteID, sampleSet []int32, disagree []bool, a []hap.Allele) hap.SiteID {
	last := focal
	minSize := len(sampleSet) / 2
	for i := range disagree {
		disagree[i] = false
	}
	for _, l := range older {
		g := b.sites[l].genotypes
		ones := 0
		for _, u := range sampleSet {
			ones += int(g[u])
		}
		zeros := len(sampleSet) - ones
		var consensus byte
		if ones >= zeros {
			consensus = 1
		}
		// Two strikes: drop samples that disagreed with the consensus here
		// and at the previous considered site.  A single disagreement is
		// tolerated as noise or a stray recombinant.
		kept := sampleSet[:0]
		for _, u := range sampleSet {
			if disagree[u] && g[u] != consensus {
				continue
			}
			kept = append(kept, u)
		}
		sampleSet = kept
		if len(sampleSet) <= minSize {
			// The consensus no longer represents the focal samples; the
			// ancestor ends at the previous recorded site.
			break
		}
		a[l] = hap.Allele(consensus)
		last = l
		for _, u := range sampleSet {
			disagree[u] = g[u] != consensus
		}
	}
	return last
}
