// Package infer drives the full inference pipeline: it indexes the observed
// genotype matrix, builds ancestral haplotypes in frequency order, grows the
// reference panel one haplotype at a time, and threads every ancestor and
// sample through the panel as it stood when that haplotype was added.
//
// Ancestor sequences are reconstructed on a worker pool (construction reads
// only immutable state) while panel appends and threading runs are pushed
// through an ordered queue so that haplotype i always threads against
// exactly the first i panel rows, no matter which worker finished first.
package infer

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/grailbio/ancestry/ancestor"
	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/ancestry/panel"
	"github.com/grailbio/ancestry/thread"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"
)

// Ancestor is one reconstructed ancestral haplotype.
type Ancestor struct {
	// Frequency is the derived-allele count of the focal site.
	Frequency int
	// FocalSite is the site whose derived-allele carriers define this
	// ancestor.
	FocalSite hap.SiteID
	// Haplotype has one value per site; sites outside [Start, End) are
	// Unknown.
	Haplotype []hap.Allele
	// [Start, End) is the half-open span over which the ancestor is defined.
	Start, End hap.SiteID
}

// Threading is the copying path of one haplotype through the panel.
type Threading struct {
	// Path names the template row copied at each site.  It references panel
	// rows as the panel stood when this haplotype was threaded.  The oldest
	// ancestor has no templates; its Path is nil.
	Path []int32
	// Mutations lists the sites, ascending, where the haplotype disagrees
	// with its template.
	Mutations []hap.SiteID
}

// Result is the output of Run.
type Result struct {
	// Ancestors in build order: descending focal frequency, deterministic
	// within a frequency class.
	Ancestors []Ancestor
	// AncestorPaths[i] is ancestor i's threading against panel rows [0, i).
	AncestorPaths []Threading
	// SamplePaths[j] is sample j's threading against the full ancestor
	// panel.  Empty when no ancestors could be built.
	SamplePaths []Threading
	// Panel holds the ancestor rows followed by the sample rows.
	Panel *panel.Panel
}

// Run executes the pipeline over g.
func Run(g *Genotypes, opts Opts) (*Result, error) {
	if opts.RecombinationRate <= 0 {
		return nil, errors.New(fmt.Sprintf("infer: recombination rate %v must be positive", opts.RecombinationRate))
	}
	if opts.ErrorProb <= 0 || opts.ErrorProb >= 1 {
		return nil, errors.New(fmt.Sprintf("infer: error probability %v must be in (0,1)", opts.ErrorProb))
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	numSites := g.NumSites()

	b := ancestor.NewBuilder(g.NumSamples(), numSites)
	col := make([]hap.Allele, g.NumSamples())
	for l := 0; l < numSites; l++ {
		freq := g.siteColumn(l, col)
		if err := b.AddSite(hap.SiteID(l), freq, col); err != nil {
			return nil, err
		}
	}
	descriptors := b.Finalize()
	log.Debug.Printf("infer: %d samples, %d sites, %d ancestors", g.NumSamples(), numSites, len(descriptors))

	p, err := panel.New(g.Positions(), g.SequenceLength())
	if err != nil {
		return nil, err
	}
	result := &Result{
		Ancestors:     make([]Ancestor, len(descriptors)),
		AncestorPaths: make([]Threading, len(descriptors)),
		Panel:         p,
	}
	if len(descriptors) > 0 {
		if err := buildAndThreadAncestors(b, descriptors, p, opts, parallelism, result); err != nil {
			return nil, err
		}
	}

	// Samples join the panel after the ancestors, then thread against the
	// ancestor rows only.
	sampleBase := p.NumHaplotypes()
	for j := 0; j < g.NumSamples(); j++ {
		if _, err := p.Append(g.Sample(j)); err != nil {
			return nil, err
		}
	}
	result.SamplePaths = make([]Threading, g.NumSamples())
	if len(descriptors) == 0 {
		log.Error.Printf("infer: no site has frequency >= 2; samples cannot be threaded")
		return result, nil
	}
	var nextSample int64 = -1
	err = traverse.Each(parallelism, func(_ int) error {
		th := thread.NewThreader(p)
		for {
			j := int(atomic.AddInt64(&nextSample, 1))
			if j >= g.NumSamples() {
				return nil
			}
			path := make([]int32, numSites)
			muts, err := th.Run(sampleBase+j, sampleBase, opts.RecombinationRate, opts.ErrorProb, path)
			if err != nil {
				return err
			}
			result.SamplePaths[j] = Threading{Path: path, Mutations: muts}
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildAndThreadAncestors reconstructs every descriptor's haplotype on a
// worker pool and feeds the results through an ordered queue to a single
// consumer that appends to the panel and threads, in build order.
func buildAndThreadAncestors(b *ancestor.Builder, descriptors []ancestor.Descriptor,
	p *panel.Panel, opts Opts, parallelism int, result *Result) error {
	numSites := b.NumSites()
	queue := syncqueue.NewOrderedQueue(2 * parallelism)
	consumerErr := errors.Once{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		th := thread.NewThreader(p)
		for i := 0; ; i++ {
			entry, ok, err := queue.Next()
			if err != nil {
				consumerErr.Set(err)
				return
			}
			if !ok {
				return
			}
			anc := entry.(Ancestor)
			// The panel alphabet is {0,1}: unknown flanks become the
			// ancestral allele.
			row := make([]hap.Allele, numSites)
			for l, a := range anc.Haplotype {
				if a == hap.Derived {
					row[l] = hap.Derived
				}
			}
			rowIdx, err := p.Append(row)
			if err != nil {
				consumerErr.Set(err)
				_ = queue.Close(err)
				return
			}
			if rowIdx != i {
				log.Panicf("infer: ancestor %d appended as panel row %d", i, rowIdx)
			}
			var thr Threading
			if i == 0 {
				// The oldest ancestor has no templates.  Every derived site
				// it carries is a mutation on the root.
				for l, a := range row {
					if a == hap.Derived {
						thr.Mutations = append(thr.Mutations, hap.SiteID(l))
					}
				}
			} else {
				thr.Path = make([]int32, numSites)
				muts, err := th.Run(rowIdx, i, opts.RecombinationRate, opts.ErrorProb, thr.Path)
				if err != nil {
					consumerErr.Set(err)
					_ = queue.Close(err)
					return
				}
				thr.Mutations = muts
			}
			result.Ancestors[i] = anc
			result.AncestorPaths[i] = thr
		}
	}()

	var next int64 = -1
	err := traverse.Each(parallelism, func(_ int) error {
		for {
			i := int(atomic.AddInt64(&next, 1))
			if i >= len(descriptors) {
				return nil
			}
			d := descriptors[i]
			a := make([]hap.Allele, numSites)
			start, end, err := b.MakeAncestor(d, a)
			if err != nil {
				return err
			}
			anc := Ancestor{
				Frequency: d.Frequency,
				FocalSite: d.FocalSites[0],
				Haplotype: a,
				Start:     start,
				End:       end,
			}
			if err := queue.Insert(i, anc); err != nil {
				return err
			}
		}
	})
	if cerr := queue.Close(err); err == nil {
		err = cerr
	}
	wg.Wait()
	if err != nil {
		return err
	}
	return consumerErr.Err()
}
