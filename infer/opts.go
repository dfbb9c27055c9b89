package infer

// Opts configures a Run.
type Opts struct {
	// RecombinationRate is the per-distance coefficient trading template
	// switches against mismatches during threading.  Must be positive.
	RecombinationRate float64
	// ErrorProb is the per-site probability that an observed allele
	// disagrees with its copying template.  Must lie in (0, 1).
	ErrorProb float64
	// Parallelism bounds the number of worker goroutines used for ancestor
	// construction and sample threading.  <= 0 means one per CPU.
	Parallelism int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	RecombinationRate: 1e-8, // per-base, human-genome scale
	ErrorProb:         1e-3,
	Parallelism:       0,
}
