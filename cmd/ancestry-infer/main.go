package main

/*
ancestry-infer reconstructs ancestral haplotypes from a binary genotype
matrix and threads every ancestor and sample through the growing reference
panel.

The input is a TSV with one row per sample and one 0/1 column per site;
lines starting with '#' are skipped.  Site coordinates default to unit
spacing and can be overridden with -positions.

Example:

   ancestry-infer -input genotypes.tsv.gz -out study1 -checksum
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/ancestry/infer"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

var (
	inputPath      = flag.String("input", "", "Input genotype matrix TSV, optionally gzipped; one row per sample, one 0/1 column per site")
	positionsPath  = flag.String("positions", "", "Optional site coordinate file, one position per line; default is unit spacing")
	sequenceLength = flag.Float64("sequence-length", 0, "Total sequence length; required with -positions, ignored otherwise")
	recombRate     = flag.Float64("recombination-rate", infer.DefaultOpts.RecombinationRate, "Per-distance recombination rate used during threading")
	errorProb      = flag.Float64("error-prob", infer.DefaultOpts.ErrorProb, "Per-site mismatch probability used during threading")
	parallelism    = flag.Int("parallelism", infer.DefaultOpts.Parallelism, "Maximum number of worker goroutines; 0 = runtime.NumCPU()")
	outPrefix      = flag.String("out", "ancestry-infer", "Output path prefix")
	checksum       = flag.Bool("checksum", false, "Print a seahash of every output file")
)

func usage() {
	fmt.Printf("Usage: %s -input matrix.tsv [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *inputPath == "" {
		log.Fatalf("-input is required")
	}
	if *positionsPath != "" && *sequenceLength <= 0 {
		log.Fatalf("-sequence-length must be positive when -positions is given")
	}
	ctx := vcontext.Background()

	g, err := readGenotypes(ctx, *inputPath, *positionsPath, *sequenceLength)
	if err != nil {
		log.Fatalf("%s: %v", *inputPath, err)
	}
	log.Printf("Read %d samples × %d sites from %s", g.NumSamples(), g.NumSites(), *inputPath)

	opts := infer.Opts{
		RecombinationRate: *recombRate,
		ErrorProb:         *errorProb,
		Parallelism:       *parallelism,
	}
	result, err := infer.Run(g, opts)
	if err != nil {
		log.Fatalf("inference failed: %v", err)
	}
	log.Printf("Built %d ancestors, threaded %d samples", len(result.Ancestors), len(result.SamplePaths))

	paths, err := writeResults(ctx, *outPrefix, result)
	if err != nil {
		log.Fatalf("writing results: %v", err)
	}
	if *checksum {
		for _, path := range paths {
			sum, err := checksumFile(ctx, path)
			if err != nil {
				log.Fatalf("%s: %v", path, err)
			}
			log.Printf("%s: seahash %016x", path, sum)
		}
	}
}
