package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/ancestry/infer"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// openMaybeGzip opens path and transparently decompresses it when the name
// says gzip.  The returned closer closes the underlying file.
func openMaybeGzip(ctx context.Context, path string) (io.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	closer := func() error { return in.Close(ctx) }
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			_ = closer()
			return nil, nil, err
		}
	}
	return reader, closer, nil
}

// parseGenotypes reads a genotype matrix: one sample per line, one
// tab-separated 0/1 column per site.  Lines starting with '#' and blank
// lines are skipped.
func parseGenotypes(r io.Reader) (numSamples, numSites int, data []hap.Allele, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<26)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if numSamples == 0 {
			numSites = len(cols)
		} else if len(cols) != numSites {
			return 0, 0, nil, errors.New(fmt.Sprintf("line %d: %d columns, want %d", lineNum, len(cols), numSites))
		}
		for _, col := range cols {
			switch col {
			case "0":
				data = append(data, hap.Ancestral)
			case "1":
				data = append(data, hap.Derived)
			default:
				return 0, 0, nil, errors.New(fmt.Sprintf("line %d: genotype %q not in {0,1}", lineNum, col))
			}
		}
		numSamples++
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, nil, err
	}
	if numSamples == 0 {
		return 0, 0, nil, errors.New("empty genotype matrix")
	}
	return numSamples, numSites, data, nil
}

// parsePositions reads one coordinate per line.
func parsePositions(r io.Reader) ([]float64, error) {
	var positions []float64
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pos, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("line %d: bad position %q", lineNum, line))
		}
		positions = append(positions, pos)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// readGenotypes loads the genotype matrix and optional site coordinates.
func readGenotypes(ctx context.Context, matrixPath, positionsPath string, sequenceLength float64) (*infer.Genotypes, error) {
	reader, closer, err := openMaybeGzip(ctx, matrixPath)
	if err != nil {
		return nil, err
	}
	numSamples, numSites, data, err := parseGenotypes(reader)
	if cerr := closer(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	var positions []float64
	if positionsPath != "" {
		reader, closer, err := openMaybeGzip(ctx, positionsPath)
		if err != nil {
			return nil, err
		}
		positions, err = parsePositions(reader)
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
	} else {
		sequenceLength = 0
	}
	return infer.NewGenotypes(numSamples, numSites, data, positions, sequenceLength)
}
