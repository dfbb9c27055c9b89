package main

import (
	"context"
	"io"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/ancestry/hap"
	"github.com/grailbio/ancestry/infer"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// haplotypeString renders a haplotype as one character per site, with '.'
// for sites outside the defined span.
func haplotypeString(h []hap.Allele) string {
	var sb strings.Builder
	for _, a := range h {
		switch a {
		case hap.Ancestral:
			sb.WriteByte('0')
		case hap.Derived:
			sb.WriteByte('1')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// joinInt32 renders a path as comma-separated row indices, '.' when empty.
func joinInt32(path []int32) string {
	if len(path) == 0 {
		return "."
	}
	var sb strings.Builder
	for i, row := range path {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(row)))
	}
	return sb.String()
}

func joinSites(sites []hap.SiteID) string {
	if len(sites) == 0 {
		return "."
	}
	var sb strings.Builder
	for i, l := range sites {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(l)))
	}
	return sb.String()
}

func writeAncestors(ctx context.Context, path string, ancestors []infer.Ancestor) (err error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := tsv.NewWriter(dst.Writer(ctx))
	w.WriteString("ANCESTOR\tFREQUENCY\tFOCAL\tSTART\tEND\tHAPLOTYPE")
	if err = w.EndLine(); err != nil {
		return err
	}
	for i, a := range ancestors {
		w.WriteInt64(int64(i))
		w.WriteInt64(int64(a.Frequency))
		w.WriteInt64(int64(a.FocalSite))
		w.WriteInt64(int64(a.Start))
		w.WriteInt64(int64(a.End))
		w.WriteString(haplotypeString(a.Haplotype))
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writePaths(ctx context.Context, path string, ancestorPaths, samplePaths []infer.Threading) (err error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := tsv.NewWriter(dst.Writer(ctx))
	w.WriteString("KIND\tID\tPATH\tMUTATIONS")
	if err = w.EndLine(); err != nil {
		return err
	}
	writeOne := func(kind string, id int, thr infer.Threading) error {
		w.WriteString(kind)
		w.WriteInt64(int64(id))
		w.WriteString(joinInt32(thr.Path))
		w.WriteString(joinSites(thr.Mutations))
		return w.EndLine()
	}
	for i, thr := range ancestorPaths {
		if err = writeOne("ancestor", i, thr); err != nil {
			return err
		}
	}
	for j, thr := range samplePaths {
		if err = writeOne("sample", j, thr); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeResults writes the inference outputs under the given path prefix and
// returns the paths written.
func writeResults(ctx context.Context, prefix string, result *infer.Result) ([]string, error) {
	ancestorsPath := prefix + ".ancestors.tsv"
	pathsPath := prefix + ".paths.tsv"
	if err := writeAncestors(ctx, ancestorsPath, result.Ancestors); err != nil {
		return nil, err
	}
	if err := writePaths(ctx, pathsPath, result.AncestorPaths, result.SamplePaths); err != nil {
		return nil, err
	}
	return []string{ancestorsPath, pathsPath}, nil
}

// checksumFile returns the seahash of a file's contents.
func checksumFile(ctx context.Context, path string) (uint64, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	h := seahash.New()
	_, err = io.Copy(h, in.Reader(ctx))
	if cerr := in.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
