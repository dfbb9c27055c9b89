// Package arena provides a bump allocator for long-lived records that are
// never released individually.  The ancestor builder uses it for canonical
// genotype vectors: identical vectors recur heavily in real data, and the
// surviving copies live until the whole builder is discarded, so per-object
// heap bookkeeping buys nothing.
package arena

import "github.com/grailbio/base/log"

// DefaultBlockSize is the block size used by NewDefault.
const DefaultBlockSize = 1 << 20

// Arena hands out byte slices carved from large blocks.  Allocations are
// zeroed.  Individual allocations cannot be freed; Reset drops everything at
// once.  An Arena is not safe for concurrent use.
type Arena struct {
	blockSize int
	blocks    [][]byte
	off       int // offset into the last block
	used      int64
}

// New returns an Arena that draws from blocks of the given size.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		log.Panicf("arena: invalid block size %d", blockSize)
	}
	return &Arena{blockSize: blockSize}
}

// NewDefault returns an Arena with DefaultBlockSize blocks.
func NewDefault() *Arena { return New(DefaultBlockSize) }

// Alloc returns a zeroed slice of n bytes. Requests larger than the block
// size get a dedicated block.
func (a *Arena) Alloc(n int) []byte {
	if n < 0 {
		log.Panicf("arena: invalid allocation size %d", n)
	}
	a.used += int64(n)
	if n > a.blockSize {
		// Dedicated block, inserted behind the current one so the current
		// block keeps filling up.
		b := make([]byte, n)
		if len(a.blocks) == 0 {
			a.blocks = append(a.blocks, b)
			a.off = n
			return b
		}
		last := len(a.blocks) - 1
		a.blocks = append(a.blocks, a.blocks[last])
		a.blocks[last] = b
		return b
	}
	if len(a.blocks) == 0 || a.off+n > a.blockSize {
		a.blocks = append(a.blocks, make([]byte, a.blockSize))
		a.off = 0
	}
	b := a.blocks[len(a.blocks)-1]
	s := b[a.off : a.off+n : a.off+n]
	a.off += n
	return s
}

// Stats describes the arena's memory usage.
type Stats struct {
	Blocks   int   // number of blocks reserved
	Reserved int64 // total bytes reserved from the heap
	Used     int64 // total bytes handed out by Alloc
}

// Stats returns the arena's current memory usage.
func (a *Arena) Stats() Stats {
	s := Stats{Blocks: len(a.blocks), Used: a.used}
	for _, b := range a.blocks {
		s.Reserved += int64(len(b))
	}
	return s
}

// Reset releases every allocation in bulk.  Slices previously returned by
// Alloc must not be used afterwards.
func (a *Arena) Reset() {
	a.blocks = nil
	a.off = 0
	a.used = 0
}
