package arena_test

import (
	"testing"

	"github.com/grailbio/ancestry/arena"
	"github.com/grailbio/testutil/expect"
)

func TestAlloc(t *testing.T) {
	a := arena.New(64)
	x := a.Alloc(10)
	expect.EQ(t, len(x), 10)
	for _, b := range x {
		expect.EQ(t, b, byte(0))
	}
	y := a.Alloc(10)
	// Writes to one allocation must not be visible through another.
	for i := range x {
		x[i] = 0xff
	}
	for _, b := range y {
		expect.EQ(t, b, byte(0))
	}
	expect.EQ(t, a.Stats().Blocks, 1)
	expect.EQ(t, a.Stats().Used, int64(20))
}

func TestAllocSpillsToNewBlock(t *testing.T) {
	a := arena.New(64)
	a.Alloc(60)
	a.Alloc(60)
	s := a.Stats()
	expect.EQ(t, s.Blocks, 2)
	expect.EQ(t, s.Reserved, int64(128))
	expect.EQ(t, s.Used, int64(120))
}

func TestAllocOversize(t *testing.T) {
	a := arena.New(64)
	small := a.Alloc(8)
	big := a.Alloc(1000)
	expect.EQ(t, len(big), 1000)
	// The current block keeps filling after an oversize request.
	small2 := a.Alloc(8)
	small[0] = 1
	small2[0] = 2
	expect.EQ(t, small[0], byte(1))
	expect.EQ(t, a.Stats().Blocks, 2)

	// Oversize request on a fresh arena.
	a2 := arena.New(64)
	expect.EQ(t, len(a2.Alloc(100)), 100)
	expect.EQ(t, a2.Stats().Blocks, 1)
}

func TestReset(t *testing.T) {
	a := arena.New(64)
	a.Alloc(32)
	a.Alloc(100)
	a.Reset()
	s := a.Stats()
	expect.EQ(t, s.Blocks, 0)
	expect.EQ(t, s.Reserved, int64(0))
	expect.EQ(t, s.Used, int64(0))
	expect.EQ(t, len(a.Alloc(16)), 16)
}

func TestZeroAlloc(t *testing.T) {
	a := arena.NewDefault()
	expect.EQ(t, len(a.Alloc(0)), 0)
}
