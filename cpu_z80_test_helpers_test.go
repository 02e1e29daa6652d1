package main

import "testing"

// z80TestBus backs the rig's memory and I/O chunk tables with plain
// arrays so tests can seed and inspect them directly.
type z80TestBus struct {
	mem   [0x10000]byte
	io    [0x10000]byte
	ticks uint64
}

func (b *z80TestBus) chunks() []MemmapChunk {
	return []MemmapChunk{
		{Start: 0x0000, End: 0x10000, Flags: ChunkRead | ChunkWrite | ChunkCode, Buffer: b.mem[:]},
	}
}

// Ports resolve through accessors so the io array sees the full 16-bit
// port number on both reads and writes.
func (b *z80TestBus) ioChunks() []MemmapChunk {
	return []MemmapChunk{
		{
			Start: 0x0000, End: 0x10000, Flags: ChunkRead | ChunkWrite,
			Read8:  func(addr uint32) uint8 { return b.io[addr&0xFFFF] },
			Write8: func(addr uint32, val uint8) { b.io[addr&0xFFFF] = val },
		},
	}
}

// testZ80 drives the context one instruction at a time and keeps a
// running T-state tally for the timing assertions.
type testZ80 struct {
	*Z80
	bus    *z80TestBus
	Cycles uint64
}

// Step runs exactly one instruction: with a unit clock divider a
// one-cycle target admits a single opcode, and the overshoot beyond the
// target is the instruction's true cost.
func (c *testZ80) Step() {
	before := c.CurrentCycle
	c.Run(c.CurrentCycle + 1)
	elapsed := uint64(c.CurrentCycle - before)
	c.Cycles += elapsed
	c.bus.ticks += elapsed
}

func (c *testZ80) Flag(f byte) bool { return c.F&f != 0 }

func (c *testZ80) SetFlag(f byte, on bool) {
	if on {
		c.F |= f
	} else {
		c.F &^= f
	}
}

type cpuZ80TestRig struct {
	bus *z80TestBus
	cpu *testZ80
}

func newCPUZ80TestRig() *cpuZ80TestRig {
	bus := &z80TestBus{}
	opts := NewZ80Options(bus.chunks(), bus.ioChunks(), 1, 0xFFFF)
	cpu := &testZ80{Z80: NewZ80(opts), bus: bus}
	return &cpuZ80TestRig{bus: bus, cpu: cpu}
}

func (r *cpuZ80TestRig) resetAndLoad(start uint16, program []byte) {
	fresh := newCPUZ80TestRig()
	r.bus = fresh.bus
	r.cpu = fresh.cpu
	copy(r.bus.mem[int(start):], program)
	r.cpu.PC = start
}

func requireZ80EqualU16(t *testing.T, name string, got, want uint16) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%04X, want 0x%04X", name, got, want)
	}
}

func requireZ80EqualU8(t *testing.T, name string, got, want byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%02X, want 0x%02X", name, got, want)
	}
}
