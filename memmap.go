// memmap.go - Chunked memory map shared by the CPU cores and the machine harness

package main

import (
	"fmt"
	"os"
)

// Chunk capability flags. A chunk with none of Read/Write set is a hole
// that still claims its address range (accesses yield open bus).
type ChunkFlags uint32

const (
	ChunkRead ChunkFlags = 1 << iota
	ChunkWrite
	ChunkCode
	ChunkPtrIdx   // backed by a runtime-swappable pointer slot, not Buffer
	ChunkFuncNull // missing accessor/pointer reads as open bus instead of faulting
	ChunkOnlyOdd  // byte lanes for the 16-bit sibling bus
	ChunkOnlyEven
)

// MemmapChunk describes one address range of a bus. Resolution is
// first-match in table order. End is exclusive. A zero Mask means the
// chunk is not mirrored (the full offset addresses the backing store).
type MemmapChunk struct {
	Start, End uint32
	Mask       uint32
	Flags      ChunkFlags

	// Exactly one backing should be populated: a direct Buffer, a
	// PtrIndex into the context's swappable pointer slots, or the
	// Read8/Write8 accessor pair for device registers.
	PtrIndex int
	Buffer   []byte
	Read8    func(addr uint32) uint8
	Write8   func(addr uint32, val uint8)
}

// Swappable banking slots per context (cartridge paging and the like).
const numMemPointers = 4

const (
	bankShift = 13
	bankSize  = 1 << bankShift // 8KB fast-path banks
)

func findMapChunk(chunks []MemmapChunk, addr uint32) *MemmapChunk {
	for i := range chunks {
		if addr >= chunks[i].Start && addr < chunks[i].End {
			return &chunks[i]
		}
	}
	return nil
}

func (c *MemmapChunk) effMask() uint32 {
	if c.Mask != 0 {
		return c.Mask
	}
	return ^uint32(0)
}

// chunkOffset maps a bus address to an index into the chunk's backing
// store, applying mirroring and byte-lane selection. ok is false when
// the address falls on the absent lane of an odd/even chunk.
func (c *MemmapChunk) chunkOffset(addr uint32) (offset uint32, ok bool) {
	offset = (addr - c.Start) & c.effMask()
	switch {
	case c.Flags&ChunkOnlyOdd != 0:
		if addr&1 == 0 {
			return 0, false
		}
		offset >>= 1
	case c.Flags&ChunkOnlyEven != 0:
		if addr&1 != 0 {
			return 0, false
		}
		offset >>= 1
	}
	return offset, true
}

// accessorAddr is what device accessors see: the bus address folded by
// the chunk's mirror mask.
func (c *MemmapChunk) accessorAddr(addr uint32) uint32 {
	if c.Mask != 0 {
		return addr & c.Mask
	}
	return addr
}

// busRead resolves addr against a chunk table. Unmapped or unbacked
// accesses latch a session fault on the context and read as open bus.
func (z *Z80) busRead(chunks []MemmapChunk, addr uint32) uint8 {
	c := findMapChunk(chunks, addr)
	if c == nil {
		z.busFault(addr, false)
		return 0xFF
	}
	if c.Flags&ChunkRead == 0 {
		return 0xFF
	}
	if c.Read8 != nil {
		return c.Read8(c.accessorAddr(addr))
	}
	offset, ok := c.chunkOffset(addr)
	if !ok {
		return 0xFF
	}
	if c.Flags&ChunkPtrIdx != 0 {
		if p := z.memPointers[c.PtrIndex]; p != nil {
			return p[offset]
		}
	} else if c.Buffer != nil {
		return c.Buffer[offset]
	}
	if c.Flags&ChunkFuncNull != 0 {
		return 0xFF
	}
	z.busFault(addr, false)
	return 0xFF
}

func (z *Z80) busWrite(chunks []MemmapChunk, addr uint32, val uint8) {
	c := findMapChunk(chunks, addr)
	if c == nil {
		z.busFault(addr, true)
		return
	}
	if c.Flags&ChunkWrite == 0 {
		return
	}
	if c.Write8 != nil {
		c.Write8(c.accessorAddr(addr), val)
		return
	}
	offset, ok := c.chunkOffset(addr)
	if !ok {
		return
	}
	if c.Flags&ChunkPtrIdx != 0 {
		if p := z.memPointers[c.PtrIndex]; p != nil {
			p[offset] = val
			return
		}
	} else if c.Buffer != nil {
		c.Buffer[offset] = val
		return
	}
	if c.Flags&ChunkFuncNull != 0 {
		return
	}
	z.busFault(addr, true)
}

func (z *Z80) busFault(addr uint32, write bool) {
	if z.fault != nil {
		return
	}
	dir := "read"
	if write {
		dir = "write"
	}
	z.fault = fmt.Errorf("unmapped %s at %04X (PC=%04X)", dir, addr, z.PC)
	fmt.Fprintf(os.Stderr, "z80: %v\n", z.fault)
}

// Fault reports the first unmapped access, if any. A faulted context
// stops executing; the session is dead but the process is not.
func (z *Z80) Fault() error {
	return z.fault
}

// SetMemPointer installs or swaps the backing store for ChunkPtrIdx
// chunks. Pointer-slot chunks never get fast-path banks, so no rebuild
// is needed when a bank is swapped mid-session.
func (z *Z80) SetMemPointer(idx int, buf []byte) {
	z.memPointers[idx] = buf
}

// deriveBanks precomputes direct slices for every 8KB bank fully
// covered by a linear buffer-backed chunk. Chunks that mirror within a
// bank, use accessors, or use pointer slots stay on the generic path.
func (z *Z80) deriveBanks() {
	for addr := uint32(0); addr < 0x10000; addr += bankSize {
		bank := addr >> bankShift
		z.readBanks[bank] = nil
		z.writeBanks[bank] = nil
		c := findMapChunk(z.memmap, addr)
		if c == nil || c.End < addr+bankSize || c.Buffer == nil {
			continue
		}
		if c.Flags&ChunkPtrIdx != 0 || c.Read8 != nil || c.Write8 != nil {
			continue
		}
		if c.Flags&(ChunkOnlyOdd|ChunkOnlyEven) != 0 || c.effMask() < bankSize-1 {
			continue
		}
		buf := c.Buffer
		offset := (addr - c.Start) & c.effMask()
		if uint32(len(buf)) < offset+bankSize {
			continue
		}
		if c.Flags&ChunkRead != 0 {
			z.readBanks[bank] = buf[offset : offset+bankSize]
		}
		if c.Flags&ChunkWrite != 0 {
			z.writeBanks[bank] = buf[offset : offset+bankSize]
		}
	}
}
