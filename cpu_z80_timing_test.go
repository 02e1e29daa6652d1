package main

import "testing"

func TestZ80RefreshCountsPerOpcodeSpace(t *testing.T) {
	// One increment per fetched opcode byte: base 1, CB/ED/DD 2, DDCB 3.
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x00,       // NOP
		0xCB, 0x00, // RLC B
		0xED, 0x44, // NEG
		0xDD, 0x23, // INC IX
		0xDD, 0xCB, 0x01, 0x06, // RLC (IX+1)
	})
	rig.cpu.IX = 0x6000

	rig.cpu.Step()
	requireZ80EqualU8(t, "R", rig.cpu.R&0x7F, 1)
	rig.cpu.Step()
	requireZ80EqualU8(t, "R", rig.cpu.R&0x7F, 3)
	rig.cpu.Step()
	requireZ80EqualU8(t, "R", rig.cpu.R&0x7F, 5)
	rig.cpu.Step()
	requireZ80EqualU8(t, "R", rig.cpu.R&0x7F, 7)
	rig.cpu.Step()
	requireZ80EqualU8(t, "R", rig.cpu.R&0x7F, 10)
}

func TestZ80RefreshBit7Preserved(t *testing.T) {
	// Only the low seven bits count; bit 7 holds whatever LD R,A stored.
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xED, 0x4F, // LD R,A
		0x00, 0x00, 0x00, 0x00, // NOP x4
		0xED, 0x5F, // LD A,R
	})
	rig.cpu.A = 0x7F

	for i := 0; i < 6; i++ {
		rig.cpu.Step()
	}
	// 0x7F plus four NOPs and the final two fetches wraps the counter
	// into bit 7, which LD A,R masks back out.
	requireZ80EqualU8(t, "R", rig.cpu.R, 0x85)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x05)
}
