// cpu_z80_flags.go - Precomputed flag tables for the 8-bit ALU

package main

import "sync"

// Flag register bit positions.
const (
	flagC byte = 0x01
	flagN byte = 0x02
	flagP byte = 0x04 // parity/overflow
	flagX byte = 0x08 // undocumented, mirrors result bit 3
	flagH byte = 0x10
	flagY byte = 0x20 // undocumented, mirrors result bit 5
	flagZ byte = 0x40
	flagS byte = 0x80
)

// Shared across every context in the process; built once on first use.
// szFlags holds sign/zero plus the undocumented bits, szBitFlags the
// BIT-instruction variant (zero implies parity), szpFlags adds computed
// parity, incFlags/decFlags the INC/DEC result flags.
//
// addFlags and subFlags cover the whole 8-bit add/sub domain: index is
// carryIn<<16 | oldAccumulator<<8 | result. This reproduces the
// undocumented bit-5/3 behavior without per-call branching.
var (
	szFlags    [256]byte
	szBitFlags [256]byte
	szpFlags   [256]byte
	incFlags   [256]byte
	decFlags   [256]byte
	addFlags   []byte
	subFlags   []byte

	flagTablesOnce sync.Once
)

func buildFlagTables() {
	addFlags = make([]byte, 2*256*256)
	subFlags = make([]byte, 2*256*256)
	for oldval := 0; oldval < 256; oldval++ {
		for newval := 0; newval < 256; newval++ {
			padd := &addFlags[oldval<<8|newval]
			padc := &addFlags[1<<16|oldval<<8|newval]
			psub := &subFlags[oldval<<8|newval]
			psbc := &subFlags[1<<16|oldval<<8|newval]

			// add/adc without carry in
			val := newval - oldval
			*padd = signZero(newval) | byte(newval)&(flagY|flagX)
			if newval&0x0f < oldval&0x0f {
				*padd |= flagH
			}
			if newval < oldval {
				*padd |= flagC
			}
			if (val^oldval^0x80)&(val^newval)&0x80 != 0 {
				*padd |= flagP
			}

			// adc with carry in
			val = newval - oldval - 1
			*padc = signZero(newval) | byte(newval)&(flagY|flagX)
			if newval&0x0f <= oldval&0x0f {
				*padc |= flagH
			}
			if newval <= oldval {
				*padc |= flagC
			}
			if (val^oldval^0x80)&(val^newval)&0x80 != 0 {
				*padc |= flagP
			}

			// cp/sub/sbc without carry in
			val = oldval - newval
			*psub = flagN | signZero(newval) | byte(newval)&(flagY|flagX)
			if newval&0x0f > oldval&0x0f {
				*psub |= flagH
			}
			if newval > oldval {
				*psub |= flagC
			}
			if (val^oldval)&(oldval^newval)&0x80 != 0 {
				*psub |= flagP
			}

			// sbc with carry in
			val = oldval - newval - 1
			*psbc = flagN | signZero(newval) | byte(newval)&(flagY|flagX)
			if newval&0x0f >= oldval&0x0f {
				*psbc |= flagH
			}
			if newval >= oldval {
				*psbc |= flagC
			}
			if (val^oldval)&(oldval^newval)&0x80 != 0 {
				*psbc |= flagP
			}
		}
	}

	for i := 0; i < 256; i++ {
		szFlags[i] = signZero(i) | byte(i)&(flagY|flagX)
		szBitFlags[i] = szFlags[i]
		if i == 0 {
			szBitFlags[i] |= flagP
		}
		p := 0
		for b := i; b != 0; b >>= 1 {
			p += b & 1
		}
		szpFlags[i] = szFlags[i]
		if p&1 == 0 {
			szpFlags[i] |= flagP
		}
		incFlags[i] = szFlags[i]
		if i == 0x80 {
			incFlags[i] |= flagP
		}
		if i&0x0f == 0x00 {
			incFlags[i] |= flagH
		}
		decFlags[i] = szFlags[i] | flagN
		if i == 0x7f {
			decFlags[i] |= flagP
		}
		if i&0x0f == 0x0f {
			decFlags[i] |= flagH
		}
	}
}

func signZero(v int) byte {
	if v == 0 {
		return flagZ
	}
	return byte(v) & flagS
}
