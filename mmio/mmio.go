// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mmio maps the FPGA mining IP core's register block into the
// process and exposes typed, read-modify-write access to it.
//
// The register block is a fixed 4KiB window containing a control register,
// a status register, the command and work FIFOs, and the baud/work-time
// registers. All access is little-endian 32-bit words.
package mmio

// Size is the length, in bytes, of the IP core's register window.
const Size = 4096

// Register byte offsets within the mapped window.
const (
	offCtrl       = 0x00
	offStat       = 0x04
	offCmdTxFifo  = 0x08
	offCmdRxFifo  = 0x0c
	offWorkTime   = 0x10
	offBaud       = 0x14
	offWorkTxFifo = 0x18
	offWorkRxFifo = 0x1c
)

// ctrl_reg bit layout.
const (
	ctrlEnableBit     = 0
	ctrlMidstateShift = 1
	ctrlMidstateMask  = 0x3 << ctrlMidstateShift
)

// stat_reg bit layout. Bits 6 and 11 are fixed-high "core ready" bits the
// FPGA always reports once the core has been enabled; they aren't derived
// from FIFO occupancy and have no programmatic meaning beyond "powered and
// clocked", so they aren't exposed as individual Status fields.
const (
	statCmdRxEmptyBit  = 0
	statWorkTxFullBit  = 1
	statCmdTxEmptyBit  = 2
	statCmdTxFullBit   = 3
	statWorkRxEmptyBit = 4
	statCoreReadyBits  = 1<<6 | 1<<11
)

// fixedBaudDivisor is the only value ever written to baud_reg. SetBaud
// accepts a rate parameter for interface stability but does not yet use
// it; see the package-level doc on Registers.SetBaud.
const fixedBaudDivisor = 0x1b

// No work_time default is enforced here; callers choose the value (the
// hashboard package's bring-up sequence uses FixedWorkTimeTicks, 50000).

// Status is the decoded content of stat_reg.
type Status struct {
	WorkTxFull  bool
	WorkRxEmpty bool
	CmdTxFull   bool
	CmdTxEmpty  bool
	CmdRxEmpty  bool
}

// Registers is the typed facade over the mining IP core's MMIO register
// block. Implementations must treat every access as volatile: no caching
// of register content across calls.
//
// A Registers value is not safe for concurrent use by multiple goroutines;
// the hash board that owns it serializes access (see package hashboard).
type Registers interface {
	// Enable sets or clears ctrl_reg's enable bit via read-modify-write,
	// preserving the midstate-count field.
	Enable(on bool)
	// SetMidstateCount writes only the midstate-count sub-field of
	// ctrl_reg, preserving the enable bit.
	SetMidstateCount(bits uint8)
	// SetBaud always programs the fixed 115200-baud divisor (0x1b). rate
	// is accepted but not yet implemented; see spec Open Question 1.
	SetBaud(rate uint32)
	SetWorkTime(ticks uint32)

	Status() Status
	CtrlRaw() uint32
	StatRaw() uint32
	BaudRaw() uint32
	WorkTimeRaw() uint32

	WriteCmdTxFifo(v uint32)
	ReadCmdRxFifo() uint32
	WriteWorkTxFifo(v uint32)
	ReadWorkRxFifo() uint32

	// Close unmaps the register window. Safe to call once; subsequent
	// calls are no-ops.
	Close() error
}

func composeCtrl(enable bool, midstateBits uint8) uint32 {
	var v uint32
	if enable {
		v |= 1 << ctrlEnableBit
	}
	v |= (uint32(midstateBits) << ctrlMidstateShift) & ctrlMidstateMask
	return v
}

func composeStat(s Status, coreReady bool) uint32 {
	var v uint32
	if s.CmdRxEmpty {
		v |= 1 << statCmdRxEmptyBit
	}
	if s.WorkTxFull {
		v |= 1 << statWorkTxFullBit
	}
	if s.CmdTxEmpty {
		v |= 1 << statCmdTxEmptyBit
	}
	if s.CmdTxFull {
		v |= 1 << statCmdTxFullBit
	}
	if s.WorkRxEmpty {
		v |= 1 << statWorkRxEmptyBit
	}
	if coreReady {
		v |= statCoreReadyBits
	}
	return v
}

func decodeStat(v uint32) Status {
	return Status{
		WorkTxFull:  v&(1<<statWorkTxFullBit) != 0,
		WorkRxEmpty: v&(1<<statWorkRxEmptyBit) != 0,
		CmdTxFull:   v&(1<<statCmdTxFullBit) != 0,
		CmdTxEmpty:  v&(1<<statCmdTxEmptyBit) != 0,
		CmdRxEmpty:  v&(1<<statCmdRxEmptyBit) != 0,
	}
}

func decodeMidstateBits(ctrl uint32) uint8 {
	return uint8((ctrl & ctrlMidstateMask) >> ctrlMidstateShift)
}
