// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bm1387 packs and unpacks the fixed-layout, CRC-trailed command
// and response frames the BM1387 SHA-256 engine understands: GetStatus,
// GetAddressReg, InactivateFromChain, SetChipAddress, SetConfig, and the
// misc-control register used during bring-up.
//
// Every packed command is a multiple of 4 bytes, matching the IP core's
// 32-bit-word command FIFO. Every response is read as two 32-bit FIFO
// words (8 raw bytes); the last two bytes (a pad byte and a checksum byte)
// are dropped before the remaining 6 bytes are decoded into a typed
// response.
package bm1387

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ChipRev identifies the chip silicon revision reported by GetAddressReg.
type ChipRev byte

// RevBM1387 is the only chip revision this driver supports.
const RevBM1387 ChipRev = 0x87

func (r ChipRev) String() string {
	if r == RevBM1387 {
		return "BM1387"
	}
	return fmt.Sprintf("unknown(%#02x)", byte(r))
}

// Register addresses used during bring-up.
const (
	GetAddressReg  byte = 0x00
	PLLParamReg    byte = 0x0c
	MiscControlReg byte = 0x1c
)

// PLLParamValue is the fixed PLL programming value written to
// PLLParamReg on every chip during bring-up (spec.md §4.G step 6).
const PLLParamValue uint32 = 0x21026800

// ErrFrameDecode is the error kind for a response frame that cannot be
// decoded. No decoder in this package returns it: UnpackGetAddressRegResp
// takes a fixed six-byte array and always succeeds.
var ErrFrameDecode = errors.New("bm1387: frame decode error")

// ErrChecksum is returned by VerifyChecksum when a response's trailing
// checksum byte doesn't match its content. Checksum verification is
// optional and debug-only per spec.md §4.D; callers choose whether to
// call it.
var ErrChecksum = errors.New("bm1387: checksum mismatch")

const (
	opGetStatus           byte = 0x01
	opSetChipAddress      byte = 0x02
	opInactivateFromChain byte = 0x03
	opSetConfig           byte = 0x04

	flagBroadcast byte = 0x80
)

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// buildFrame appends a CRC8 checksum to payload and pads the result with
// zero bytes to the next multiple of 4, satisfying the command FIFO's
// word-aligned write contract.
func buildFrame(payload []byte) []byte {
	buf := make([]byte, len(payload), len(payload)+4)
	copy(buf, payload)
	buf = append(buf, crc8(buf))
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// GetStatusCmd reads a chip register (broadcast or addressed).
type GetStatusCmd struct {
	Addr      byte
	Broadcast bool
	Reg       byte
}

// Pack encodes the command into command-FIFO-ready bytes.
func (c GetStatusCmd) Pack() []byte {
	op := opGetStatus
	if c.Broadcast {
		op |= flagBroadcast
	}
	return buildFrame([]byte{op, c.Reg, c.Addr})
}

// InactivateFromChainCmd resets the chain's address-propagation state; it
// is always broadcast.
type InactivateFromChainCmd struct{}

// Pack encodes the command.
func (InactivateFromChainCmd) Pack() []byte {
	return buildFrame([]byte{opInactivateFromChain | flagBroadcast, 0, 0})
}

// SetChipAddressCmd assigns an address to the next chip in the chain.
type SetChipAddressCmd struct {
	Addr byte // must be a multiple of 4
}

// Pack encodes the command.
func (c SetChipAddressCmd) Pack() []byte {
	return buildFrame([]byte{opSetChipAddress, 0, c.Addr})
}

// SetConfigCmd writes a chip register (broadcast or addressed).
type SetConfigCmd struct {
	Addr      byte
	Broadcast bool
	Reg       byte
	Value     uint32
}

// Pack encodes the command.
func (c SetConfigCmd) Pack() []byte {
	op := opSetConfig
	if c.Broadcast {
		op |= flagBroadcast
	}
	payload := []byte{op, c.Reg, c.Addr, 0, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(payload[4:8], c.Value)
	return buildFrame(payload)
}

// MiscCtrlReg is the bit-packed misc-control register value broadcast
// during configure_hash_chain (spec.md §4.D, §4.G step 7).
type MiscCtrlReg struct {
	NotSetBaud bool
	InvClock   bool
	BaudDiv    uint8 // 6 bits
	GateBlock  bool
	Mmen       bool
}

// Pack returns the 32-bit register value for use as a SetConfigCmd.Value.
func (m MiscCtrlReg) Pack() uint32 {
	var v uint32
	if m.NotSetBaud {
		v |= 1 << 0
	}
	if m.InvClock {
		v |= 1 << 1
	}
	v |= uint32(m.BaudDiv&0x3f) << 2
	if m.GateBlock {
		v |= 1 << 8
	}
	if m.Mmen {
		v |= 1 << 9
	}
	return v
}
