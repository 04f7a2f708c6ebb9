// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Map is a Registers backed by a real /dev/mem mapping of the IP core's
// physical register window.
type Map struct {
	f   *os.File
	mem []byte
}

// Open maps Size bytes of physical memory at baseAddr with
// PROT_READ|PROT_WRITE, MAP_SHARED. The mapping lives for the lifetime of
// the returned Map; Close unmaps it.
func Open(baseAddr int64) (*Map, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open /dev/mem: %w", err)
	}
	mem, err := unix.Mmap(int(f.Fd()), baseAddr, Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmio: mmap at %#x: %w", baseAddr, err)
	}
	return &Map{f: f, mem: mem}, nil
}

func (m *Map) regPtr(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.mem[off]))
}

func (m *Map) load(off int) uint32     { return atomic.LoadUint32(m.regPtr(off)) }
func (m *Map) store(off int, v uint32) { atomic.StoreUint32(m.regPtr(off), v) }

// Enable implements Registers.
func (m *Map) Enable(on bool) {
	v := m.load(offCtrl)
	if on {
		v |= 1 << ctrlEnableBit
	} else {
		v &^= 1 << ctrlEnableBit
	}
	m.store(offCtrl, v)
}

// SetMidstateCount implements Registers.
func (m *Map) SetMidstateCount(bits uint8) {
	v := m.load(offCtrl)
	v &^= ctrlMidstateMask
	v |= (uint32(bits) << ctrlMidstateShift) & ctrlMidstateMask
	m.store(offCtrl, v)
}

// SetBaud implements Registers. rate is accepted but not yet implemented.
func (m *Map) SetBaud(rate uint32) {
	_ = rate
	m.store(offBaud, fixedBaudDivisor)
}

// SetWorkTime implements Registers.
func (m *Map) SetWorkTime(ticks uint32) { m.store(offWorkTime, ticks) }

// Status implements Registers.
func (m *Map) Status() Status { return decodeStat(m.load(offStat)) }

// CtrlRaw implements Registers.
func (m *Map) CtrlRaw() uint32 { return m.load(offCtrl) }

// StatRaw implements Registers.
func (m *Map) StatRaw() uint32 { return m.load(offStat) }

// BaudRaw implements Registers.
func (m *Map) BaudRaw() uint32 { return m.load(offBaud) }

// WorkTimeRaw implements Registers.
func (m *Map) WorkTimeRaw() uint32 { return m.load(offWorkTime) }

// WriteCmdTxFifo implements Registers.
func (m *Map) WriteCmdTxFifo(v uint32) { m.store(offCmdTxFifo, v) }

// ReadCmdRxFifo implements Registers.
func (m *Map) ReadCmdRxFifo() uint32 { return m.load(offCmdRxFifo) }

// WriteWorkTxFifo implements Registers.
func (m *Map) WriteWorkTxFifo(v uint32) { m.store(offWorkTxFifo, v) }

// ReadWorkRxFifo implements Registers.
func (m *Map) ReadWorkRxFifo() uint32 { return m.load(offWorkRxFifo) }

// Close unmaps the register window. Safe to call more than once.
func (m *Map) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ Registers = (*Map)(nil)
