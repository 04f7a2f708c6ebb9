// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mmio

import "sync"

// Fake is an in-memory Registers implementation used by tests. It models
// ctrl_reg/stat_reg and the four FIFOs in software so that package
// hashboard's command channel, chip enumerator, and work pipeline can be
// exercised without root privileges or real hardware.
//
// TX FIFOs are modeled as draining instantly: on real hardware the IP
// core consumes cmd_tx_fifo/work_tx_fifo continuously, so software almost
// never observes them full. Fake mirrors that by recording every write to
// a separate, unbounded log (inspected via TakeCmdTx/TakeWorkTx) instead
// of a depth-limited queue, so the *_tx_full spin-waits in package
// hashboard never block a test. RX FIFOs behave as first-in, first-out
// queues that report empty once drained, since that is exactly what the
// timeout/backoff contract exercises; they have no depth limit.
//
// Fake is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	ctrlEnable bool
	midstate   uint8
	baud       uint32
	workTime   uint32
	cmdTxLog   []uint32
	cmdRxFifo  []uint32
	workTxLog  []uint32
	workRxFifo []uint32
	closed     bool
}

// NewFake returns a ready-to-use Fake with all FIFOs empty and the core
// disabled.
func NewFake() *Fake {
	return &Fake{}
}

// Enable implements Registers.
func (f *Fake) Enable(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrlEnable = on
}

// SetMidstateCount implements Registers.
func (f *Fake) SetMidstateCount(bits uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.midstate = bits & 0x3
}

// SetBaud implements Registers; rate is accepted but not used, matching Map.
func (f *Fake) SetBaud(rate uint32) {
	_ = rate
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baud = fixedBaudDivisor
}

// SetWorkTime implements Registers.
func (f *Fake) SetWorkTime(ticks uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workTime = ticks
}

// Status implements Registers.
func (f *Fake) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

func (f *Fake) statusLocked() Status {
	return Status{
		WorkTxFull:  false,
		WorkRxEmpty: len(f.workRxFifo) == 0,
		CmdTxFull:   false,
		CmdTxEmpty:  true,
		CmdRxEmpty:  len(f.cmdRxFifo) == 0,
	}
}

// CtrlRaw implements Registers.
func (f *Fake) CtrlRaw() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return composeCtrl(f.ctrlEnable, f.midstate)
}

// StatRaw implements Registers.
func (f *Fake) StatRaw() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return composeStat(f.statusLocked(), f.ctrlEnable)
}

// BaudRaw implements Registers.
func (f *Fake) BaudRaw() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baud
}

// WorkTimeRaw implements Registers.
func (f *Fake) WorkTimeRaw() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workTime
}

// WriteCmdTxFifo implements Registers.
func (f *Fake) WriteCmdTxFifo(v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmdTxLog = append(f.cmdTxLog, v)
}

// ReadCmdRxFifo implements Registers. Returns 0 if empty.
func (f *Fake) ReadCmdRxFifo() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var v uint32
	v, f.cmdRxFifo = pop(f.cmdRxFifo)
	return v
}

// WriteWorkTxFifo implements Registers.
func (f *Fake) WriteWorkTxFifo(v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workTxLog = append(f.workTxLog, v)
}

// ReadWorkRxFifo implements Registers. Returns 0 if empty.
func (f *Fake) ReadWorkRxFifo() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var v uint32
	v, f.workRxFifo = pop(f.workRxFifo)
	return v
}

// Close implements Registers.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// PushCmdResponse queues raw words a simulated chip would place into
// cmd_rx_fifo, for use by tests driving the chip enumerator/command
// channel.
func (f *Fake) PushCmdResponse(words ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmdRxFifo = append(f.cmdRxFifo, words...)
}

// PushWorkResult queues raw words a simulated chip would place into
// work_rx_fifo.
func (f *Fake) PushWorkResult(words ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workRxFifo = append(f.workRxFifo, words...)
}

// TakeCmdTx drains and returns everything written to cmd_tx_fifo so far.
func (f *Fake) TakeCmdTx() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.cmdTxLog
	f.cmdTxLog = nil
	return out
}

// TakeWorkTx drains and returns everything written to work_tx_fifo so far.
func (f *Fake) TakeWorkTx() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.workTxLog
	f.workTxLog = nil
	return out
}

func pop(fifo []uint32) (uint32, []uint32) {
	if len(fifo) == 0 {
		return 0, fifo
	}
	return fifo[0], fifo[1:]
}

var _ Registers = (*Fake)(nil)
