// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hashboard drives a single hash board carrying a chain of BM1387
// SHA-256 engines: it maps the FPGA mining IP core, enumerates and
// addresses the chip chain, sequences bring-up against the board's
// voltage controller, and carries mining work down to the chips and
// nonces back up.
//
// The package owns three hardware resources per board: the register
// mapping (package mmio), the plug-detect/reset GPIO pair (package
// boardgpio), and the voltage-controller client (package voltagectrl). A
// HashBoard is not safe for concurrent use; callers serialize access.
package hashboard

import (
	"fmt"
	"log/slog"
	"time"

	"hashboard/boardgpio"
	"hashboard/mmio"
	"hashboard/voltagectrl"
)

// MaxChipsOnChain bounds chip_count; a chain reporting this many or more
// chips is treated as a hardware fault, not a very long chain.
const MaxChipsOnChain = 64

// FixedBaudRate is the value set_baud is always called with during
// ip_core_init. The register write itself is a hard-coded divisor
// regardless of the rate passed in; see SetBaud's doc comment.
const FixedBaudRate = 115200

// FixedWorkTimeTicks is the work_time register value used at bring-up.
const FixedWorkTimeTicks = 50000

// BringUpVoltageStep is the voltage set point (controller-native units)
// programmed during Init.
const BringUpVoltageStep = 6

// HashBoard owns one physical hash board: its register mapping, GPIO
// pins, and voltage-controller client.
type HashBoard struct {
	regs    mmio.Registers
	pins    boardgpio.Pins
	voltage *voltagectrl.Client
	log     *slog.Logger

	boardIdx int

	midstateCountBits int
	chipCount         int
	workID            uint16

	lastHeartbeatSent time.Time
	heartbeatInit     bool
}

// GpioResolver resolves the plug/reset pin pair for a board index; it is
// satisfied by *boardgpio.Manager.
type GpioResolver interface {
	Resolve(boardIdx int) (boardgpio.Pins, error)
}

// RegisterOpener opens the register mapping for a board index.
type RegisterOpener interface {
	Open(boardIdx int) (mmio.Registers, error)
}

// VoltageOpener opens an I2C-backed voltage-controller client for a board
// index.
type VoltageOpener interface {
	Open(boardIdx int) (*voltagectrl.Client, error)
}

// Option configures New beyond its required parameters.
type Option func(*HashBoard)

// WithLogger overrides the default logger (slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(h *HashBoard) { h.log = l }
}

// New constructs a HashBoard for boardIdx. It resolves GPIO pins via
// gpioMgr, opens the register mapping via regs, and opens the
// voltage-controller client via voltage. It fails with ErrNotPresent if
// the plug-detect pin reads low — the board is not physically installed.
//
// midstateCount must be 1, 2, or 4.
func New(gpioMgr GpioResolver, regs RegisterOpener, voltage VoltageOpener, boardIdx int, midstateCount int, opts ...Option) (*HashBoard, error) {
	bits, err := midstateCountBits(midstateCount)
	if err != nil {
		return nil, err
	}

	pins, err := gpioMgr.Resolve(boardIdx)
	if err != nil {
		return nil, fmt.Errorf("%w: board %d: %v", ErrGpioFailure, boardIdx, err)
	}
	if !pins.Present() {
		return nil, fmt.Errorf("%w: board %d", ErrNotPresent, boardIdx)
	}

	r, err := regs.Open(boardIdx)
	if err != nil {
		return nil, fmt.Errorf("%w: board %d: %v", ErrMapFailure, boardIdx, err)
	}

	v, err := voltage.Open(boardIdx)
	if err != nil {
		return nil, fmt.Errorf("%w: board %d: %v", ErrVoltageCtrlIO, boardIdx, err)
	}

	h := &HashBoard{
		regs:              r,
		pins:              pins,
		voltage:           v,
		log:               slog.Default(),
		boardIdx:          boardIdx,
		midstateCountBits: bits,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func midstateCountBits(n int) (int, error) {
	switch n {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 4:
		return 2, nil
	default:
		return 0, fmt.Errorf("hashboard: invalid midstate count %d, must be 1, 2 or 4", n)
	}
}

// GetChipCount returns the number of chips discovered by Init's
// enumeration step. It is zero until Init has completed successfully.
func (h *HashBoard) GetChipCount() int {
	return h.chipCount
}

// Close releases the register mapping and GPIO pins. Per the teardown
// policy the voltage controller is left enabled: every call path that
// exits this driver (error or deliberate shutdown) left the rail powered
// in the source this was ported from, and no caller has ever asked for
// the alternative.
func (h *HashBoard) Close() error {
	var firstErr error
	if err := h.regs.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: %v", ErrMapFailure, err)
	}
	if err := h.pins.Halt(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: %v", ErrGpioFailure, err)
	}
	return firstErr
}
