// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"fmt"
	"time"

	"hashboard/bm1387"
	"hashboard/voltagectrl"
)

// Init runs the bring-up sequence: IP core reset, voltage-controller
// handshake, board reset pulse, chip enumeration, PLL programming, and
// hash-chain configuration. Steps run in this exact order; any failure
// short-circuits and leaves the board in an indeterminate state — callers
// must Close and discard it rather than retry Init.
func (h *HashBoard) Init() error {
	h.log.Info("bring-up starting", "board", h.boardIdx)
	if err := h.ipCoreInit(); err != nil {
		return err
	}
	if err := h.bringUpVoltage(); err != nil {
		return err
	}
	if err := h.resetPulse(); err != nil {
		return err
	}
	if err := h.enumerateChips(); err != nil {
		return err
	}
	if err := h.setPLL(); err != nil {
		return err
	}
	if err := h.configureHashChain(); err != nil {
		return err
	}
	h.log.Info("bring-up complete", "board", h.boardIdx, "chip_count", h.chipCount)
	return nil
}

func (h *HashBoard) ipCoreInit() error {
	h.regs.Enable(false)
	h.regs.Enable(true)
	h.SetBaud(FixedBaudRate)
	h.regs.SetWorkTime(FixedWorkTimeTicks)
	h.regs.SetMidstateCount(uint8(h.midstateCountBits))
	return nil
}

// SetBaud currently writes the fixed divisor the register facade always
// uses; rate is accepted but not yet honored. See spec Open Question 1 —
// unclear whether this was meant as a stub for a future variable-baud
// register write, preserved rather than removed.
func (h *HashBoard) SetBaud(rate uint32) {
	h.regs.SetBaud(rate)
}

func (h *HashBoard) bringUpVoltage() error {
	if err := h.voltage.Reset(); err != nil {
		return fmt.Errorf("%w: reset: %v", ErrVoltageCtrlIO, err)
	}
	if err := h.voltage.JumpFromLoaderToApp(); err != nil {
		return fmt.Errorf("%w: jump to app: %v", ErrVoltageCtrlIO, err)
	}
	version, err := h.voltage.GetVersion()
	if err != nil {
		return fmt.Errorf("%w: get version: %v", ErrVoltageCtrlIO, err)
	}
	if version != voltagectrl.ExpectedVersion {
		return fmt.Errorf("%w: got %#02x, expected %#02x", ErrVoltageCtrlVersion, version, byte(voltagectrl.ExpectedVersion))
	}
	if err := h.voltage.SetVoltage(BringUpVoltageStep); err != nil {
		return fmt.Errorf("%w: set voltage: %v", ErrVoltageCtrlIO, err)
	}
	if err := h.voltage.EnableVoltage(); err != nil {
		return fmt.Errorf("%w: enable voltage: %v", ErrVoltageCtrlIO, err)
	}
	return nil
}

func (h *HashBoard) resetPulse() error {
	if err := h.pins.EnterReset(); err != nil {
		return fmt.Errorf("%w: enter reset: %v", ErrGpioFailure, err)
	}
	h.regs.Enable(false)

	if err := h.voltage.DisableVoltage(); err != nil {
		return fmt.Errorf("%w: disable voltage: %v", ErrVoltageCtrlIO, err)
	}
	time.Sleep(1000 * time.Millisecond)

	if err := h.voltage.EnableVoltage(); err != nil {
		return fmt.Errorf("%w: re-enable voltage: %v", ErrVoltageCtrlIO, err)
	}
	time.Sleep(2000 * time.Millisecond)

	if err := h.tickHeartbeat(); err != nil {
		return err
	}

	if err := h.pins.ExitReset(); err != nil {
		return fmt.Errorf("%w: exit reset: %v", ErrGpioFailure, err)
	}
	h.regs.Enable(true)
	time.Sleep(1000 * time.Millisecond)

	// A voltage read-back belongs here in principle, to confirm the rail
	// settled after the reset pulse. It stays unused: unclear whether it
	// was dropped for timing reasons or because the controller's reading
	// is unreliable this soon after exit_reset. Do not re-enable without
	// hardware verification.
	_ = h.voltage.GetVoltage

	return nil
}

func (h *HashBoard) setPLL() error {
	for k := 0; k < h.chipCount; k++ {
		cmd := bm1387.SetConfigCmd{
			Addr:      byte(4 * k),
			Broadcast: false,
			Reg:       bm1387.PLLParamReg,
			Value:     bm1387.PLLParamValue,
		}
		if err := h.sendCtlCmd(cmd.Pack(), false); err != nil {
			return err
		}
	}
	return h.tickHeartbeat()
}

func (h *HashBoard) configureHashChain() error {
	reg := bm1387.MiscCtrlReg{
		NotSetBaud: true,
		InvClock:   true,
		BaudDiv:    26,
		GateBlock:  true,
		Mmen:       true,
	}
	cmd := bm1387.SetConfigCmd{
		Addr:      0,
		Broadcast: true,
		Reg:       bm1387.MiscControlReg,
		Value:     reg.Pack(),
	}
	if err := h.sendCtlCmd(cmd.Pack(), true); err != nil {
		return err
	}
	return h.tickHeartbeat()
}
