// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package voltagectrl talks to the board-mounted microcontroller that
// manages hash board power: reset, loader-to-application handoff, firmware
// version query, voltage set point, power enable/disable, and the
// keep-alive heartbeat that must be sent at least once a second or the
// controller cuts power to the board.
//
// The bus is anything implementing periph.io/x/conn/v3/i2c.Bus, the same
// interface an FTDI MPSSE bridge or a native Linux i2c-dev bus satisfies;
// this package depends only on that interface, never on a specific
// transport.
package voltagectrl

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ExpectedVersion is the firmware version this driver was written against.
// Init fails if the controller reports anything else.
const ExpectedVersion = 0x03

// BusSpeed is the I2C clock programmed onto the bus before talking to the
// controller.
const BusSpeed = 400 * physic.KiloHertz

// Command opcodes understood by the controller firmware.
const (
	cmdReset          byte = 0x01
	cmdJumpToApp      byte = 0x02
	cmdGetVersion     byte = 0x03
	cmdSetVoltage     byte = 0x04
	cmdEnableVoltage  byte = 0x05
	cmdDisableVoltage byte = 0x06
	cmdHeartbeat      byte = 0x07
	cmdGetVoltage     byte = 0x08
)

// VersionError describes an unexpected firmware version. Nothing in this
// package returns it; package hashboard reports a version mismatch during
// Init as hashboard.ErrVoltageCtrlVersion.
type VersionError struct {
	Expected, Got byte
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("voltagectrl: unexpected firmware version: got %#02x, expected %#02x", e.Got, e.Expected)
}

// Client is the voltage-controller command client for one hash board. The
// I2C address distinguishes boards sharing a bus, matching how the
// original hardware multiplexes one controller per board slot.
type Client struct {
	bus  i2c.Bus
	addr uint16
}

// New returns a Client addressing the controller at addr on bus. Its only
// bus operation is setting the bus clock to BusSpeed; it sends nothing to
// the controller, so call Reset/JumpFromLoaderToApp/GetVersion as part of
// the init sequence.
func New(bus i2c.Bus, addr uint16) (*Client, error) {
	if err := bus.SetSpeed(BusSpeed); err != nil {
		return nil, fmt.Errorf("voltagectrl: set bus speed: %w", err)
	}
	return &Client{bus: bus, addr: addr}, nil
}

func (c *Client) txNoReply(cmd byte, payload ...byte) error {
	w := append([]byte{cmd}, payload...)
	return c.bus.Tx(c.addr, w, nil)
}

func (c *Client) txReply(cmd byte, replyLen int) ([]byte, error) {
	r := make([]byte, replyLen)
	if err := c.bus.Tx(c.addr, []byte{cmd}, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset power-cycles the controller itself (not the hash board power
// rail).
func (c *Client) Reset() error {
	return c.txNoReply(cmdReset)
}

// JumpFromLoaderToApp instructs the controller's bootloader to hand off to
// the application firmware.
func (c *Client) JumpFromLoaderToApp() error {
	return c.txNoReply(cmdJumpToApp)
}

// GetVersion returns the controller's firmware version byte.
func (c *Client) GetVersion() (byte, error) {
	r, err := c.txReply(cmdGetVersion, 1)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// SetVoltage programs the output voltage set point. The unit matches the
// controller firmware's native step (spec.md bring-up value is 6).
func (c *Client) SetVoltage(step byte) error {
	return c.txNoReply(cmdSetVoltage, step)
}

// GetVoltage reads back the currently programmed voltage step. Not called
// during Init; see spec Open Question 2 — the read-back immediately after
// exit_reset is intentionally unused pending hardware verification.
func (c *Client) GetVoltage() (byte, error) {
	r, err := c.txReply(cmdGetVoltage, 1)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// EnableVoltage turns the board's power rail on.
func (c *Client) EnableVoltage() error {
	return c.txNoReply(cmdEnableVoltage)
}

// DisableVoltage turns the board's power rail off.
func (c *Client) DisableVoltage() error {
	return c.txNoReply(cmdDisableVoltage)
}

// SendHeartbeat tells the controller the host is alive. Must be called at
// least once a second while the board is powered or the controller cuts
// power; see package hashboard's heartbeat ticker, which owns the calling
// cadence.
func (c *Client) SendHeartbeat() error {
	return c.txNoReply(cmdHeartbeat)
}
