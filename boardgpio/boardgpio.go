// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package boardgpio resolves the two GPIO lines a hash board needs: a
// plug-detect input that reports whether the board is physically present,
// and a reset output that holds the board's IP core and chip chain in
// reset.
//
// Pins are resolved by name through periph.io/x/conn/v3/gpio/gpioreg, the
// same indirection sysfs and gpioioctl use to register their pins; this
// package never talks to a specific GPIO controller directly, so it works
// unmodified whichever host driver (sysfs, gpio character device, memory
// mapped SoC GPIO) is registered for the running board.
package boardgpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// NamingScheme produces the pin names used to look up a board's plug and
// reset lines. The default scheme matches a header wired as
// "HB<index>_PLUG" / "HB<index>_RST"; a different scheme can be supplied to
// Manager for boards wired differently.
type NamingScheme func(boardIdx int) (plugName, rstName string)

// DefaultNamingScheme is used unless a Manager is constructed with an
// explicit one.
func DefaultNamingScheme(boardIdx int) (plugName, rstName string) {
	return fmt.Sprintf("HB%d_PLUG", boardIdx), fmt.Sprintf("HB%d_RST", boardIdx)
}

// Manager resolves plug/reset pin pairs for hash boards by index.
type Manager struct {
	naming NamingScheme
}

// NewManager returns a Manager using DefaultNamingScheme.
func NewManager() *Manager {
	return &Manager{naming: DefaultNamingScheme}
}

// NewManagerWithNaming returns a Manager using a custom NamingScheme.
func NewManagerWithNaming(naming NamingScheme) *Manager {
	return &Manager{naming: naming}
}

// Pins is the pair of GPIO lines owned by one hash board.
type Pins struct {
	Plug gpio.PinIn
	Rst  gpio.PinOut
}

// Resolve looks up the plug-detect and reset pins for boardIdx.
func (m *Manager) Resolve(boardIdx int) (Pins, error) {
	plugName, rstName := m.naming(boardIdx)

	plug := gpioreg.ByName(plugName)
	if plug == nil {
		return Pins{}, fmt.Errorf("boardgpio: board %d: plug pin %q not found", boardIdx, plugName)
	}
	rst := gpioreg.ByName(rstName)
	if rst == nil {
		return Pins{}, fmt.Errorf("boardgpio: board %d: reset pin %q not found", boardIdx, rstName)
	}
	if err := plug.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return Pins{}, fmt.Errorf("boardgpio: board %d: configure plug pin: %w", boardIdx, err)
	}
	return Pins{Plug: plug, Rst: rst}, nil
}

// Present reports whether the plug-detect pin reads high.
func (p Pins) Present() bool {
	return p.Plug.Read() == gpio.High
}

// EnterReset pulls the reset line low.
func (p Pins) EnterReset() error {
	return p.Rst.Out(gpio.Low)
}

// ExitReset pulls the reset line high.
func (p Pins) ExitReset() error {
	return p.Rst.Out(gpio.High)
}

// Halt releases both pins.
func (p Pins) Halt() error {
	if err := p.Plug.Halt(); err != nil {
		return err
	}
	return p.Rst.Halt()
}
