// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package boardgpio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// fakePin is a minimal settable gpio.PinIO used only by this package's
// tests, registered with gpioreg so Manager.Resolve can find it by name.
type fakePin struct {
	name  string
	level gpio.Level
}

func (p *fakePin) String() string                        { return p.name }
func (p *fakePin) Name() string                           { return p.name }
func (p *fakePin) Number() int                            { return -1 }
func (p *fakePin) Function() string                       { return "" }
func (p *fakePin) Halt() error                            { return nil }
func (p *fakePin) In(gpio.Pull, gpio.Edge) error           { return nil }
func (p *fakePin) Read() gpio.Level                        { return p.level }
func (p *fakePin) WaitForEdge(time.Duration) bool          { return false }
func (p *fakePin) Pull() gpio.Pull                         { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull                  { return gpio.PullNoChange }
func (p *fakePin) Out(l gpio.Level) error                  { p.level = l; return nil }
func (p *fakePin) PWM(gpio.Duty, physic.Frequency) error   { return nil }

var _ gpio.PinIO = (*fakePin)(nil)

// registerPin registers a fake pin under a name unique to this test binary
// run. gpioreg has no Unregister in this corpus's version, so every test
// that registers a pin must use a name no other test reuses.
func registerPin(t *testing.T, name string, level gpio.Level) *fakePin {
	t.Helper()
	p := &fakePin{name: name, level: level}
	require.NoError(t, gpioreg.Register(p))
	return p
}

func TestResolveFindsPinsByName(t *testing.T) {
	registerPin(t, "HB3_PLUG", gpio.High)
	registerPin(t, "HB3_RST", gpio.Low)

	m := NewManager()
	pins, err := m.Resolve(3)
	require.NoError(t, err)
	assert.True(t, pins.Present())
}

func TestResolveFailsWhenPinMissing(t *testing.T) {
	m := NewManager()
	_, err := m.Resolve(9999)
	assert.Error(t, err)
}

func TestResolveUsesCustomNaming(t *testing.T) {
	registerPin(t, "custom-plug", gpio.High)
	registerPin(t, "custom-rst", gpio.Low)

	m := NewManagerWithNaming(func(int) (string, string) {
		return "custom-plug", "custom-rst"
	})
	pins, err := m.Resolve(0)
	require.NoError(t, err)
	assert.True(t, pins.Present())
}

func TestPinsPresent(t *testing.T) {
	high := &fakePin{name: "p", level: gpio.High}
	low := &fakePin{name: "p", level: gpio.Low}

	assert.True(t, Pins{Plug: high}.Present())
	assert.False(t, Pins{Plug: low}.Present())
}

func TestPinsResetControl(t *testing.T) {
	rst := &fakePin{name: "rst", level: gpio.Low}
	pins := Pins{Rst: rst}

	require.NoError(t, pins.EnterReset())
	assert.Equal(t, gpio.Low, rst.level)

	require.NoError(t, pins.ExitReset())
	assert.Equal(t, gpio.High, rst.level)
}

func TestPinsHalt(t *testing.T) {
	pins := Pins{
		Plug: &fakePin{name: "plug"},
		Rst:  &fakePin{name: "rst"},
	}
	assert.NoError(t, pins.Halt())
}

func TestDefaultNamingScheme(t *testing.T) {
	plug, rst := DefaultNamingScheme(5)
	assert.Equal(t, "HB5_PLUG", plug)
	assert.Equal(t, "HB5_RST", rst)
}
