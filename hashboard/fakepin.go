// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// fakePin is a settable, in-memory gpio.PinIO used by tests in this
// package and exercised indirectly through boardgpio.Pins.
type fakePin struct {
	mu    sync.Mutex
	name  string
	level gpio.Level
}

func newFakePin(name string, level gpio.Level) *fakePin {
	return &fakePin{name: name, level: level}
}

func (p *fakePin) String() string   { return p.name }
func (p *fakePin) Name() string     { return p.name }
func (p *fakePin) Number() int      { return -1 }
func (p *fakePin) Function() string { return "" }
func (p *fakePin) Halt() error      { return nil }

func (p *fakePin) In(gpio.Pull, gpio.Edge) error { return nil }

func (p *fakePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *fakePin) WaitForEdge(time.Duration) bool { return false }
func (p *fakePin) Pull() gpio.Pull                { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull         { return gpio.PullNoChange }

func (p *fakePin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = l
	return nil
}

func (p *fakePin) PWM(gpio.Duty, physic.Frequency) error { return nil }

var _ gpio.PinIO = (*fakePin)(nil)
