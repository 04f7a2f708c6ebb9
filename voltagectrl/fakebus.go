// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package voltagectrl

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// FakeBus is an in-memory i2c.Bus used by tests for both this package and
// package hashboard. It answers GetVersion/GetVoltage with configurable
// values and records every command it receives.
type FakeBus struct {
	mu sync.Mutex

	Version      byte
	VoltageLevel byte
	Speed        physic.Frequency
	Commands     []byte
	HeartbeatCount int

	// FailTx, if set, is returned by Tx instead of performing the
	// transaction.
	FailTx error
}

// NewFakeBus returns a FakeBus reporting ExpectedVersion.
func NewFakeBus() *FakeBus {
	return &FakeBus{Version: ExpectedVersion}
}

// String implements conn.Resource / i2c.Bus.
func (f *FakeBus) String() string { return "voltagectrl.FakeBus" }

// Halt implements conn.Resource / i2c.Bus.
func (f *FakeBus) Halt() error { return nil }

// SetSpeed implements i2c.Bus.
func (f *FakeBus) SetSpeed(freq physic.Frequency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Speed = freq
	return nil
}

// Tx implements i2c.Bus.
func (f *FakeBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailTx != nil {
		return f.FailTx
	}
	if len(w) == 0 {
		return fmt.Errorf("voltagectrl: FakeBus.Tx: empty command")
	}
	cmd := w[0]
	f.Commands = append(f.Commands, cmd)
	switch cmd {
	case cmdGetVersion:
		if len(r) > 0 {
			r[0] = f.Version
		}
	case cmdGetVoltage:
		if len(r) > 0 {
			r[0] = f.VoltageLevel
		}
	case cmdSetVoltage:
		if len(w) > 1 {
			f.VoltageLevel = w[1]
		}
	case cmdHeartbeat:
		f.HeartbeatCount++
	}
	return nil
}
