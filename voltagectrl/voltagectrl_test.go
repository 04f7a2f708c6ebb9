// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package voltagectrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycle(t *testing.T) {
	bus := NewFakeBus()
	c, err := New(bus, 0x20)
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	require.NoError(t, c.JumpFromLoaderToApp())

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, byte(ExpectedVersion), v)

	require.NoError(t, c.SetVoltage(6))
	got, err := c.GetVoltage()
	require.NoError(t, err)
	assert.Equal(t, byte(6), got)

	require.NoError(t, c.EnableVoltage())
	require.NoError(t, c.SendHeartbeat())
	assert.Equal(t, 1, bus.HeartbeatCount)

	require.NoError(t, c.DisableVoltage())

	assert.Equal(t, BusSpeed, bus.Speed)
	assert.Equal(t, []byte{cmdReset, cmdJumpToApp, cmdGetVersion, cmdSetVoltage, cmdGetVoltage, cmdEnableVoltage, cmdHeartbeat, cmdDisableVoltage}, bus.Commands)
}

func TestClientPropagatesBusErrors(t *testing.T) {
	bus := NewFakeBus()
	bus.FailTx = assertErr{}
	c, err := New(bus, 0x20)
	require.NoError(t, err)

	err = c.Reset()
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "bus failure" }
