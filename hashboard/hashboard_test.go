// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/conn/v3/gpio"

	"hashboard/bm1387"
	"hashboard/boardgpio"
	"hashboard/mmio"
	"hashboard/voltagectrl"
)

type fakeGpioMgr struct {
	pins boardgpio.Pins
}

func (m fakeGpioMgr) Resolve(int) (boardgpio.Pins, error) {
	return m.pins, nil
}

type fakeRegsOpener struct {
	regs mmio.Registers
}

func (o fakeRegsOpener) Open(int) (mmio.Registers, error) {
	return o.regs, nil
}

type fakeVoltageOpener struct {
	bus  *voltagectrl.FakeBus
	addr uint16
}

func (o fakeVoltageOpener) Open(int) (*voltagectrl.Client, error) {
	return voltagectrl.New(o.bus, o.addr)
}

func addressRespWords(addr byte, rev bm1387.ChipRev, addrWidth byte) (uint32, uint32) {
	var raw bm1387.RawResponse
	raw[0] = 0x13
	raw[1] = addr
	raw[2] = byte(rev)
	raw[3] = addrWidth
	return binary.LittleEndian.Uint32(raw[0:4]), binary.LittleEndian.Uint32(raw[4:8])
}

func newTestBoard(t *testing.T, plugHigh bool, chips int) (*HashBoard, *mmio.Fake, *voltagectrl.FakeBus) {
	t.Helper()

	plugLevel := gpio.Low
	if plugHigh {
		plugLevel = gpio.High
	}
	pins := boardgpio.Pins{
		Plug: newFakePin("PLUG", plugLevel),
		Rst:  newFakePin("RST", gpio.Low),
	}

	fake := mmio.NewFake()
	bus := voltagectrl.NewFakeBus()

	for k := 0; k < chips; k++ {
		w0, w1 := addressRespWords(byte(4*k), bm1387.RevBM1387, 0)
		fake.PushCmdResponse(w0, w1)
	}

	h, err := New(fakeGpioMgr{pins: pins}, fakeRegsOpener{regs: fake}, fakeVoltageOpener{bus: bus, addr: 0x20}, 0, 1)
	require.NoError(t, err)
	return h, fake, bus
}

func TestNewFailsWhenNotPresent(t *testing.T) {
	pins := boardgpio.Pins{
		Plug: newFakePin("PLUG", gpio.Low),
		Rst:  newFakePin("RST", gpio.Low),
	}
	_, err := New(fakeGpioMgr{pins: pins}, fakeRegsOpener{regs: mmio.NewFake()}, fakeVoltageOpener{bus: voltagectrl.NewFakeBus(), addr: 0x20}, 0, 1)
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestInitFullSequence(t *testing.T) {
	h, fake, bus := newTestBoard(t, true, 3)

	require.NoError(t, h.Init())

	assert.Equal(t, 3, h.GetChipCount())
	assert.Equal(t, uint32(FixedWorkTimeTicks), fake.WorkTimeRaw())
	assert.Equal(t, uint32(0x1b), fake.BaudRaw())
	assert.Equal(t, uint32(0x855), fake.StatRaw())
	assert.Greater(t, bus.HeartbeatCount, 0)
}

func TestInitFailsOnChipRevMismatch(t *testing.T) {
	pins := boardgpio.Pins{
		Plug: newFakePin("PLUG", gpio.High),
		Rst:  newFakePin("RST", gpio.Low),
	}
	fake := mmio.NewFake()
	w0, w1 := addressRespWords(0, 0x42, 0)
	fake.PushCmdResponse(w0, w1)
	bus := voltagectrl.NewFakeBus()

	h, err := New(fakeGpioMgr{pins: pins}, fakeRegsOpener{regs: fake}, fakeVoltageOpener{bus: bus, addr: 0x20}, 0, 1)
	require.NoError(t, err)

	err = h.Init()
	require.Error(t, err)
	var mismatch *ChipRevMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestInitFailsWithNoChips(t *testing.T) {
	h, _, _ := newTestBoard(t, true, 0)
	err := h.Init()
	assert.ErrorIs(t, err, ErrNoChips)
}

func TestSendWorkRejectsWrongMidstateCount(t *testing.T) {
	h, _, _ := newTestBoard(t, true, 1)
	_, err := h.SendWork(MiningWork{Midstates: make([]Midstate, 2)})
	assert.ErrorIs(t, err, ErrBadWorkSize)
}

func TestSendWorkIDProgression(t *testing.T) {
	h, _, _ := newTestBoard(t, true, 1)

	var ids []uint32
	for i := 0; i < 5; i++ {
		id, err := h.SendWork(MiningWork{Midstates: make([]Midstate, 1)})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		assert.Equal(t, (ids[i-1]+1)&0xffff, ids[i])
	}
}

func TestResultIDDecodeBoundaryScenarios(t *testing.T) {
	const id = uint32(0x00123502)

	cases := []struct {
		mbits                         int
		wantWorkID, wantMidstate, sol uint32
	}{
		{0, 0x1235, 0, 2},
		{1, 0x091a, 1, 2},
		{2, 0x048d, 1, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantWorkID, WorkIDFromResultID(id, c.mbits))
		assert.Equal(t, int(c.wantMidstate), MidstateIdxFromResultID(id, c.mbits))
		assert.Equal(t, c.sol, SolutionIdxFromResultID(id))
	}
}

func TestResultIDRoundTripProperty(t *testing.T) {
	for _, mbits := range []int{0, 1, 2} {
		for workID := uint32(0); workID < 16; workID++ {
			for midstate := uint32(0); midstate < uint32(1<<uint(mbits)); midstate++ {
				for sol := uint32(0); sol < 256; sol += 37 {
					id := (workID << (8 + uint(mbits))) | (midstate << 8) | sol
					assert.Less(t, SolutionIdxFromResultID(id), uint32(256))
					assert.Less(t, MidstateIdxFromResultID(id, mbits), 1<<uint(mbits))
					assert.Equal(t, id, (WorkIDFromResultID(id, mbits)<<(8+uint(mbits)))|(uint32(MidstateIdxFromResultID(id, mbits))<<8)|SolutionIdxFromResultID(id))
				}
			}
		}
	}
}

func TestRecvWorkResultAbsentOnEmptyFifo(t *testing.T) {
	h, _, _ := newTestBoard(t, true, 1)
	result, err := h.RecvWorkResult()
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRecvWorkResultDecodesNonce(t *testing.T) {
	h, fake, _ := newTestBoard(t, true, 1)
	fake.PushWorkResult(0xdeadbeef, 0x00123502)

	result, err := h.RecvWorkResult()
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, uint32(0xdeadbeef), result.Nonce)
	assert.Equal(t, uint32(0x123502), result.ResultID)
	assert.Equal(t, uint32(0x1235), h.GetWorkIDFromResult(result))
}

func TestHeartbeatSentAfterIntervalElapses(t *testing.T) {
	h, _, bus := newTestBoard(t, true, 1)

	require.NoError(t, h.tickHeartbeat())
	assert.Equal(t, 0, bus.HeartbeatCount)

	h.lastHeartbeatSent = time.Now().Add(-2 * heartbeatInterval)
	require.NoError(t, h.tickHeartbeat())
	assert.Equal(t, 1, bus.HeartbeatCount)

	require.NoError(t, h.tickHeartbeat())
	assert.Equal(t, 1, bus.HeartbeatCount)
}

func TestCloseIsIdempotentWithFakeRegs(t *testing.T) {
	h, _, _ := newTestBoard(t, true, 1)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}
