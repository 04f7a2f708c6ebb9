// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"fmt"
	"time"

	"hashboard/bm1387"
)

// inactivateSpacing is the gap between the three InactivateFromChain
// broadcasts.
const inactivateSpacing = 100 * time.Millisecond

// enumerateChips runs the chip-chain discovery state machine: broadcast
// GetStatus(GET_ADDRESS_REG), collect responses until one is absent,
// bounds-check the count, force every chip back to the pre-address state,
// then hand out sequential addresses.
func (h *HashBoard) enumerateChips() error {
	if err := h.tickHeartbeat(); err != nil {
		return err
	}

	cmd := bm1387.GetStatusCmd{Addr: 0, Broadcast: true, Reg: bm1387.GetAddressReg}
	if err := h.sendCtlCmd(cmd.Pack(), false); err != nil {
		return err
	}

	chipCount := 0
	for {
		resp, err := h.recvGetAddressResp()
		if err != nil {
			return err
		}
		if resp == nil {
			break
		}
		if resp.ChipRev != bm1387.RevBM1387 {
			return &ChipRevMismatchError{Expected: byte(bm1387.RevBM1387), Got: byte(resp.ChipRev), Index: chipCount}
		}
		chipCount++
	}

	if err := h.tickHeartbeat(); err != nil {
		return err
	}

	// Bounds-check order matches the implementation this was ported from:
	// the runaway-chain check runs before the no-chips check.
	if chipCount >= MaxChipsOnChain {
		return fmt.Errorf("%w: chain reported %d chips", ErrTooManyChips, chipCount)
	}
	if chipCount == 0 {
		return ErrNoChips
	}

	inactivate := bm1387.InactivateFromChainCmd{}
	for i := 0; i < 3; i++ {
		if err := h.sendCtlCmd(inactivate.Pack(), false); err != nil {
			return err
		}
		if i < 2 {
			time.Sleep(inactivateSpacing)
		}
	}

	if err := h.tickHeartbeat(); err != nil {
		return err
	}

	for k := 0; k < chipCount; k++ {
		addr := bm1387.SetChipAddressCmd{Addr: byte(4 * k)}
		if err := h.sendCtlCmd(addr.Pack(), false); err != nil {
			return err
		}
	}

	if err := h.tickHeartbeat(); err != nil {
		return err
	}

	h.chipCount = chipCount
	h.log.Info("chips discovered", "board", h.boardIdx, "chip_count", chipCount)
	return nil
}
