// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"fmt"
	"time"
)

// Midstate is a 256-bit SHA-256 midstate, stored as eight 32-bit words in
// native (little-endian-word) order.
type Midstate [8]uint32

// MiningWork is one unit of work submitted to the chain.
type MiningWork struct {
	Nbits         uint32
	Ntime         uint32
	MerkleRootLSW uint32
	Midstates     []Midstate
}

// MiningWorkResult is a nonce recovered from the chain, along with the
// decoded slot it answers. Ntime rolling isn't supported by this
// hardware, so no ntime field is carried on results.
type MiningWorkResult struct {
	Nonce       uint32
	MidstateIdx int
	ResultID    uint32
}

// SendWork serializes work into the work-TX FIFO and returns the work_id
// it was tagged with. It rejects work whose midstate count doesn't match
// the board's configured midstate count before writing anything to the
// FIFO.
func (h *HashBoard) SendWork(work MiningWork) (uint32, error) {
	want := 1 << h.midstateCountBits
	if len(work.Midstates) != want {
		return 0, fmt.Errorf("%w: got %d midstates, want %d", ErrBadWorkSize, len(work.Midstates), want)
	}

	if err := h.tickHeartbeat(); err != nil {
		return 0, err
	}

	id := h.workID
	h.workID += uint16(want)

	h.writeWorkWord(uint32(id))
	h.writeWorkWord(work.Nbits)
	h.writeWorkWord(work.Ntime)
	h.writeWorkWord(work.MerkleRootLSW)

	for _, ms := range work.Midstates {
		for i := len(ms) - 1; i >= 0; i-- {
			h.writeWorkWord(ms[i])
		}
	}

	return uint32(id), nil
}

func (h *HashBoard) writeWorkWord(v uint32) {
	for h.regs.Status().WorkTxFull {
	}
	h.regs.WriteWorkTxFifo(v)
}

// RecvWorkResult reads one result off the work-RX FIFO. A timeout on the
// first word means no result is ready right now (nil, nil); a timeout on
// the second word is fatal, since it means a torn frame.
func (h *HashBoard) RecvWorkResult() (*MiningWorkResult, error) {
	if err := h.tickHeartbeat(); err != nil {
		return nil, err
	}

	word0, ok := h.readWorkRxWord()
	if !ok {
		return nil, nil
	}
	word1, ok := h.readWorkRxWord()
	if !ok {
		return nil, fmt.Errorf("%w: work_rx_fifo: second word of result frame", ErrTimeout)
	}

	resultID := word1 & 0x00ffffff
	return &MiningWorkResult{
		Nonce:       word0,
		MidstateIdx: MidstateIdxFromResultID(resultID, h.midstateCountBits),
		ResultID:    resultID,
	}, nil
}

func (h *HashBoard) readWorkRxWord() (uint32, bool) {
	if h.regs.Status().WorkRxEmpty {
		time.Sleep(rxPollBackoff)
		if h.regs.Status().WorkRxEmpty {
			return 0, false
		}
	}
	return h.regs.ReadWorkRxFifo(), true
}

// GetWorkIDFromResult recovers the work_id a result answers, using the
// board's configured midstate_count_bits.
func (h *HashBoard) GetWorkIDFromResult(r *MiningWorkResult) uint32 {
	return WorkIDFromResultID(r.ResultID, h.midstateCountBits)
}

// SolutionIdxFromResultID returns bits [7:0] of id.
func SolutionIdxFromResultID(id uint32) uint32 {
	return id & 0xff
}

// MidstateIdxFromResultID returns bits [7+mbits:8] of id.
func MidstateIdxFromResultID(id uint32, mbits int) int {
	return int((id >> 8) & ((1 << uint(mbits)) - 1))
}

// WorkIDFromResultID returns the bits above the midstate_idx field of id.
func WorkIDFromResultID(id uint32, mbits int) uint32 {
	return (id >> 8) >> uint(mbits)
}
