// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"encoding/binary"
	"fmt"
	"time"

	"hashboard/bm1387"
)

// rxPollBackoff is the single sleep issued when cmd_rx_fifo/work_rx_fifo
// read as empty before the read is declared a timeout.
const rxPollBackoff = 5 * time.Millisecond

// sendCtlCmd asserts 4-byte alignment, writes bytes to cmd_tx_fifo as
// little-endian 32-bit words, and optionally spin-waits for the command
// to drain before returning.
func (h *HashBoard) sendCtlCmd(bytes []byte, wait bool) error {
	if len(bytes)%4 != 0 {
		return fmt.Errorf("%w: command length %d is not 4-byte aligned", ErrFrameDecode, len(bytes))
	}
	for off := 0; off < len(bytes); off += 4 {
		word := binary.LittleEndian.Uint32(bytes[off : off+4])
		for h.regs.Status().CmdTxFull {
		}
		h.regs.WriteCmdTxFifo(word)
	}
	if wait {
		for !h.regs.Status().CmdTxEmpty {
		}
	}
	return nil
}

// readCmdRxWord reads one word from cmd_rx_fifo, applying the
// poll/backoff/poll timeout sequence: if the FIFO reads empty, sleep
// once, re-check once, and report a timeout if still empty.
func (h *HashBoard) readCmdRxWord() (uint32, bool) {
	if h.regs.Status().CmdRxEmpty {
		time.Sleep(rxPollBackoff)
		if h.regs.Status().CmdRxEmpty {
			return 0, false
		}
	}
	return h.regs.ReadCmdRxFifo(), true
}

// recvGetAddressResp performs the two-phase command-response read and
// decodes a GetAddressRegResp. A timeout on the first word is reported as
// "no response" (nil, nil); a timeout on the second word is fatal.
func (h *HashBoard) recvGetAddressResp() (*bm1387.GetAddressRegResp, error) {
	word0, ok := h.readCmdRxWord()
	if !ok {
		return nil, nil
	}
	word1, ok := h.readCmdRxWord()
	if !ok {
		return nil, fmt.Errorf("%w: cmd_rx_fifo: second word of response frame", ErrTimeout)
	}

	var raw bm1387.RawResponse
	binary.LittleEndian.PutUint32(raw[0:4], word0)
	binary.LittleEndian.PutUint32(raw[4:8], word1)

	resp, err := bm1387.UnpackGetAddressRegResp(raw.Fields())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameDecode, err)
	}
	return &resp, nil
}
