// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bm1387

// RawResponse is the raw two-word read from the command response FIFO: 6
// bytes of decodable content, a pad byte, and a trailing checksum byte.
// Callers build one from the two 32-bit words recv_ctl_cmd_resp reads off
// cmd_rx_fifo, little-endian, word0 into bytes[0:4] and word1 into
// bytes[4:8].
type RawResponse [8]byte

// Fields returns the 6 content bytes, discarding the pad and checksum
// bytes.
func (r RawResponse) Fields() [6]byte {
	var f [6]byte
	copy(f[:], r[:6])
	return f
}

// VerifyChecksum recomputes the CRC8 over the first 7 bytes and compares
// it against the trailing checksum byte. This is optional and debug-only;
// normal operation never calls it on the hot path.
func (r RawResponse) VerifyChecksum() error {
	if crc8(r[:7]) != r[7] {
		return ErrChecksum
	}
	return nil
}

// GetAddressRegResp is the decoded response to GetStatus(GetAddressReg).
type GetAddressRegResp struct {
	ChipAddr     byte
	ChipRev      ChipRev
	AddressWidth byte
}

// UnpackGetAddressRegResp decodes a GetAddressRegResp from a response's
// content fields.
func UnpackGetAddressRegResp(fields [6]byte) (GetAddressRegResp, error) {
	return GetAddressRegResp{
		ChipAddr:     fields[1],
		ChipRev:      ChipRev(fields[2]),
		AddressWidth: fields[3],
	}, nil
}
