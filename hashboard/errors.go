// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by HashBoard. Wrap with fmt.Errorf("...: %w", ...)
// at call sites that need more context; callers should match with
// errors.Is.
var (
	// ErrNotPresent is returned by New when the plug-detect pin reads low.
	ErrNotPresent = errors.New("hashboard: board not present")

	// ErrGpioFailure wraps a failure acquiring or driving a named GPIO pin.
	ErrGpioFailure = errors.New("hashboard: gpio failure")

	// ErrMapFailure wraps a /dev/mem open or mmap failure.
	ErrMapFailure = errors.New("hashboard: register map failure")

	// ErrVoltageCtrlIO wraps a bus-level failure talking to the voltage
	// controller.
	ErrVoltageCtrlIO = errors.New("hashboard: voltage controller io error")

	// ErrVoltageCtrlVersion is returned when the voltage controller reports
	// a firmware version other than voltagectrl.ExpectedVersion.
	ErrVoltageCtrlVersion = errors.New("hashboard: voltage controller version mismatch")

	// ErrNoChips is returned by enumeration when no chip answers.
	ErrNoChips = errors.New("hashboard: no chips found on chain")

	// ErrTooManyChips is returned by enumeration when chip_count reaches
	// MaxChipsOnChain, indicating a hardware fault (runaway chain).
	ErrTooManyChips = errors.New("hashboard: too many chips on chain")

	// ErrTimeout signals a FIFO read timed out. A timeout on the first word
	// of a two-word read is recovered locally and reported as "no data";
	// see recvGetAddressResp and RecvWorkResult. A timeout on the second word
	// is always propagated as a fatal error wrapping ErrTimeout.
	ErrTimeout = errors.New("hashboard: fifo read timeout")

	// ErrFrameDecode wraps a codec decode failure.
	ErrFrameDecode = errors.New("hashboard: frame decode failure")

	// ErrSystemTime is the error kind for a clock fault while timing
	// heartbeats. No function in this package returns it: tickHeartbeat
	// measures elapsed time with the monotonic reading carried by
	// time.Now, which does not run backwards.
	ErrSystemTime = errors.New("hashboard: system time error")

	// ErrBadWorkSize is returned by SendWork when the supplied work's
	// midstate count doesn't match the configured midstate_count_bits.
	ErrBadWorkSize = errors.New("hashboard: work midstate count mismatch")
)

// ChipRevMismatchError reports that a chip on the chain answered
// GetAddressReg with an unexpected silicon revision.
type ChipRevMismatchError struct {
	Expected, Got byte
	Index         int
}

func (e *ChipRevMismatchError) Error() string {
	return fmt.Sprintf("hashboard: chip %d: revision mismatch: got %#02x, expected %#02x", e.Index, e.Got, e.Expected)
}
