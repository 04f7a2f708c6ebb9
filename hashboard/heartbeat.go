// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hashboard

import (
	"fmt"
	"time"
)

// heartbeatInterval is the maximum gap between voltage-controller
// heartbeats while the board is powered.
const heartbeatInterval = 1 * time.Second

// tickHeartbeat is piggybacked on every significant hardware call. The
// first call only initializes the timestamp; subsequent calls send a
// heartbeat when at least heartbeatInterval has elapsed since the last
// one. A future design moves this onto an independent ticker goroutine
// that owns the voltage-controller handle directly.
func (h *HashBoard) tickHeartbeat() error {
	now := time.Now()
	if !h.heartbeatInit {
		h.heartbeatInit = true
		h.lastHeartbeatSent = now
		return nil
	}
	if now.Sub(h.lastHeartbeatSent) < heartbeatInterval {
		return nil
	}
	if err := h.voltage.SendHeartbeat(); err != nil {
		return fmt.Errorf("%w: %v", ErrVoltageCtrlIO, err)
	}
	h.lastHeartbeatSent = now
	return nil
}
