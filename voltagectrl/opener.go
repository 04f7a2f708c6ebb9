// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package voltagectrl

import "periph.io/x/conn/v3/i2c"

// Opener maps a board index to an I2C address on a shared bus and opens a
// Client there. Boards on the same carrier typically share one I2C bus,
// each with its own controller address.
type Opener struct {
	Bus          i2c.Bus
	AddrForBoard func(boardIdx int) uint16
}

// Open implements hashboard.VoltageOpener.
func (o Opener) Open(boardIdx int) (*Client, error) {
	return New(o.Bus, o.AddrForBoard(boardIdx))
}
