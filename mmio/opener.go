// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mmio

// Opener maps a board index to a physical base address and opens the
// register block there. Multi-board systems decode one IP core per board
// into a different offset of the same address space; BaseAddr encodes
// that layout.
type Opener struct {
	BaseAddr func(boardIdx int) int64
}

// Open implements hashboard.RegisterOpener.
func (o Opener) Open(boardIdx int) (Registers, error) {
	return Open(o.BaseAddr(boardIdx))
}
