// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command hashboard-smoketest brings up a single hash board and exercises
// its work pipeline with synthetic work, printing what it discovers and
// receives. It is a hardware diagnostic, not a miner: it does no pool
// communication and accepts no mining configuration.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"hashboard/boardgpio"
	"hashboard/hashboard"
	"hashboard/mmio"
	"hashboard/voltagectrl"
)

func main() {
	boardIdx := flag.Int("board", 0, "board index")
	baseAddr := flag.Int64("base-addr", 0x43c00000, "IP core MMIO physical base address")
	midstateCount := flag.Int("midstates", 1, "midstate count (1, 2, or 4)")
	i2cBusName := flag.String("i2c-bus", "", "I2C bus name (empty selects the default bus)")
	i2cAddr := flag.Uint("i2c-addr", 0x20, "voltage controller I2C address")
	workItems := flag.Int("work-items", 4, "number of synthetic work items to submit")
	flag.Parse()

	if err := run(*boardIdx, *baseAddr, *midstateCount, *i2cBusName, uint16(*i2cAddr), *workItems); err != nil {
		log.Fatal(err)
	}
}

func run(boardIdx int, baseAddr int64, midstateCount int, i2cBusName string, i2cAddr uint16, workItems int) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host.Init: %w", err)
	}

	bus, err := i2creg.Open(i2cBusName)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", i2cBusName, err)
	}
	defer bus.Close()

	gpioMgr := boardgpio.NewManager()
	regsOpener := mmio.Opener{BaseAddr: func(int) int64 { return baseAddr }}
	voltageOpener := voltagectrl.Opener{Bus: bus, AddrForBoard: func(int) uint16 { return i2cAddr }}

	hb, err := hashboard.New(gpioMgr, regsOpener, voltageOpener, boardIdx, midstateCount, hashboard.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("new hash board: %w", err)
	}
	defer hb.Close()

	if err := hb.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Fprintf(os.Stdout, "chips discovered: %d\n", hb.GetChipCount())

	for i := 0; i < workItems; i++ {
		work := hashboard.MiningWork{
			Nbits:         0x1d00ffff,
			Ntime:         uint32(time.Now().Unix()),
			MerkleRootLSW: uint32(i),
			Midstates:     make([]hashboard.Midstate, 1<<workMidstateBits(midstateCount)),
		}
		id, err := hb.SendWork(work)
		if err != nil {
			return fmt.Errorf("send work %d: %w", i, err)
		}
		fmt.Fprintf(os.Stdout, "submitted work_id=%#04x\n", id)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		result, err := hb.RecvWorkResult()
		if err != nil {
			return fmt.Errorf("recv work result: %w", err)
		}
		if result == nil {
			continue
		}
		fmt.Fprintf(os.Stdout, "result nonce=%#08x work_id=%#04x midstate=%d\n",
			result.Nonce, hb.GetWorkIDFromResult(result), result.MidstateIdx)
	}

	return nil
}

func workMidstateBits(n int) int {
	switch n {
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 0
	}
}
