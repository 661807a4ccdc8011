// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/aurora-is-near/aurora-evm/processor/polaris"
	"github.com/aurora-is-near/aurora-evm/state"

	_ "github.com/aurora-is-near/aurora-evm/interpreter/borealis"

	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "executes the given code as a transaction on an empty state",
	ArgsUsage: "<code-hex>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "interpreter",
			Usage: "the interpreter implementation to run the code on",
			Value: "borealis",
		},
		&cli.StringFlag{
			Name:  "revision",
			Usage: "the revision to run the code under (Frontier ... Prague)",
			Value: "Prague",
		},
		&cli.StringFlag{
			Name:  "input",
			Usage: "hex encoded input data for the transaction",
		},
		&cli.Uint64Flag{
			Name:  "gas",
			Usage: "the gas limit of the transaction",
			Value: 10_000_000,
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "print every executed instruction",
		},
		&cli.BoolFlag{
			Name:  "dump-state",
			Usage: "print the resulting state diff as JSON",
		},
	},
}

func doRun(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one code argument, got %d", ctx.Args().Len())
	}
	code, err := decodeHex(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("invalid code: %w", err)
	}
	input, err := decodeHex(ctx.String("input"))
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	var revision aurora.Revision
	if err := revision.UnmarshalJSON([]byte(`"` + ctx.String("revision") + `"`)); err != nil {
		return fmt.Errorf("unknown revision: %s", ctx.String("revision"))
	}

	interpreter, err := aurora.NewInterpreter(ctx.String("interpreter"))
	if err != nil {
		return err
	}
	processor := polaris.NewProcessor(interpreter)

	var (
		sender   = aurora.Address{1}
		contract = aurora.Address{2}
		gasLimit = aurora.Gas(ctx.Uint64("gas"))
	)

	backend := state.NewMemoryBackend()
	backend.SetBalance(sender, aurora.NewValue(1_000_000_000_000_000_000))
	backend.SetCode(contract, code)
	stateDB := state.NewStateDB(backend, revision)

	if ctx.Bool("trace") {
		if p, ok := processor.(interface{ SetTracer(aurora.Tracer) }); ok {
			p.SetTracer(&printTracer{out: os.Stdout})
		}
	}

	receipt, err := processor.Run(
		aurora.BlockParameters{
			BlockNumber: 1,
			Revision:    revision,
			GasLimit:    gasLimit,
		},
		aurora.Transaction{
			Sender:    sender,
			Recipient: &contract,
			Input:     input,
			GasLimit:  gasLimit,
		},
		stateDB,
	)
	if err != nil {
		return err
	}

	fmt.Printf("exit:     %v\n", receipt.Exit)
	fmt.Printf("output:   0x%x\n", []byte(receipt.Output))
	fmt.Printf("gas used: %sgas (refunded %d)\n",
		unitconv.FormatPrefix(float64(receipt.GasUsed), unitconv.SI, 2), receipt.GasRefunded)
	for i, log := range receipt.Logs {
		fmt.Printf("log %d:    %v topics=%v data=0x%x\n", i, log.Address, log.Topics, []byte(log.Data))
	}

	if ctx.Bool("dump-state") {
		diff := stateDB.GetStateDiff()
		encoded, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

// printTracer writes one line per instruction and frame transition.
type printTracer struct {
	out *os.File
}

func (t *printTracer) StepStart(pc int, op byte, gas aurora.Gas, stackSize int, memorySize uint64) {
	fmt.Fprintf(t.out, "pc=%05d op=0x%02x gas=%d stack=%d mem=%s\n",
		pc, op, gas, stackSize, unitconv.FormatPrefix(float64(memorySize), unitconv.IEC, 0))
}

func (t *printTracer) StepEnd(pc int, gas aurora.Gas) {}

func (t *printTracer) FrameEnter(kind aurora.CallKind, sender, recipient aurora.Address, gas aurora.Gas, input aurora.Data) {
	fmt.Fprintf(t.out, "-- enter %v %v -> %v gas=%d\n", kind, sender, recipient, gas)
}

func (t *printTracer) FrameExit(gasLeft aurora.Gas, output aurora.Data, success bool) {
	fmt.Fprintf(t.out, "-- exit success=%t gasLeft=%d\n", success, gasLeft)
}

func (t *printTracer) StorageRead(addr aurora.Address, key aurora.Key, value aurora.Word) {}

func (t *printTracer) StorageWrite(addr aurora.Address, key aurora.Key, prev, value aurora.Word) {}
