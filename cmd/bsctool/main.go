// Command bsctool assembles, disassembles, and round-trip checks enemy
// bytecode programs.
package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/Urethramancer/bulletscript/asm"
	"github.com/Urethramancer/bulletscript/disasm"
)

const maxProgramBytes = 256

func warnIfOversized(path string, data []byte) {
	if len(data) > maxProgramBytes {
		fmt.Fprintf(os.Stderr, "warning: %s is %d bytes, exceeding the %d-byte program limit\n", path, len(data), maxProgramBytes)
	}
}

func assembleFile(inPath, outPath string) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	code, err := asm.Assemble(string(src))
	if err != nil {
		return err
	}

	return os.WriteFile(outPath, code, 0o644)
}

func disassembleFile(inPath string) (string, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return "", err
	}
	warnIfOversized(inPath, data)

	return disasm.Disassemble(data)
}

func roundTrip(inPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	warnIfOversized(inPath, data)

	text, err := disasm.Disassemble(data)
	if err != nil {
		return fmt.Errorf("disassemble: %w", err)
	}

	back, err := asm.Assemble(text)
	if err != nil {
		return fmt.Errorf("reassemble: %w", err)
	}

	if string(back) != string(data) {
		return fmt.Errorf("round trip mismatch: %d bytes in, %d bytes out", len(data), len(back))
	}

	fmt.Printf("%s: round trip OK (%d bytes)\n", inPath, len(data))
	return nil
}

func main() {
	log := func(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

	app := &cli.App{
		Name:  "bsctool",
		Usage: "assemble, disassemble, and round-trip check enemy bytecode",
		Action: func(c *cli.Context) error {
			cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "asm",
				Usage:     "assemble a mnemonic source file into a bytecode program",
				ArgsUsage: "in out",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 2 {
						return cli.Exit("usage: bsctool asm in out", 1)
					}
					if err := assembleFile(c.Args().Get(0), c.Args().Get(1)); err != nil {
						log("asm: %v", err)
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name:      "disasm",
				Usage:     "disassemble a bytecode program to standard output",
				ArgsUsage: "in",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return cli.Exit("usage: bsctool disasm in", 1)
					}
					text, err := disassembleFile(c.Args().Get(0))
					if err != nil {
						log("disasm: %v", err)
						return cli.Exit(err, 1)
					}
					fmt.Print(text)
					return nil
				},
			},
			{
				Name:      "roundtrip",
				Usage:     "check that assemble(disassemble(x)) reproduces x",
				ArgsUsage: "in",
				Action: func(c *cli.Context) error {
					if c.Args().Len() < 1 {
						return cli.Exit("usage: bsctool roundtrip in", 1)
					}
					if err := roundTrip(c.Args().Get(0)); err != nil {
						log("roundtrip: %v", err)
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log("%v", err)
		os.Exit(1)
	}
}
