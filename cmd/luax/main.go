// cmd/luax/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"luax/internal/engine"
	"luax/internal/repl"
	"luax/internal/value"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	switch args[0] {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("luax", version)
	case "run":
		if len(args) < 2 {
			log.Fatal("usage: luax run <file.lx>")
		}
		runFile(args[1])
	case "repl":
		repl.Start()
	case "dump":
		if len(args) < 2 {
			log.Fatal("usage: luax dump <file.lx>")
		}
		dumpFile(args[1])
	default:
		log.Fatalf("unknown command %q, try 'luax help'", args[0])
	}
}

func runFile(path string) {
	eng, err := engine.New()
	if err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}
	result, err := eng.RunFile(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if !result.IsUnit() {
		fmt.Println(value.ToString(result))
	}
}

func dumpFile(path string) {
	eng, err := engine.New()
	if err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %q: %v", path, err)
	}
	if _, err := eng.CompileSource("", string(src)); err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("; run %s\n", eng.RunID)
	for addr, instr := range eng.Chunk.Code {
		fmt.Printf("%6d  %-20s %d\n", addr, instr.Op, instr.A)
	}
}

func showUsage() {
	fmt.Print(`luax - a small dynamically typed scripting language

Usage:
  luax run <file.lx>    compile and run a source file
  luax repl             start an interactive session
  luax dump <file.lx>   compile a file and print its bytecode
  luax version          print the version
  luax help             print this message
`)
}
