// Package repl implements the interactive read-compile-run loop, built
// around the same bufio.Scanner read loop and compile-per-line model the
// reference CLI's REPL used, but keeping one engine.Engine alive across
// lines instead of swapping in a fresh chunk and VM for every line.
package repl

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"luax/internal/engine"
	"luax/internal/value"
)

// Start runs the loop until EOF or an "exit"/"quit" line. The prompt is
// suppressed when stdin isn't a terminal, so piping a script through the
// repl subcommand behaves like a quiet batch run instead of echoing
// prompts into whatever is consuming stdout.
func Start() {
	eng, err := engine.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: failed to start: %v\n", err)
		os.Exit(1)
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("luax REPL | type 'exit' to quit")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for line := 1; ; line++ {
		if interactive {
			fmt.Print(">>> ")
		}
		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if text == "exit" || text == "quit" {
			break
		}
		if text == "" {
			continue
		}

		result, err := eng.RunSource(fmt.Sprintf("<repl:%d>", line), text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if !result.IsUnit() {
			fmt.Println(value.ToString(result))
		}
	}
}
