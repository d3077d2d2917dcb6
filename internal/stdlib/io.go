package stdlib

import (
	"bufio"
	"fmt"
	"os"

	"luax/internal/memory"
	"luax/internal/value"
	"luax/internal/vm"
)

// RegisterIO installs the __builtin_io_* family (spec §4.7, §6), grounded on
// original_source/src/lib.cpp's IO::load: println/print join their arguments
// with a space, string arguments print their raw contents rather than a
// to_string() rendering. Every native is registered no-collect with the
// collector, as original_source's gc_regist_no_collect does for its own
// natives (spec §5's "no_collect pins any object the host registers before
// execution").
func RegisterIO(m *vm.VM, gc *memory.Collector) error {
	stdin := bufio.NewReader(os.Stdin)

	println, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("println", -1, func(args []value.Value) (value.Value, error) {
		writeJoined(args)
		fmt.Println()
		return value.NewUnit(), nil
	}))
	if err != nil {
		return err
	}
	print, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("print", -1, func(args []value.Value) (value.Value, error) {
		writeJoined(args)
		return value.NewUnit(), nil
	}))
	if err != nil {
		return err
	}
	readline, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("readline", 0, func(args []value.Value) (value.Value, error) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return value.NewString(value.NewStringObject("")), nil
		}
		line = trimNewline(line)
		return value.NewString(value.NewStringObject(line)), nil
	}))
	if err != nil {
		return err
	}

	// Bare names (spec §6) alias the same natives as their __builtin_io_
	// prefixed counterparts (original_source only registers the prefixed
	// form; the bare convenience globals are a spec addition).
	m.DefineGlobal("println", value.NewFunction(println))
	m.DefineGlobal("print", value.NewFunction(print))
	m.DefineGlobal("readline", value.NewFunction(readline))
	m.DefineGlobal("__builtin_io_println", value.NewFunction(println))
	m.DefineGlobal("__builtin_io_print", value.NewFunction(print))
	m.DefineGlobal("__builtin_io_readline", value.NewFunction(readline))
	return nil
}

func writeJoined(args []value.Value) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		if a.Kind == value.String {
			fmt.Print(a.AsString().Data)
		} else {
			fmt.Print(value.ToString(a))
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
