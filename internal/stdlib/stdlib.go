// Package stdlib seeds a VM's global frame with the native bindings spec §4.7
// calls for, before Run is invoked (spec §6's "preloaded globals").
package stdlib

import (
	"luax/internal/memory"
	"luax/internal/value"
	"luax/internal/vm"
)

// Register installs every preloaded binding category.
func Register(m *vm.VM, prims *value.Primitives, gc *memory.Collector) error {
	if err := RegisterIO(m, gc); err != nil {
		return err
	}
	if err := RegisterTypings(m, prims, gc); err != nil {
		return err
	}
	return RegisterRuntime(m, gc)
}
