// Package memory implements the tracing mark-sweep garbage collector every
// heap allocation in the runtime goes through (spec §4). Roots are supplied
// by the VM: the operand stack plus every reachable frame's variable
// bindings; pinned objects are protected from sweeping directly, not by
// being treated as additional roots.
package memory

import (
	"runtime"
	"sync"

	"luax/internal/errors"
	"luax/internal/value"
)

// Config holds the heuristics that decide when a collection runs and the
// hard ceiling that turns further allocation into a HeapError.
type Config struct {
	AllocationThreshold int     // run a cycle once this many objects have been allocated since the last one
	GrowthFactor        float64 // or once live object count grows this much relative to the last cycle
	MemoryThreshold     int64   // or once this many bytes are tracked
	MaxHeapSize         int64   // allocation beyond this is refused outright
}

// DefaultConfig mirrors the reference runtime's tuning: a 64-allocation
// threshold, 2x growth factor, a 1MiB soft threshold, and a 64MiB hard cap.
func DefaultConfig() Config {
	return Config{
		AllocationThreshold: 64,
		GrowthFactor:        2.0,
		MemoryThreshold:     1 << 20,
		MaxHeapSize:         64 << 20,
	}
}

// Collector owns every live heap object and decides when to reclaim the
// ones no longer reachable from the VM's roots.
type Collector struct {
	mu      sync.Mutex
	config  Config
	enabled bool

	objects []value.HeapObject
	guarded map[value.HeapObject]int

	bytesAllocated             int64
	allocSinceLastCollection   int
	lastCollectionObjectCount  int
	collections                int

	rootsFn func() []value.Value
}

func New(config Config) *Collector {
	return &Collector{
		config:  config,
		enabled: true,
		guarded: make(map[value.HeapObject]int),
	}
}

// SetRootsProvider registers the VM's callback for the current root set.
// Collect calls this at the start of every cycle; without it nothing is
// marked from roots, so a cycle sweeps every object that is neither pinned
// nor held by a Guard.
func (c *Collector) SetRootsProvider(fn func() []value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rootsFn = fn
}

// SetEnabled toggles whether Allocate's heuristics may trigger an automatic
// collection. Unlike the reference implementation's set_gc_enabled, which
// unconditionally pins enabled to true regardless of the argument, this
// actually stores the value passed in.
func (c *Collector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *Collector) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Allocate registers obj with the collector, running an automatic collection
// first if the heuristics call for one, then refusing the allocation with a
// HeapError if the hard ceiling is exceeded.
func Allocate[T value.HeapObject](c *Collector, obj T) (T, error) {
	c.mu.Lock()
	if c.enabled && c.shouldRunGCLocked() {
		c.collectLocked()
	}
	size := int64(obj.Size())
	if c.bytesAllocated+size > c.config.MaxHeapSize {
		c.mu.Unlock()
		var zero T
		return zero, errors.Newf(errors.HeapError, "heap allocation of %d bytes exceeds max heap size %d bytes", size, c.config.MaxHeapSize)
	}
	c.objects = append(c.objects, obj)
	c.bytesAllocated += size
	c.allocSinceLastCollection++
	c.mu.Unlock()
	return obj, nil
}

// RegisterNoCollect allocates obj and immediately pins it, for values that
// must never be reclaimed automatically (interned strings, primitive type
// descriptors, preloaded native bindings).
func RegisterNoCollect[T value.HeapObject](c *Collector, obj T) (T, error) {
	obj, err := Allocate(c, obj)
	if err != nil {
		return obj, err
	}
	obj.Pin()
	return obj, nil
}

func (c *Collector) shouldRunGCLocked() bool {
	if c.allocSinceLastCollection >= c.config.AllocationThreshold {
		return true
	}
	if c.lastCollectionObjectCount > 0 && float64(len(c.objects)) >= c.config.GrowthFactor*float64(c.lastCollectionObjectCount) {
		return true
	}
	if c.bytesAllocated >= c.config.MemoryThreshold {
		return true
	}
	return false
}

// Collect runs one mark-sweep cycle unconditionally, regardless of the
// heuristics or the enabled flag. __builtin_runtime_gc_collect calls this
// directly.
func (c *Collector) Collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collectLocked()
}

func (c *Collector) collectLocked() {
	for _, obj := range c.objects {
		obj.SetMarked(false)
	}

	if c.rootsFn != nil {
		for _, root := range c.rootsFn() {
			markValue(root)
		}
	}
	for obj, refcount := range c.guarded {
		if refcount > 0 {
			markObject(obj)
		}
	}

	c.sweepLocked()
	c.lastCollectionObjectCount = len(c.objects)
	c.allocSinceLastCollection = 0
	c.collections++
}

func markValue(v value.Value) {
	if !v.Kind.IsHeapKind() || v.Obj == nil {
		return
	}
	markObject(v.Obj)
}

func markObject(obj value.HeapObject) {
	if obj == nil || obj.Marked() {
		return
	}
	obj.SetMarked(true)
	for _, ref := range obj.References() {
		markObject(ref)
	}
}

func (c *Collector) sweepLocked() {
	kept := c.objects[:0]
	for _, obj := range c.objects {
		if obj.Marked() || obj.NoCollect() {
			kept = append(kept, obj)
			continue
		}
		c.bytesAllocated -= int64(obj.Size())
	}
	if c.bytesAllocated < 0 {
		c.bytesAllocated = 0
	}
	c.objects = kept
}

// Guard protects objects mid-construction from being swept by a collection
// triggered by a further allocation before the object under construction is
// reachable from any root (spec §6, __builtin_typings_array_of's use of
// runtime.gc_guard while filling a freshly allocated array).
type Guard struct {
	c    *Collector
	held []value.HeapObject
}

func (c *Collector) NewGuard() *Guard {
	return &Guard{c: c}
}

// Hold adds obj to the set of objects treated as roots until Release is
// called.
func (g *Guard) Hold(obj value.HeapObject) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	g.held = append(g.held, obj)
	g.c.guarded[obj]++
}

// Release stops protecting every object this guard is holding.
func (g *Guard) Release() {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	for _, obj := range g.held {
		g.c.guarded[obj]--
		if g.c.guarded[obj] <= 0 {
			delete(g.c.guarded, obj)
		}
	}
	g.held = nil
}

// Stats summarizes the collector's current state, for the debug CLI and for
// tests asserting a collection actually reclaimed memory.
type Stats struct {
	LiveObjects   int
	BytesTracked  int64
	Collections   int
	HostAlloc     uint64 // bytes currently allocated by the Go runtime hosting this collector
	HostTotalAlloc uint64
}

func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Stats{
		LiveObjects:    len(c.objects),
		BytesTracked:   c.bytesAllocated,
		Collections:    c.collections,
		HostAlloc:      ms.Alloc,
		HostTotalAlloc: ms.TotalAlloc,
	}
}
