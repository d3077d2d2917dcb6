// Package intern is the canonical string pool: every StringObject the
// compiler or VM ever hands out for a given byte sequence is the same
// pointer, so identifier comparisons and string-equality by the VM can use
// pointer identity (spec §3.5).
package intern

import (
	"sync"

	"luax/internal/value"
)

// Pool owns the canonical StringObject per distinct byte sequence. Every
// string it mints is pinned (no-collect) for the lifetime of the pool,
// mirroring the original's regist_no_collect call at intern time.
type Pool struct {
	mu    sync.Mutex
	table map[string]*value.StringObject
}

func New() *Pool {
	return &Pool{table: make(map[string]*value.StringObject)}
}

// Intern returns the canonical StringObject for s, minting and pinning one
// the first time s is seen.
func (p *Pool) Intern(s string) *value.StringObject {
	p.mu.Lock()
	defer p.mu.Unlock()
	if obj, ok := p.table[s]; ok {
		return obj
	}
	obj := value.NewStringObject(s)
	obj.Pin()
	p.table[s] = obj
	return obj
}

// Lookup returns the canonical StringObject for s without minting one.
func (p *Pool) Lookup(s string) (*value.StringObject, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	obj, ok := p.table[s]
	return obj, ok
}

// Len reports how many distinct strings have been interned.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.table)
}
