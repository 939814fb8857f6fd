package cache

import (
	"errors"
	"sync"

	"github.com/xirelogy/go-mumei/internal/bytecode"
)

var ErrUnknownHandle = errors.New("unknown bytecode handle")

// Handle identifies bytecode registered in a Handles table.
type Handle uint64

// Handles assigns increasing handles to compiled bytecode. Handles are
// never reused within one table.
type Handles struct {
	mu    sync.RWMutex
	next  Handle
	codes map[Handle]*bytecode.ByteCode
}

func NewHandles() *Handles {
	return &Handles{next: 1, codes: make(map[Handle]*bytecode.ByteCode)}
}

func (h *Handles) Register(bc *bytecode.ByteCode) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.codes[id] = bc
	return id
}

func (h *Handles) Lookup(id Handle) (*bytecode.ByteCode, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bc, ok := h.codes[id]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return bc, nil
}

// Release forgets id. Releasing an unknown handle is an error.
func (h *Handles) Release(id Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.codes[id]; !ok {
		return ErrUnknownHandle
	}
	delete(h.codes, id)
	return nil
}

func (h *Handles) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.codes)
}
