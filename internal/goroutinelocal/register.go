// Package goroutinelocal provides the "opaque per-thread stack pointer"
// that the request monitor uses to recover the currently active frame
// from deep inside instrumented code without threading it through every
// call. Go has no built-in thread-local storage; the goroutine id
// extracted from runtime.Stack is the closest analogue and is the same
// trick several goroutine-local-storage shims use.
package goroutinelocal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Register is a goroutine-keyed slot holding one value of type T per
// goroutine. The zero Register is ready to use.
type Register[T any] struct {
	mu    sync.RWMutex
	slots map[uint64]T
}

// Get returns the value stored for the calling goroutine and whether one
// was present.
func (r *Register[T]) Get() (T, bool) {
	id := goroutineID()
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.slots[id]
	return v, ok
}

// Set stores value for the calling goroutine.
func (r *Register[T]) Set(value T) {
	id := goroutineID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots == nil {
		r.slots = make(map[uint64]T)
	}
	r.slots[id] = value
}

// Clear removes any value stored for the calling goroutine. Idempotent:
// clearing an already-empty slot is a no-op, which keeps it safe to call
// from every exit path of monitorStop, including exceptional unwinds.
func (r *Register[T]) Clear() {
	id := goroutineID()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, id)
}

// goroutineID parses the numeric goroutine id out of the header line of
// runtime.Stack's output ("goroutine 123 [running]: ..."). It is not
// part of any stable Go API, but the format has been unchanged since
// Go 1.0 and several production goroutine-local-storage libraries rely
// on the same parsing. A parse failure returns 0, which collapses all
// callers onto a single shared slot rather than panicking — profiling
// and current-request lookups fail soft per the component's contract.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]

	if sp := bytes.IndexByte(buf, ' '); sp >= 0 {
		buf = buf[:sp]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
