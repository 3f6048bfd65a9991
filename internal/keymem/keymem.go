// Package keymem holds private keys in memory that is locked against
// swapping where the platform allows, and zeroed when released.
package keymem

import (
	"runtime"
	"sync"
)

// Key is a private key held in locked memory. The zero value is an empty,
// already destroyed key.
type Key struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// Copy returns a Key holding a copy of b. The caller still owns b and
// should Zero it.
func Copy(b []byte) *Key {
	k := &Key{data: make([]byte, len(b))}
	copy(k.data, b)
	k.locked = mlock(k.data)

	// Zero the key even if Destroy is never called.
	runtime.SetFinalizer(k, (*Key).Destroy)
	return k
}

// Bytes returns the key material, or nil once destroyed. The slice aliases
// the locked buffer and must not be retained past Destroy.
func (k *Key) Bytes() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.data
}

// Len returns the key length, or 0 once destroyed.
func (k *Key) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.data)
}

// Locked reports whether the buffer is mlocked.
func (k *Key) Locked() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.locked
}

// Destroy zeroes and unlocks the buffer. Safe to call more than once.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.data == nil {
		return
	}
	Zero(k.data)
	if k.locked {
		munlock(k.data)
		k.locked = false
	}
	k.data = nil
	runtime.SetFinalizer(k, nil)
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
