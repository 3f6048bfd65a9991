//go:build windows

package keymem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func mlock(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return windows.VirtualLock(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b))) == nil
}

func munlock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = windows.VirtualUnlock(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)))
}
