package shm

import (
	"sync/atomic"
	"unsafe"
)

// The helpers below give the seqlock and ring packages atomic access to
// specific byte offsets inside a shared mapping without each reimplementing
// the unsafe-pointer cast. Every field they touch is declared 64-byte
// aligned by the layout in layout.go, so the resulting pointers are always
// naturally aligned for their word size.

func atomicLoadUint32(b []byte) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&b[0])))
}

func atomicStoreUint32(b []byte, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&b[0])), v)
}

func atomicAddUint32(b []byte, delta uint32) uint32 {
	return atomic.AddUint32((*uint32)(unsafe.Pointer(&b[0])), delta)
}

func atomicCASUint32(b []byte, old, new uint32) bool {
	return atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(&b[0])), old, new)
}

func atomicLoadUint64(b []byte) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&b[0])))
}

func atomicStoreUint64(b []byte, v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&b[0])), v)
}

func atomicCASUint64(b []byte, old, new uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(unsafe.Pointer(&b[0])), old, new)
}

// AtomicLoadUint32 / AtomicStoreUint32 / AtomicAddUint32 / AtomicCASUint32
// and the uint64 equivalents are the exported forms used by sibling
// packages (internal/seqlock, internal/ring) that operate on sub-slices of
// a shm.Mapping's Data.

func AtomicLoadUint32(b []byte) uint32               { return atomicLoadUint32(b) }
func AtomicStoreUint32(b []byte, v uint32)           { atomicStoreUint32(b, v) }
func AtomicAddUint32(b []byte, delta uint32) uint32  { return atomicAddUint32(b, delta) }
func AtomicCASUint32(b []byte, old, new uint32) bool { return atomicCASUint32(b, old, new) }
func AtomicLoadUint64(b []byte) uint64               { return atomicLoadUint64(b) }
func AtomicStoreUint64(b []byte, v uint64)           { atomicStoreUint64(b, v) }
func AtomicCASUint64(b []byte, old, new uint64) bool { return atomicCASUint64(b, old, new) }
