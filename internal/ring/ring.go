// Package ring implements the channel's bounded multi-producer/single-
// consumer command ring: the path any shell uses to submit a short command
// back to the daemon.
//
// The slot state machine (EMPTY → RESERVED → READY → CONSUMING → EMPTY) is
// the cross-process analog of the CAS-guarded ownership transfer the
// reference feeder uses for its seqlock slots, generalized from "one
// daemon-owned slot" to "any number of untrusted producers racing for the
// next slot."
package ring

import (
	"runtime"

	"github.com/alephchan/alephd/internal/shm"
)

// Slot states. A slot cycles EMPTY -> RESERVED -> READY -> CONSUMING -> EMPTY
// as a producer claims it, fills it, and the consumer drains it.
const (
	StateEmpty     uint32 = 0
	StateReserved  uint32 = 1
	StateReady     uint32 = 2
	StateConsuming uint32 = 3
)

// SendResult is the outcome of a TrySend call.
type SendResult int

const (
	Accepted SendResult = iota
	Full
	TooLarge
)

// Ring is a view over one channel's command-ring region: an 8-byte head
// cursor, an 8-byte tail cursor, an 8-byte capacity field, 40 bytes of
// padding, and capacity slots of shm.SlotSize bytes each.
type Ring struct {
	buf      []byte
	capacity uint64
}

// New wraps buf, which must be at least shm.RingHeaderSize+capacity*shm.SlotSize
// bytes, as a command ring. capacity must already be a power of two; the
// layout descriptor guarantees this.
func New(buf []byte, capacity uint64) *Ring {
	return &Ring{buf: buf, capacity: capacity}
}

func (r *Ring) headBytes() []byte { return r.buf[0:8] }
func (r *Ring) tailBytes() []byte { return r.buf[8:16] }

func (r *Ring) slot(index uint64) []byte {
	off := shm.RingHeaderSize + (index&(r.capacity-1))*shm.SlotSize
	return r.buf[off : off+shm.SlotSize]
}

func slotState(s []byte) []byte    { return s[0:4] }
func slotClientID(s []byte) []byte { return s[4:8] }
func slotLen(s []byte) []byte      { return s[8:12] }
func slotPayload(s []byte) []byte  { return s[shm.SlotHeaderSize:] }

// TrySend reserves the next free slot and fills it atomically, so a
// consumer never observes a partial message. It is safe for concurrent use
// by any number of producer goroutines/processes with no mutual trust.
func TrySend(r *Ring, clientID uint32, data []byte) SendResult {
	if len(data) > shm.SlotPayloadSize {
		return TooLarge
	}

	tail := shm.AtomicLoadUint64(r.tailBytes())
	for {
		head := shm.AtomicLoadUint64(r.headBytes())
		if tail-head >= r.capacity {
			return Full
		}
		if shm.AtomicCASUint64(r.tailBytes(), tail, tail+1) {
			break
		}
		tail = shm.AtomicLoadUint64(r.tailBytes())
	}

	slot := r.slot(tail)
	for {
		state := shm.AtomicLoadUint32(slotState(slot))
		if state != StateEmpty {
			// A previous occupant of this wrapped index hasn't been
			// reclaimed yet; spin until the consumer frees it.
			runtime.Gosched()
			continue
		}
		if shm.AtomicCASUint32(slotState(slot), StateEmpty, StateReserved) {
			break
		}
	}

	shm.AtomicStoreUint32(slotClientID(slot), clientID)
	shm.AtomicStoreUint32(slotLen(slot), uint32(len(data)))
	copy(slotPayload(slot), data)

	shm.AtomicStoreUint32(slotState(slot), StateReady)
	return Accepted
}

// TryRecv returns the oldest committed message, if any. It is daemon-only:
// exactly one consumer goroutine may call this for a given Ring.
func TryRecv(r *Ring, buf []byte) (clientID uint32, n int, ok bool) {
	head := shm.AtomicLoadUint64(r.headBytes())
	tail := shm.AtomicLoadUint64(r.tailBytes())
	if head == tail {
		return 0, 0, false
	}

	slot := r.slot(head)
	if shm.AtomicLoadUint32(slotState(slot)) != StateReady {
		// Still being filled by its producer; don't advance head.
		return 0, 0, false
	}

	shm.AtomicStoreUint32(slotState(slot), StateConsuming)

	clientID = shm.AtomicLoadUint32(slotClientID(slot))
	msgLen := int(shm.AtomicLoadUint32(slotLen(slot)))
	n = msgLen
	if n > len(buf) {
		n = len(buf)
	}
	copy(buf, slotPayload(slot)[:n])

	shm.AtomicStoreUint32(slotState(slot), StateEmpty)
	shm.AtomicStoreUint64(r.headBytes(), head+1)

	return clientID, n, true
}
