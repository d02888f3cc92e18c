// Package seqlock implements the channel's SWMR data protocol: one daemon
// publishes a byte-blob payload, and any number of shells read the latest
// complete publication without ever observing a torn mix of two writes.
//
// The protocol is the one the reference feeder uses for its BBO slots
// (odd-store / payload-copy / even-store), generalized from a fixed 64-byte
// struct to an arbitrary data_size-byte payload living in a shared mapping.
package seqlock

import (
	"runtime"

	"github.com/alephchan/alephd/internal/shm"
)

// Region is a view over one channel's seqlock state region: an 8-byte
// sequence counter, an 8-byte data-length field, 48 bytes of padding, and
// data_size payload bytes, exactly shm.SeqlockHeaderSize + DataSize bytes,
// carved out of a shared mapping by the caller.
type Region struct {
	buf      []byte
	dataSize uint64
}

// New wraps buf, which must be at least shm.SeqlockHeaderSize+dataSize bytes,
// as a seqlock region.
func New(buf []byte, dataSize uint64) *Region {
	return &Region{buf: buf, dataSize: dataSize}
}

func (r *Region) sequenceBytes() []byte { return r.buf[0:8] }
func (r *Region) dataLenBytes() []byte  { return r.buf[8:16] }
func (r *Region) payload() []byte       { return r.buf[shm.SeqlockHeaderSize:] }

// Publisher is the daemon-only write side of a seqlock region. It is not
// safe for concurrent use by multiple goroutines: exactly one daemon owns
// the write side of a channel for its lifetime.
type Publisher struct {
	r *Region
}

// NewPublisher returns a Publisher bound to r. The sequence starts at 0
// (even, payload empty) because the region was zero-filled at channel
// creation.
func NewPublisher(r *Region) *Publisher { return &Publisher{r: r} }

// Publish writes data as the new latest value, following the odd/even
// sequence protocol: store odd, copy payload, store even. len(data) must
// not exceed the region's data_size. A caller that violates this has a
// bug, so it panics rather than returning an error.
func (p *Publisher) Publish(data []byte) {
	if uint64(len(data)) > p.r.dataSize {
		panic("seqlock: publish data exceeds data_size")
	}

	seq := shm.AtomicLoadUint64(p.r.sequenceBytes())
	// Now odd: a write is in progress. Readers must not proceed past it
	// until they see the matching even value below.
	shm.AtomicStoreUint64(p.r.sequenceBytes(), seq+1)

	n := copy(p.r.payload(), data)
	shm.AtomicStoreUint64(p.r.dataLenBytes(), uint64(n))

	shm.AtomicStoreUint64(p.r.sequenceBytes(), seq+2)
}

// Reader is the shell-side read path of a seqlock region. Safe for
// concurrent use by multiple goroutines, each independently retrying.
type Reader struct {
	r *Region
}

// NewReader returns a Reader bound to r.
func NewReader(r *Region) *Reader { return &Reader{r: r} }

// Read copies the most recently published payload into buf, returning the
// number of bytes copied (capped at len(buf)). On a freshly created channel
// (sequence still 0) it returns 0. The retry loop has no built-in deadline;
// livelock is bounded only by publish frequency, which is the caller's
// concern.
func (r *Reader) Read(buf []byte) int {
	for {
		s1 := shm.AtomicLoadUint64(r.r.sequenceBytes())
		if s1&1 != 0 {
			runtime.Gosched()
			continue
		}

		n := int(shm.AtomicLoadUint64(r.r.dataLenBytes()))
		if n > len(buf) {
			n = len(buf)
		}
		copy(buf, r.r.payload()[:n])

		s2 := shm.AtomicLoadUint64(r.r.sequenceBytes())
		if s1 == s2 {
			return n
		}
		// A publish overlapped the copy; retry from scratch.
	}
}
