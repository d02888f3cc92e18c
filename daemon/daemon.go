// Package daemon implements the channel's creator-side handle: the single
// process that owns the shared mapping, publishes data through the
// seqlock, and drains the command ring.
package daemon

import (
	"unsafe"

	"github.com/alephchan/alephd/internal/ring"
	"github.com/alephchan/alephd/internal/seqlock"
	"github.com/alephchan/alephd/internal/shm"
)

// Daemon is the creator-side handle to a channel. It is single-consumer,
// single-publisher by contract: exactly one goroutine may call WriteData
// and exactly one may call TryRecvCommand, though they may be different
// goroutines running concurrently with each other.
type Daemon struct {
	name    string
	mapping *shm.Mapping
	layout  shm.Layout
	pub     *seqlock.Publisher
	ring    *ring.Ring
}

// Create establishes a new channel under name with the given configuration,
// writes the channel header and region headers, and returns a handle the
// caller must Close when done. Any channel of the same name is replaced.
func Create(name string, cfg shm.ChannelConfig) (*Daemon, error) {
	layout := shm.ComputeLayout(cfg)

	m, err := shm.Create(name, int(layout.TotalSize))
	if err != nil {
		return nil, err
	}

	shm.WriteHeader(m.Data, layout)

	seqBuf := m.Data[layout.SeqlockOffset : layout.SeqlockOffset+shm.SeqlockHeaderSize+layout.DataSize]
	region := seqlock.New(seqBuf, layout.DataSize)

	ringBuf := m.Data[layout.CmdRingOffset:layout.TotalSize]
	r := ring.New(ringBuf, layout.CmdSlots)

	return &Daemon{
		name:    name,
		mapping: m,
		layout:  layout,
		pub:     seqlock.NewPublisher(region),
		ring:    r,
	}, nil
}

// WriteData publishes data as the channel's new latest state. len(data)
// must not exceed the configured DataSize; violating this is a programmer
// bug and panics rather than returning an error.
func (d *Daemon) WriteData(data []byte) {
	d.pub.Publish(data)
}

// TryRecvCommand returns the oldest pending command, if any, copying its
// payload into buf and returning its originating client id and length.
// Non-blocking: ok is false if the ring is empty or the head slot's
// producer hasn't finished committing yet.
func (d *Daemon) TryRecvCommand(buf []byte) (clientID uint32, n int, ok bool) {
	return ring.TryRecv(d.ring, buf)
}

// RawPtr exposes the base address of the channel's mapping for diagnostics.
// Callers must not dereference it outside this package's protocols.
func (d *Daemon) RawPtr() unsafe.Pointer {
	if len(d.mapping.Data) == 0 {
		return nil
	}
	return unsafe.Pointer(&d.mapping.Data[0])
}

// Name returns the channel's logical name.
func (d *Daemon) Name() string { return d.name }

// DataSize returns the configured seqlock payload capacity.
func (d *Daemon) DataSize() uint64 { return d.layout.DataSize }

// Close unmaps the channel and removes its backing object. Only the
// creating daemon may call this; a shell's Close only unmaps.
func (d *Daemon) Close() error {
	if err := d.mapping.Detach(); err != nil {
		return err
	}
	return shm.Remove(d.name)
}
