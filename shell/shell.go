// Package shell implements the channel's attacher-side handle: any of the
// many peer processes that read the daemon's published state and submit
// commands back to it.
package shell

import (
	"github.com/alephchan/alephd/internal/ring"
	"github.com/alephchan/alephd/internal/seqlock"
	"github.com/alephchan/alephd/internal/shm"
)

// Shell is an attacher-side handle to an existing channel. It is safe for
// concurrent use by multiple goroutines of the same process, provided each
// call is independently atomic. The underlying ring and seqlock operations
// guarantee this on their own.
type Shell struct {
	name     string
	mapping  *shm.Mapping
	layout   shm.Layout
	clientID uint32
	reader   *seqlock.Reader
	ring     *ring.Ring
}

// Connect attaches to an existing channel by name, validates its layout,
// and claims a unique client id from the channel's atomic counter.
func Connect(name string) (*Shell, error) {
	m, err := shm.Attach(name, shm.ChannelHeaderSize)
	if err != nil {
		return nil, err
	}

	layout, err := shm.ReadLayout(m.Data)
	if err != nil {
		_ = m.Detach()
		return nil, err
	}

	clientID := shm.NextClientID(m.Data)

	seqBuf := m.Data[layout.SeqlockOffset : layout.SeqlockOffset+shm.SeqlockHeaderSize+layout.DataSize]
	region := seqlock.New(seqBuf, layout.DataSize)

	ringBuf := m.Data[layout.CmdRingOffset:layout.TotalSize]
	r := ring.New(ringBuf, layout.CmdSlots)

	return &Shell{
		name:     name,
		mapping:  m,
		layout:   layout,
		clientID: clientID,
		reader:   seqlock.NewReader(region),
		ring:     r,
	}, nil
}

// ReadData copies the channel's latest published payload into buf and
// returns the number of bytes copied.
func (s *Shell) ReadData(buf []byte) int {
	return s.reader.Read(buf)
}

// TrySendCommand submits data as a command from this shell's client id.
// Returns false if the ring is full or data is larger than one slot's
// payload capacity; the hot path never distinguishes the two.
func (s *Shell) TrySendCommand(data []byte) bool {
	return ring.TrySend(s.ring, s.clientID, data) == ring.Accepted
}

// ClientID returns the unique id this shell claimed at Connect.
func (s *Shell) ClientID() uint32 { return s.clientID }

// DataSize returns the channel's configured seqlock payload capacity.
func (s *Shell) DataSize() uint64 { return s.layout.DataSize }

// Close unmaps the channel. The backing object persists for other peers.
func (s *Shell) Close() error {
	return s.mapping.Detach()
}
