package shell

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alephchan/alephd/daemon"
	"github.com/alephchan/alephd/internal/shm"
)

func testChannelName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("alephd-test-%s", uuid.NewString())
}

// TestHelloRoundTrip confirms a shell reads exactly what the daemon last
// published.
func TestHelloRoundTrip(t *testing.T) {
	name := testChannelName(t)
	d, err := daemon.Create(name, shm.ChannelConfig{DataSize: 64, CmdSlots: 4})
	require.NoError(t, err)
	defer d.Close()

	d.WriteData([]byte("hello"))

	s, err := Connect(name)
	require.NoError(t, err)
	defer s.Close()

	buf := make([]byte, 64)
	n := s.ReadData(buf)
	require.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestConnectUnknownChannelReturnsNotFound(t *testing.T) {
	_, err := Connect("alephd-test-does-not-exist")
	require.ErrorIs(t, err, shm.ErrNotFound)
}

// TestInvalidAttachLeavesNoMapping confirms a bogus channel with the wrong
// magic is rejected, and leaves no mapping retained in the attaching
// process.
func TestInvalidAttachLeavesNoMapping(t *testing.T) {
	name := testChannelName(t)
	m, err := shm.Create(name, shm.ChannelHeaderSize+256)
	require.NoError(t, err)
	copy(m.Data, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, m.Detach())
	t.Cleanup(func() { _ = shm.Remove(name) })

	_, err = Connect(name)
	require.ErrorIs(t, err, shm.ErrInvalidLayout)

	maps, err := os.ReadFile("/proc/self/maps")
	require.NoError(t, err)
	assert.NotContains(t, string(maps), name, "rejected attach left a mapping")
}

func TestUniqueClientIDsPerAttach(t *testing.T) {
	name := testChannelName(t)
	d, err := daemon.Create(name, shm.ChannelConfig{DataSize: 64, CmdSlots: 4})
	require.NoError(t, err)
	defer d.Close()

	seen := make(map[uint32]bool)
	for i := 0; i < 10; i++ {
		s, err := Connect(name)
		require.NoError(t, err)
		require.False(t, seen[s.ClientID()], "client id %d reused", s.ClientID())
		seen[s.ClientID()] = true
		require.NoError(t, s.Close())
	}
}

// TestCommandRoundTrip confirms the try_send/try_recv round trip: sending
// m and then receiving returns (my_id, m) when no other producer is
// competing for the ring.
func TestCommandRoundTrip(t *testing.T) {
	name := testChannelName(t)
	d, err := daemon.Create(name, shm.ChannelConfig{DataSize: 64, CmdSlots: 4})
	require.NoError(t, err)
	defer d.Close()

	s, err := Connect(name)
	require.NoError(t, err)
	defer s.Close()

	ok := s.TrySendCommand([]byte("ping"))
	require.True(t, ok)

	buf := make([]byte, 64)
	clientID, n, got := d.TryRecvCommand(buf)
	require.True(t, got)
	assert.Equal(t, s.ClientID(), clientID)
	assert.Equal(t, "ping", string(buf[:n]))
}

// TestFullRingReturnsFalse confirms a full command ring rejects further
// sends, driven through the shell/daemon handles rather than the internal
// ring package directly.
func TestFullRingReturnsFalse(t *testing.T) {
	name := testChannelName(t)
	d, err := daemon.Create(name, shm.ChannelConfig{DataSize: 64, CmdSlots: 4})
	require.NoError(t, err)
	defer d.Close()

	s, err := Connect(name)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 4; i++ {
		require.True(t, s.TrySendCommand([]byte("x")), "send %d", i)
	}
	assert.False(t, s.TrySendCommand([]byte("x")))
}

// TestOversizeCommandRejected confirms a command larger than one slot's
// payload capacity is rejected without consuming a slot.
func TestOversizeCommandRejected(t *testing.T) {
	name := testChannelName(t)
	d, err := daemon.Create(name, shm.ChannelConfig{DataSize: 64, CmdSlots: 4})
	require.NoError(t, err)
	defer d.Close()

	s, err := Connect(name)
	require.NoError(t, err)
	defer s.Close()

	big := make([]byte, shm.SlotPayloadSize+1)
	assert.False(t, s.TrySendCommand(big))

	buf := make([]byte, 64)
	_, _, ok := d.TryRecvCommand(buf)
	assert.False(t, ok)
}
