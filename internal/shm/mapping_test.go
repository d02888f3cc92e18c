package shm

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannelName(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("alephd-test-%s", uuid.NewString())
	t.Cleanup(func() { _ = Remove(name) })
	return name
}

func TestCreateZeroFillsMapping(t *testing.T) {
	name := testChannelName(t)

	m, err := Create(name, 4096)
	require.NoError(t, err)
	defer m.Detach()

	for i, b := range m.Data {
		if b != 0 {
			t.Fatalf("byte %d not zero-filled: %#x", i, b)
		}
	}
	assert.Equal(t, 4096, m.Size)
}

func TestCreateReplacesExistingObject(t *testing.T) {
	name := testChannelName(t)

	m1, err := Create(name, 64)
	require.NoError(t, err)
	m1.Data[0] = 0xAB
	require.NoError(t, m1.Detach())

	m2, err := Create(name, 64)
	require.NoError(t, err)
	defer m2.Detach()

	assert.Equal(t, byte(0), m2.Data[0], "create must not inherit stale bytes")
}

func TestAttachSeesCreatedBytes(t *testing.T) {
	name := testChannelName(t)

	m1, err := Create(name, 128)
	require.NoError(t, err)
	defer m1.Detach()
	copy(m1.Data, []byte("hello"))

	m2, err := Attach(name, 1)
	require.NoError(t, err)
	defer m2.Detach()

	assert.Equal(t, "hello", string(m2.Data[:5]))
	assert.Equal(t, 128, m2.Size)
}

func TestAttachMissingChannelReturnsNotFound(t *testing.T) {
	_, err := Attach("alephd-test-does-not-exist", 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttachSmallerThanMinSizeReturnsTooSmall(t *testing.T) {
	name := testChannelName(t)
	m, err := Create(name, 8)
	require.NoError(t, err)
	require.NoError(t, m.Detach())

	_, err = Attach(name, 64)
	require.ErrorIs(t, err, ErrTooSmall)
}

func TestDetachIsIdempotent(t *testing.T) {
	name := testChannelName(t)
	m, err := Create(name, 64)
	require.NoError(t, err)

	require.NoError(t, m.Detach())
	require.NoError(t, m.Detach())
}

func TestRemoveThenAttachFails(t *testing.T) {
	name := testChannelName(t)
	m, err := Create(name, 64)
	require.NoError(t, err)
	require.NoError(t, m.Detach())
	require.NoError(t, Remove(name))

	_, err = Attach(name, 1)
	require.ErrorIs(t, err, ErrNotFound)
}
