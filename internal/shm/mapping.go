// Package shm implements the channel's shared mapping primitive and its
// on-disk layout: the lowest-level collaborators of the SWMR IPC channel.
// Nothing in this package is safe to use concurrently from the same handle
// without the ordering discipline the seqlock and ring packages build on
// top of it.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// shmDir is the deterministic per-name path prefix for POSIX shared memory
// on Linux. It is the OS convention the channel relies on, not configurable,
// since peers on either end must agree on it without coordination beyond the
// logical channel name.
const shmDir = "/dev/shm/"

// Mapping is a memory-mapped shared region, either freshly created or
// attached to an existing one. Its Data slice is exactly Size bytes and
// aliases kernel-backed pages shared with every other process holding the
// same named object.
type Mapping struct {
	Data []byte
	Size int
}

func shmPath(name string) string {
	return shmDir + name
}

// Create establishes a shared-memory object under the deterministic path for
// name, truncates it to exactly size bytes, and maps it read/write. If an
// object of the same name already exists it is removed first so the new
// mapping starts from a clean, zero-filled layout.
func Create(name string, size int) (*Mapping, error) {
	path := shmPath(name)

	// Pre-remove any stale object so the header and regions we are about
	// to write are never interleaved with a previous incarnation's bytes.
	_ = unix.Unlink(path)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrMappingFailed, path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrMappingFailed, path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrMappingFailed, path, err)
	}

	return &Mapping{Data: data, Size: size}, nil
}

// Attach opens an existing shared-memory object, queries its size, and maps
// it read/write at that full size. It fails if the object does not exist or
// is smaller than a channel header could ever be.
func Attach(name string, minSize int) (*Mapping, error) {
	path := shmPath(name)

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrMappingFailed, path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrMappingFailed, path, err)
	}
	size := int(st.Size())
	if size < minSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, need at least %d", ErrTooSmall, name, size, minSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrMappingFailed, path, err)
	}

	return &Mapping{Data: data, Size: size}, nil
}

// Detach unmaps the region. It does not remove the backing object; callers
// that created the channel must call Remove separately.
func (m *Mapping) Detach() error {
	if m.Data == nil {
		return nil
	}
	err := unix.Munmap(m.Data)
	m.Data = nil
	return err
}

// Remove unlinks the named shared-memory object. Mapped references already
// held by other processes remain valid until they detach.
func Remove(name string) error {
	if err := unix.Unlink(shmPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: unlink %s: %v", ErrMappingFailed, name, err)
	}
	return nil
}
