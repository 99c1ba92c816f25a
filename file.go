package vfat32

import "io"

// File is a read-only handle onto a regular file's contents (spec §4.8).
//
// Matching the original implementation, the full cluster chain is read into
// memory up front; Read then serves out of that buffer from a cursor. This
// driver never holds a file open across a structural change to the volume,
// so there is no separate invalidation story to worry about.
type File struct {
	data    []byte
	size    uint32
	readPtr int
}

func newFile(engine *chainEngine, firstCluster Cluster, size uint32) (*File, error) {
	if size == 0 {
		return &File{}, nil
	}

	data, err := engine.readChain(firstCluster)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > size {
		data = data[:size]
	}
	return &File{data: data, size: size}, nil
}

// Size returns the file's size in bytes, as recorded in its directory entry
// (not the size of the cluster chain, which is rounded up to a whole number
// of clusters).
func (f *File) Size() uint32 { return f.size }

// Read implements io.Reader, copying from the current read position and
// advancing it. It returns io.EOF once the file's declared size has been
// exhausted (spec §4.8).
func (f *File) Read(p []byte) (int, error) {
	if f.readPtr >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.readPtr:])
	f.readPtr += n
	return n, nil
}

// Seek repositions the read cursor, matching io.Seeker semantics restricted
// to the file's own bounds.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(f.readPtr)
	case io.SeekEnd:
		base = int64(len(f.data))
	default:
		return 0, NewDriverErrorWithMessage(errnoInvalidCluster, "invalid whence")
	}

	pos := base + offset
	if pos < 0 || pos > int64(len(f.data)) {
		return 0, NewDriverErrorWithMessage(errnoInvalidCluster, "seek out of range")
	}
	f.readPtr = int(pos)
	return pos, nil
}

// ReadAll returns a copy of the file's full contents, ignoring and leaving
// the cursor untouched (DOMAIN EXPANSION: a convenience accessor; the CLI's
// cat/extract commands stream through Read via io.Copy instead).
func (f *File) ReadAll() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}
