package vfat32

// BlockDevice is the external collaborator this driver is built against: a
// synchronous, fixed-size-sector block device addressed by absolute sector
// index. Per spec §4.1, the driver never assumes retry semantics — any error
// returned here propagates to the caller unchanged.
//
// Sector size is fixed for the lifetime of a single BlockDevice and is
// whatever ReadSector fills dst with; the volume learns it from the EBPB, not
// from this interface.
type BlockDevice interface {
	// ReadSector reads the sector at the given absolute index into dst,
	// returning the number of bytes written. A short read (n < len(dst)) is
	// not itself an error here; callers that require a full sector turn a
	// short read into an "unexpected end of data" error themselves.
	ReadSector(index uint64, dst []byte) (n int, err error)
}
