// Package blockcache implements the sector cache that sits between a block
// device and the FAT32 traversal engine (spec §4.2).
//
// It owns decoded sector buffers, keyed by absolute sector index, and lends
// out borrowed views into its own storage rather than copying. It is adapted
// from github.com/dargueta/disko's drivers/common/blockcache.BlockCache,
// which tracks a dense, 0-based range of blocks belonging to a single file
// with present/dirty bitmaps; this cache instead tracks a sparse set of
// absolute device-sector numbers over a bounded slot table, because spec §4.2
// requires addressing by absolute sector index on the underlying device, not
// a private 0-based block range.
package blockcache

import (
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
)

// FetchSector reads exactly one sector's worth of data (len(dst) bytes) from
// the underlying device at absolute sector index.
type FetchSector func(index uint64, dst []byte) (int, error)

// Cache is a write-through, owning cache of decoded sectors. It supports the
// two operations spec §4.2 names: an immutable view (Get) and a mutable view
// (GetMutable) of a sector's bytes, both loading on miss.
//
// Cache is not safe for concurrent use, matching spec §5: the volume handle
// that owns a Cache must serialize operations on it.
type Cache struct {
	sectorSize int
	fetch      FetchSector

	// slots holds the decoded bytes for each occupied slot, sectorSize bytes
	// apiece.
	slots [][]byte
	// index maps an absolute sector number to its slot.
	index map[uint64]int
	// sectorOf is the inverse of index, used during eviction.
	sectorOf []uint64
	// valid marks which slots currently hold real data.
	valid bitmap.Bitmap
	// borrowed marks which slots have a live view outstanding. A borrowed
	// slot must never be evicted (spec §4.2, §9's note on borrowed FAT
	// entries), so eviction always skips it.
	borrowed bitmap.Bitmap
	// clock is the next slot to consider for eviction, advanced round-robin.
	clock int
}

// New creates a Cache that holds up to maxSectors decoded sectors of
// sectorSize bytes each, fetching misses via fetch.
//
// maxSectors bounds the cache by sector count (spec §4.2 permits bounding by
// total bytes with LRU eviction; a fixed slot count with round-robin
// eviction-skip-if-borrowed achieves the same "never evict a live borrow"
// guarantee with less bookkeeping).
func New(sectorSize int, maxSectors int, fetch FetchSector) *Cache {
	if maxSectors < 1 {
		maxSectors = 1
	}
	return &Cache{
		sectorSize: sectorSize,
		fetch:      fetch,
		slots:      make([][]byte, maxSectors),
		index:      make(map[uint64]int, maxSectors),
		sectorOf:   make([]uint64, maxSectors),
		valid:      bitmap.NewSlice(maxSectors),
		borrowed:   bitmap.NewSlice(maxSectors),
	}
}

// Release marks the sector as no longer borrowed, making it eligible for
// eviction again. Callers that took a view via Get or GetMutable should
// Release it once they're done reading through the returned slice; failing
// to do so simply pins the sector in the cache, it does not leak memory.
func (c *Cache) Release(sector uint64) {
	slot, ok := c.index[sector]
	if !ok {
		return
	}
	c.borrowed.Set(slot, false)
}

// Get returns a borrowed, read-only view of the decoded sector at the given
// absolute index, loading it from the device first if it isn't cached.
//
// The returned slice aliases the cache's own storage. A later cache miss that
// evicts this sector invalidates the slice; see Release.
func (c *Cache) Get(sector uint64) ([]byte, error) {
	return c.getSlot(sector)
}

// GetMutable returns a borrowed, writable view of the decoded sector. The
// cache is write-through: callers that mutate the returned slice are
// responsible for flushing it to the device themselves if persistence is
// needed. (This driver is read-only end to end and never calls GetMutable in
// its own traversal code; it exists because spec §4.2 names it as part of
// the cache's contract.)
func (c *Cache) GetMutable(sector uint64) ([]byte, error) {
	return c.getSlot(sector)
}

func (c *Cache) getSlot(sector uint64) ([]byte, error) {
	if slot, ok := c.index[sector]; ok {
		c.borrowed.Set(slot, true)
		return c.slots[slot], nil
	}

	slot, err := c.evictSlotFor(sector)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, c.sectorSize)
	n, err := c.fetch(sector, buf)
	if err != nil {
		return nil, err
	}
	if n < c.sectorSize {
		return nil, io.ErrUnexpectedEOF
	}

	c.slots[slot] = buf
	c.sectorOf[slot] = sector
	c.index[sector] = slot
	c.valid.Set(slot, true)
	c.borrowed.Set(slot, true)

	return buf, nil
}

// evictSlotFor picks a slot to hold a newly-fetched sector, evicting an
// existing occupant if necessary. It never evicts a borrowed slot.
func (c *Cache) evictSlotFor(sector uint64) (int, error) {
	n := len(c.slots)
	for i := 0; i < n; i++ {
		if !c.valid.Get(i) {
			return i, nil
		}
	}

	for i := 0; i < n; i++ {
		slot := (c.clock + i) % n
		if !c.borrowed.Get(slot) {
			c.clock = (slot + 1) % n
			delete(c.index, c.sectorOf[slot])
			c.valid.Set(slot, false)
			return slot, nil
		}
	}

	return 0, fmt.Errorf(
		"sector cache exhausted: all %d slots are borrowed, cannot load sector %d",
		n, sector,
	)
}
