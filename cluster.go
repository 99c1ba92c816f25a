package vfat32

import (
	"encoding/binary"
	"fmt"

	"github.com/student/vfat32/blockcache"
	"github.com/student/vfat32/vfaterr"
)

// chainEngine translates cluster numbers to sectors and follows FAT chains
// (spec §4.6). It is embedded in Volume rather than exported on its own,
// since every operation needs the volume's geometry and cache.
type chainEngine struct {
	cache             *blockcache.Cache
	bytesPerSector    int
	sectorsPerCluster int
	fatStartSector    uint64
	dataStartSector   uint64
	totalClusters     uint32
}

func (e *chainEngine) entriesPerSector() int {
	return e.bytesPerSector / 4
}

// fatEntry returns the FATEntry for cluster, read through the sector cache.
// Spec §9 notes that a reference into a cached sector buffer is invalidated
// by a later cache access that could evict it; this implementation sidesteps
// that entirely by returning the entry by value, exactly as spec §9
// suggests an implementation may do.
func (e *chainEngine) fatEntry(cluster Cluster) (FATEntry, error) {
	clusterIndex := cluster.FATIndex()
	perSector := e.entriesPerSector()
	sector := e.fatStartSector + uint64(clusterIndex)/uint64(perSector)

	buf, err := e.cache.Get(sector)
	if err != nil {
		return 0, err
	}
	defer e.cache.Release(sector)

	offset := (int(clusterIndex) % perSector) * 4
	return FATEntry(binary.LittleEndian.Uint32(buf[offset : offset+4])), nil
}

// firstSectorOfCluster returns the absolute sector of cluster's first
// sector, per spec §4.6.
func (e *chainEngine) firstSectorOfCluster(cluster Cluster) (uint64, error) {
	dataIndex, err := cluster.DataIndex()
	if err != nil {
		return 0, err
	}
	return e.dataStartSector + uint64(dataIndex)*uint64(e.sectorsPerCluster), nil
}

// readCluster reads whole sectors of cluster into dst, starting
// sectorOffset sectors into the cluster, stopping when either the cluster's
// sectors are exhausted or dst is full. It returns the number of bytes
// written.
//
// Per spec §9's first Open Question, sectorOffset is interpreted in sectors,
// not bytes, matching the original implementation's literal behavior
// (`first_sector_of_cluster + offset as u64`).
func (e *chainEngine) readCluster(cluster Cluster, sectorOffset int, dst []byte) (int, error) {
	firstSector, err := e.firstSectorOfCluster(cluster)
	if err != nil {
		return 0, err
	}

	startSector := firstSector + uint64(sectorOffset)
	lastSector := firstSector + uint64(e.sectorsPerCluster)

	written := 0
	for sector := startSector; sector < lastSector && written < len(dst); sector++ {
		buf, err := e.cache.Get(sector)
		if err != nil {
			return written, err
		}
		n := copy(dst[written:], buf)
		e.cache.Release(sector)
		written += n
	}
	return written, nil
}

// readChain follows the FAT chain beginning at start, appending each
// cluster's full contents to a buffer, and returns that buffer; its length
// is the total bytes read.
//
// Per spec §4.6/§9: the final (Eoc) cluster is read in full even if the
// file's size doesn't span it — callers must truncate using the file size.
// Any Free/Bad/Reserved entry encountered mid-chain fails with a
// vfaterr.BadChainStatus. A chain that follows more links than the FAT has
// slots (sectors per FAT × entries per sector, set by Mount) fails with
// vfaterr.ErrChainTooLong (spec §9's recommended cycle guard).
func (e *chainEngine) readChain(start Cluster) ([]byte, error) {
	clusterSize := e.sectorsPerCluster * e.bytesPerSector
	dst := make([]byte, 0, clusterSize)
	cluster := start
	visited := uint32(0)

	for {
		visited++
		if visited > e.totalClusters+1 {
			return dst, vfaterr.ErrChainTooLong
		}

		entry, err := e.fatEntry(cluster)
		if err != nil {
			return dst, err
		}

		status := entry.Status()
		if status == StatusFree || status == StatusBad || status == StatusReserved {
			return dst, &vfaterr.BadChainStatus{
				Status: status.String(), Cluster: uint32(cluster),
			}
		}

		readStart := len(dst)
		dst = append(dst, make([]byte, clusterSize)...)
		if _, err := e.readCluster(cluster, 0, dst[readStart:]); err != nil {
			return dst, err
		}

		if status == StatusEoc {
			return dst, nil
		}
		if status != StatusData {
			return dst, fmt.Errorf("unreachable FAT status for cluster %d", uint32(cluster))
		}
		cluster = entry.Next()
	}
}
