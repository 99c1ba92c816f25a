package vfat32

import (
	"strings"

	"github.com/student/vfat32/blockcache"
	"github.com/student/vfat32/vfaterr"
)

// cacheSectorSlots bounds the sector cache's size. Chosen generously enough
// that a single directory-traversal plus chain-read doesn't thrash, without
// needing to know the volume's size up front.
const cacheSectorSlots = 64

// Volume is a mounted, read-only FAT32 volume (spec §4.1, §5).
type Volume struct {
	device         BlockDevice
	ebpb           *EBPB
	engine         *chainEngine
	partitionStart uint64
	totalClusters  uint32
}

// Mount locates the first FAT32 partition on device, reads its extended BIOS
// parameter block, and returns a ready-to-use Volume (spec §4.1's mount
// sequence: MBR -> first FAT32 partition -> EBPB -> cache -> chain engine).
func Mount(device BlockDevice) (*Volume, error) {
	mbr, err := ReadMBR(device)
	if err != nil {
		return nil, err
	}

	part, err := mbr.FirstFAT32()
	if err != nil {
		return nil, err
	}

	// The partition's boot sector is conventionally read at the standard
	// 512-byte physical sector size, independent of the BytesPerSector field
	// it itself declares (spec §4.4).
	const bootSectorSize = 512
	ebpb, err := ReadEBPB(device, part.StartSector, bootSectorSize)
	if err != nil {
		return nil, err
	}

	sectorSize := int(ebpb.BytesPerSector)
	cache := blockcache.New(sectorSize, cacheSectorSlots, func(index uint64, dst []byte) (int, error) {
		return device.ReadSector(index, dst)
	})

	fatStart := ebpb.FATStartSector(part.StartSector)
	dataStart := ebpb.DataStartSector(part.StartSector)

	entriesPerSector := uint32(sectorSize / 4)
	chainLengthCap := ebpb.SectorsPerFAT * entriesPerSector

	// ebpb.TotalSectors, like every other EBPB field, is relative to the
	// partition's own first sector, not the whole device.
	dataStartRelative := uint32(dataStart - part.StartSector)
	dataSectors := uint32(0)
	if ebpb.TotalSectors > dataStartRelative {
		dataSectors = ebpb.TotalSectors - dataStartRelative
	}
	actualClusters := uint32(0)
	if ebpb.SectorsPerCluster > 0 {
		actualClusters = dataSectors / uint32(ebpb.SectorsPerCluster)
	}

	engine := &chainEngine{
		cache:             cache,
		bytesPerSector:    sectorSize,
		sectorsPerCluster: int(ebpb.SectorsPerCluster),
		fatStartSector:    fatStart,
		dataStartSector:   dataStart,
		totalClusters:     chainLengthCap,
	}

	vol := &Volume{
		device:         device,
		ebpb:           ebpb,
		engine:         engine,
		partitionStart: part.StartSector,
		totalClusters:  actualClusters,
	}
	return vol, nil
}

// Info reports the mounted volume's decoded geometry (DOMAIN EXPANSION item 1).
type Info struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalClusters     uint32
	RootDirCluster    uint32
}

// Info returns the volume's geometry.
func (v *Volume) Info() Info {
	return Info{
		BytesPerSector:    v.ebpb.BytesPerSector,
		SectorsPerCluster: v.ebpb.SectorsPerCluster,
		TotalClusters:     v.totalClusters,
		RootDirCluster:    v.ebpb.RootDirCluster,
	}
}

// RootDir returns the volume's root directory.
func (v *Volume) RootDir() *Dir {
	return &Dir{engine: v.engine, firstCluster: NewCluster(v.ebpb.RootDirCluster)}
}

// Open resolves a slash-separated path from the root directory to its Entry
// (DOMAIN EXPANSION: the original only exposes per-directory Find; a
// multi-component Open is the natural composition spec §4.8 implies but
// doesn't spell out). Empty components are skipped; "." and ".." are not
// supported, matching the read-only, non-POSIX entry model spec §4.8
// describes.
func (v *Volume) Open(path string) (Entry, error) {
	components := strings.Split(path, "/")

	dir := v.RootDir()
	var entry Entry
	found := false

	for i, name := range components {
		if name == "" {
			continue
		}
		if name == "." || name == ".." {
			return Entry{}, NewDriverErrorWithMessage(errnoInvalidCluster, "relative path components are not supported")
		}

		e, err := dir.Find(name)
		if err != nil {
			return Entry{}, err
		}
		entry = e
		found = true

		isLast := i == len(components)-1
		if !isLast {
			if !e.IsDir() {
				return Entry{}, vfaterr.NotFound
			}
			dir, err = e.AsDir()
			if err != nil {
				return Entry{}, err
			}
		}
	}

	if !found {
		return Entry{}, NewDriverErrorWithMessage(errnoInvalidCluster, "empty path")
	}
	return entry, nil
}

// Stat is a convenience wrapper around Open that returns only the resolved
// entry's metadata (DOMAIN EXPANSION item 1).
func (v *Volume) Stat(path string) (Metadata, error) {
	entry, err := v.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	return entry.Metadata(), nil
}

// WalkFunc is called once per file encountered by WalkFiles, with its full
// slash-separated path from the root.
type WalkFunc func(path string, entry Entry) error

// WalkFiles recursively visits every regular file reachable from dir,
// calling fn with each file's path relative to the root (DOMAIN EXPANSION
// item 4, backing the CLI's bulk "extract --all"). Directories are descended
// into but never passed to fn.
func (v *Volume) WalkFiles(dir *Dir, prefix string, fn WalkFunc) error {
	entries, err := dir.Entries()
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := prefix + "/" + e.Name()
		if e.IsDir() {
			sub, err := e.AsDir()
			if err != nil {
				return err
			}
			if err := v.WalkFiles(sub, path, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(path, e); err != nil {
			return err
		}
	}
	return nil
}
