// Package fixtures synthesizes minimal, valid FAT32 disk images in memory for
// use in tests, the way github.com/dargueta/disko's testing package
// (testing/images.go) wraps a decompressed embedded test image as a
// ReadWriteSeeker. This package has no fixture to decompress, so it
// synthesizes one: MBR, EBPB, FAT, and directory clusters, serialized
// byte-by-byte with github.com/noxer/bytewriter the same way
// file_systems/unixv1/format.go serializes its own on-disk structures, then
// wrapped for random access with github.com/xaionaro-go/bytesextra, the same
// helper the teacher uses for its own test images.
package fixtures

import (
	"encoding/binary"
	"io"
	"time"
	"unicode/utf16"

	"github.com/noxer/bytewriter"
	"github.com/xaionaro-go/bytesextra"
)

// MemoryDevice adapts an in-memory image to the driver's BlockDevice contract
// (ReadSector(index, dst) (int, error)).
type MemoryDevice struct {
	rws        io.ReadWriteSeeker
	sectorSize int
}

// NewMemoryDevice wraps image as a BlockDevice with the given sector size.
func NewMemoryDevice(image []byte, sectorSize int) *MemoryDevice {
	return &MemoryDevice{rws: bytesextra.NewReadWriteSeeker(image), sectorSize: sectorSize}
}

// ReadSector implements the driver's BlockDevice contract.
func (d *MemoryDevice) ReadSector(index uint64, dst []byte) (int, error) {
	if _, err := d.rws.Seek(int64(index)*int64(d.sectorSize), io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(d.rws, dst)
}

// Geometry describes the FAT32 volume an Image should build.
type Geometry struct {
	BytesPerSector       uint16
	SectorsPerCluster    uint8
	ReservedSectors      uint16
	NumFATs              uint8
	PartitionStartSector uint64
	DataClusters         uint32
}

// Image is an in-progress synthetic FAT32 disk image.
type Image struct {
	geom          Geometry
	fatEntries    []uint32
	nextFree      uint32
	clusterData   map[uint32][]byte
	bytesPerClust int
}

// NewImage starts a new synthetic image with the given geometry. Cluster 0
// and 1 are pre-marked reserved, matching a real FAT32 volume's first two FAT
// slots (the media descriptor and a reserved marker).
func NewImage(geom Geometry) *Image {
	totalEntries := int(geom.DataClusters) + 2
	entries := make([]uint32, totalEntries)
	entries[0] = 0x0FFFFFF8
	entries[1] = 0x0FFFFFFF

	return &Image{
		geom:          geom,
		fatEntries:    entries,
		nextFree:      2,
		clusterData:   make(map[uint32][]byte),
		bytesPerClust: int(geom.BytesPerSector) * int(geom.SectorsPerCluster),
	}
}

func (img *Image) sectorsPerFAT() uint32 {
	entriesPerSector := uint32(img.geom.BytesPerSector) / 4
	return (uint32(len(img.fatEntries)) + entriesPerSector - 1) / entriesPerSector
}

// AllocateChain reserves n contiguous-in-the-FAT (not necessarily contiguous
// on disk, though this builder happens to lay them out that way) clusters
// linked into a single chain terminated with Eoc, and returns the first
// cluster number.
func (img *Image) AllocateChain(n int) uint32 {
	first := img.nextFree
	for i := 0; i < n; i++ {
		cluster := img.nextFree
		img.nextFree++
		if i == n-1 {
			img.fatEntries[cluster] = 0x0FFFFFFF
		} else {
			img.fatEntries[cluster] = cluster + 1
		}
		img.clusterData[cluster] = make([]byte, img.bytesPerClust)
	}
	return first
}

// SetClusterBytes overwrites the start of a single cluster's raw contents
// with data (for file data). Directory entries are written with a DirCursor
// instead.
func (img *Image) SetClusterBytes(cluster uint32, data []byte) {
	buf := img.clusterData[cluster]
	copy(buf, data)
}

// DirCursor tracks where the next directory entry goes within a
// directory's cluster chain, so multiple AddXxxEntry calls can append in
// sequence.
type DirCursor struct {
	img      *Image
	clusters []uint32
	offset   int // byte offset into the chain as if it were one flat buffer
}

// DirCursor returns a cursor for appending entries into the cluster chain
// rooted at firstCluster. Callers must have already allocated every cluster
// in the chain via AllocateChain.
func (img *Image) DirCursor(firstCluster uint32) *DirCursor {
	clusters := []uint32{}
	cluster := firstCluster
	for {
		clusters = append(clusters, cluster)
		entry := img.fatEntries[cluster]
		if entry == 0x0FFFFFFF || entry >= 0x0FFFFFF8 {
			break
		}
		cluster = entry
	}
	return &DirCursor{img: img, clusters: clusters}
}

func (c *DirCursor) write(record []byte) {
	clusterIdx := c.offset / c.img.bytesPerClust
	clusterOffset := c.offset % c.img.bytesPerClust
	cluster := c.clusters[clusterIdx]
	copy(c.img.clusterData[cluster][clusterOffset:], record)
	c.offset += len(record)
}

// AddRegularEntry appends one 32-byte short-name directory entry. name must
// already be an uppercase 8.3 form such as "HELLO.TXT" or "SUBDIR".
func (c *DirCursor) AddRegularEntry(
	name string, attr uint8, firstCluster uint32, size uint32, modified time.Time,
) {
	c.write(encodeRegularEntry(name, attr, firstCluster, size, modified))
}

// AddLongEntry appends the LFN fragment chain for longName followed by a
// regular entry using shortName as its 8.3 stand-in, exactly the ordering
// spec §4.7 requires: LFN fragments immediately precede the regular entry,
// highest ordinal first.
func (c *DirCursor) AddLongEntry(
	longName, shortName string, attr uint8, firstCluster uint32, size uint32,
	modified time.Time,
) {
	checksum := shortNameChecksum(shortName)
	fragments := encodeLFNFragments(longName, checksum)
	for _, f := range fragments {
		c.write(f)
	}
	c.write(encodeRegularEntry(shortName, attr, firstCluster, size, modified))
}

// AddEndMarker writes the 0x00 end-of-directory sentinel.
func (c *DirCursor) AddEndMarker() {
	record := make([]byte, 32)
	c.write(record)
}

// encodeTimestamp packs a time.Time into FAT32's date/time fields (inverse of
// spec §3's bit layout).
func encodeTimestamp(t time.Time) (date uint16, clock uint16) {
	date = uint16((t.Year()-1980)<<9) | uint16(int(t.Month())<<5) | uint16(t.Day())
	clock = uint16(t.Hour()<<11) | uint16(t.Minute()<<5) | uint16(t.Second()/2)
	return date, clock
}

func splitShortName(name string) (base [8]byte, ext [3]byte) {
	for i := range base {
		base[i] = ' '
	}
	for i := range ext {
		ext[i] = ' '
	}
	stem, extension := name, ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			stem, extension = name[:i], name[i+1:]
			break
		}
	}
	copy(base[:], stem)
	copy(ext[:], extension)
	return base, ext
}

func encodeRegularEntry(
	name string, attr uint8, firstCluster uint32, size uint32, modified time.Time,
) []byte {
	base, ext := splitShortName(name)
	date, clock := encodeTimestamp(modified)

	buf := make([]byte, 32)
	w := bytewriter.New(buf)
	w.Write(base[:])
	w.Write(ext[:])
	binary.Write(w, binary.LittleEndian, attr)
	binary.Write(w, binary.LittleEndian, uint8(0))  // NT reserved
	binary.Write(w, binary.LittleEndian, uint8(0))  // creation time, hundredths
	binary.Write(w, binary.LittleEndian, uint16(0)) // creation time
	binary.Write(w, binary.LittleEndian, date)       // creation date
	binary.Write(w, binary.LittleEndian, date)       // last accessed date
	binary.Write(w, binary.LittleEndian, uint16(firstCluster>>16))
	binary.Write(w, binary.LittleEndian, clock)
	binary.Write(w, binary.LittleEndian, date)
	binary.Write(w, binary.LittleEndian, uint16(firstCluster))
	binary.Write(w, binary.LittleEndian, size)
	return buf
}

// shortNameChecksum computes the standard FAT LFN checksum over the 11-byte
// padded short name. This driver's decoder never verifies it (spec §9 Open
// Question: "LFN checksum verification ... is not performed"); it's computed
// here only so synthetic images carry a realistic, non-garbage value.
func shortNameChecksum(shortName string) byte {
	base, ext := splitShortName(shortName)
	var sum byte
	for _, b := range append(base[:], ext[:]...) {
		sum = (sum>>1 | sum<<7) + b
	}
	return sum
}

// encodeLFNFragments splits longName into 13-UCS2-unit fragments and encodes
// each as a 32-byte LFN directory entry, ordered highest-ordinal-first (the
// order they must appear on disk, immediately before the regular entry).
func encodeLFNFragments(longName string, checksum byte) [][]byte {
	units := utf16.Encode([]rune(longName))

	const unitsPerFragment = 13
	numFragments := (len(units) + unitsPerFragment - 1) / unitsPerFragment
	if numFragments == 0 {
		numFragments = 1
	}

	padded := make([]uint16, numFragments*unitsPerFragment)
	for i := range padded {
		padded[i] = 0xFFFF
	}
	copy(padded, units)
	if len(units) < len(padded) {
		padded[len(units)] = 0x0000
	}

	fragments := make([][]byte, numFragments)
	for i := 0; i < numFragments; i++ {
		ordinal := i + 1
		seq := uint8(ordinal)
		if i == numFragments-1 {
			seq |= 0x40
		}
		chunk := padded[i*unitsPerFragment : (i+1)*unitsPerFragment]

		buf := make([]byte, 32)
		w := bytewriter.New(buf)
		binary.Write(w, binary.LittleEndian, seq)
		writeUnits(w, chunk[0:5])
		binary.Write(w, binary.LittleEndian, uint8(0x0F)) // attr: LFN
		binary.Write(w, binary.LittleEndian, uint8(0))    // type
		binary.Write(w, binary.LittleEndian, checksum)
		writeUnits(w, chunk[5:11])
		binary.Write(w, binary.LittleEndian, uint16(0)) // zero pad / first cluster
		writeUnits(w, chunk[11:13])

		// Fragments are written in on-disk order: highest ordinal first.
		fragments[numFragments-1-i] = buf
	}
	return fragments
}

func writeUnits(w io.Writer, units []uint16) {
	for _, u := range units {
		binary.Write(w, binary.LittleEndian, u)
	}
}

// Finish serializes the MBR, EBPB, FAT tables, and all allocated data
// clusters into one contiguous in-memory image and returns it wrapped as a
// BlockDevice.
func (img *Image) Finish(rootCluster uint32) *MemoryDevice {
	g := img.geom

	fatSectors := img.sectorsPerFAT()
	dataSectors := img.geom.DataClusters * uint32(g.SectorsPerCluster)
	totalSectors := g.PartitionStartSector + uint64(g.ReservedSectors) +
		uint64(g.NumFATs)*uint64(fatSectors) + uint64(dataSectors)

	image := make([]byte, totalSectors*uint64(g.BytesPerSector))

	mbr := BuildMBR([4]PartitionSpec{
		{Type: 0x0C, StartSector: g.PartitionStartSector, TotalSectors: totalSectors - g.PartitionStartSector},
	})
	copy(image, mbr)

	ebpbOffset := g.PartitionStartSector * uint64(g.BytesPerSector)
	ebpb := BuildEBPB(EBPBSpec{
		BytesPerSector:    g.BytesPerSector,
		SectorsPerCluster: g.SectorsPerCluster,
		ReservedSectors:   g.ReservedSectors,
		NumFATs:           g.NumFATs,
		SectorsPerFAT:     fatSectors,
		RootDirCluster:    rootCluster,
		TotalSectors:      uint32(totalSectors - g.PartitionStartSector),
	})
	copy(image[ebpbOffset:], ebpb)

	fatStartOffset := (g.PartitionStartSector + uint64(g.ReservedSectors)) * uint64(g.BytesPerSector)
	fatBytes := make([]byte, fatSectors*uint32(g.BytesPerSector))
	w := bytewriter.New(fatBytes)
	for _, e := range img.fatEntries {
		binary.Write(w, binary.LittleEndian, e)
	}
	for fatNum := uint8(0); fatNum < g.NumFATs; fatNum++ {
		copy(image[fatStartOffset+uint64(fatNum)*uint64(len(fatBytes)):], fatBytes)
	}

	dataStartOffset := fatStartOffset + uint64(g.NumFATs)*uint64(len(fatBytes))
	for cluster, data := range img.clusterData {
		clusterOffset := dataStartOffset + uint64(cluster-2)*uint64(img.bytesPerClust)
		copy(image[clusterOffset:], data)
	}

	return NewMemoryDevice(image, int(g.BytesPerSector))
}
