package vfat32

// Cluster is a 32-bit cluster number with its reserved upper nibble masked
// off on construction (spec §3).
type Cluster uint32

// NewCluster masks off the reserved upper four bits of a raw 32-bit cluster
// value, per spec §3.
func NewCluster(raw uint32) Cluster {
	return Cluster(raw &^ (0xF << 28))
}

// FATIndex returns the cluster number itself, masked to 28 bits. It is the
// index into the FAT array that describes this cluster's successor.
func (c Cluster) FATIndex() uint32 {
	return uint32(c) & 0x0FFFFFFF
}

// DataIndex returns C-2, the cluster's index into the data region. Clusters 0
// and 1 are never valid data references (spec §3); calling DataIndex on one
// is a usage error.
func (c Cluster) DataIndex() (uint32, error) {
	if c < 2 {
		return 0, NewDriverErrorWithMessage(
			errnoInvalidCluster, "cluster numbers 0 and 1 have no data index",
		)
	}
	return uint32(c) - 2, nil
}

// FATStatus classifies the meaning of a single 32-bit FAT entry (spec §3).
type FATStatus int

const (
	// StatusFree means the cluster is unallocated.
	StatusFree FATStatus = iota
	// StatusReserved means the slot is reserved and must not be traversed.
	StatusReserved
	// StatusData means the cluster links to another cluster, given by Next.
	StatusData
	// StatusBad means the cluster is marked bad and must not be used.
	StatusBad
	// StatusEoc means the cluster is the last in its chain.
	StatusEoc
)

func (s FATStatus) String() string {
	switch s {
	case StatusFree:
		return "Free"
	case StatusReserved:
		return "Reserved"
	case StatusData:
		return "Data"
	case StatusBad:
		return "Bad"
	case StatusEoc:
		return "Eoc"
	default:
		return "Unknown"
	}
}

// FATEntry wraps a single 32-bit little-endian FAT slot (spec §4.5).
type FATEntry uint32

// Status classifies the entry per the table in spec §3.
func (e FATEntry) Status() FATStatus {
	value := uint32(e) & 0x0FFFFFFF
	switch {
	case value == 0x0000000:
		return StatusFree
	case value == 0x0000001:
		return StatusReserved
	case value >= 0x0000002 && value <= 0x0FFFFFEF:
		return StatusData
	case value >= 0x0FFFFFF0 && value <= 0x0FFFFFF6:
		return StatusReserved
	case value == 0x0FFFFFF7:
		return StatusBad
	default: // 0x0FFFFFF8 - 0x0FFFFFFF
		return StatusEoc
	}
}

// Next returns the successor cluster for a StatusData entry. It is only
// meaningful when Status() == StatusData.
func (e FATEntry) Next() Cluster {
	return NewCluster(uint32(e))
}

// Raw returns the raw 32-bit value, masked to 28 bits, for entries whose
// status is StatusEoc (the spec's "raw" payload of Eoc).
func (e FATEntry) Raw() uint32 {
	return uint32(e) & 0x0FFFFFFF
}
