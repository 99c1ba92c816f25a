package fixtures

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// PartitionSpec describes one MBR partition record to synthesize.
type PartitionSpec struct {
	Type         uint8
	StartSector  uint64
	TotalSectors uint64
}

// BuildMBR serializes a 512-byte Master Boot Record with up to four
// partition records, mirroring the layout spec §6 requires: 436-byte
// bootstrap, 10-byte disk ID, four 16-byte partition records, trailing
// 0x55,0xAA signature.
func BuildMBR(partitions [4]PartitionSpec) []byte {
	buf := make([]byte, 512)
	w := bytewriter.New(buf)

	w.Write(make([]byte, 436)) // bootstrap, unused
	w.Write(make([]byte, 10))  // disk ID, unused

	for _, p := range partitions {
		boot := uint8(0x00)
		if p.Type != 0 {
			boot = 0x80
		}
		binary.Write(w, binary.LittleEndian, boot)
		w.Write([]byte{0, 0, 0}) // CHS start, unused
		binary.Write(w, binary.LittleEndian, p.Type)
		w.Write([]byte{0, 0, 0}) // CHS end, unused
		binary.Write(w, binary.LittleEndian, uint32(p.StartSector))
		binary.Write(w, binary.LittleEndian, uint32(p.TotalSectors))
	}

	buf[510] = 0x55
	buf[511] = 0xAA
	return buf
}

// EBPBSpec describes one FAT32 extended BIOS parameter block to synthesize.
type EBPBSpec struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	SectorsPerFAT     uint32
	RootDirCluster    uint32
	TotalSectors      uint32
}

// BuildEBPB serializes a FAT32 extended BIOS Parameter Block sector,
// matching the field layout spec §4.4/§6 requires, trailing 0x55,0xAA
// signature included.
func BuildEBPB(spec EBPBSpec) []byte {
	buf := make([]byte, spec.BytesPerSector)
	w := bytewriter.New(buf)

	w.Write([]byte{0xEB, 0x58, 0x90})     // JmpBoot
	w.Write([]byte("FIXTURE "))           // OEMName, 8 bytes
	binary.Write(w, binary.LittleEndian, spec.BytesPerSector)
	binary.Write(w, binary.LittleEndian, spec.SectorsPerCluster)
	binary.Write(w, binary.LittleEndian, spec.ReservedSectors)
	binary.Write(w, binary.LittleEndian, spec.NumFATs)
	binary.Write(w, binary.LittleEndian, uint16(0)) // RootEntryCount: 0 on FAT32
	binary.Write(w, binary.LittleEndian, uint16(0)) // TotalSectors16
	binary.Write(w, binary.LittleEndian, uint8(0xF8)) // Media
	binary.Write(w, binary.LittleEndian, uint16(0)) // SectorsPerFAT16
	binary.Write(w, binary.LittleEndian, uint16(0)) // SectorsPerTrack
	binary.Write(w, binary.LittleEndian, uint16(0)) // NumHeads
	binary.Write(w, binary.LittleEndian, uint32(0)) // HiddenSectors
	binary.Write(w, binary.LittleEndian, spec.TotalSectors)
	binary.Write(w, binary.LittleEndian, spec.SectorsPerFAT)
	binary.Write(w, binary.LittleEndian, uint16(0)) // Flags
	binary.Write(w, binary.LittleEndian, uint16(0)) // FATVersion
	binary.Write(w, binary.LittleEndian, spec.RootDirCluster)
	binary.Write(w, binary.LittleEndian, uint16(1)) // FSInfoSector
	binary.Write(w, binary.LittleEndian, uint16(6)) // BackupBootSector
	w.Write(make([]byte, 12))                       // reserved
	binary.Write(w, binary.LittleEndian, uint8(0x80)) // DriveNumber
	binary.Write(w, binary.LittleEndian, uint8(0))    // Reserved2
	binary.Write(w, binary.LittleEndian, uint8(0x29)) // ExtSignature
	binary.Write(w, binary.LittleEndian, uint32(0))   // VolumeSerial
	w.Write([]byte("NO NAME    "))                    // VolumeLabel, 11 bytes
	w.Write([]byte("FAT32   "))                        // SystemID, 8 bytes

	buf[len(buf)-2] = 0x55
	buf[len(buf)-1] = 0xAA
	return buf
}
